package cast

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntConvertsValues(t *testing.T) {
	require.Equal(t, 0, Int(uint8(0)))
	require.Equal(t, 42, Int(int64(42)))
	require.Equal(t, math.MaxInt, Int(int64(math.MaxInt)))
}

func TestIntPanicsOnLargeValue(t *testing.T) {
	require.Panics(t, func() { Int(uint64(math.MaxUint64)) })
}

func TestSafeBigInt(t *testing.T) {
	tests := []struct {
		name    string
		x       *big.Int
		want    int
		wantErr bool
	}{
		{"ok", big.NewInt(1000), 1000, false},
		{"negative", big.NewInt(-1), -1, false},
		{"nil", nil, 0, true},
		{"overflow", new(big.Int).Lsh(big.NewInt(1), 80), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafeBigInt(tt.x)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
