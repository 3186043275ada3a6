package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{"nil", nil, false},
		{"bbolt", &Config{Type: "bbolt", DataSource: "/tmp/db"}, false},
		{"badgerv2", &Config{Type: "BadgerV2", DataSource: "/tmp/db"}, false},
		{"no type", &Config{DataSource: "/tmp/db"}, true},
		{"no data source", &Config{Type: "bbolt"}, true},
		{"unsupported", &Config{Type: "mongodb", DataSource: "/tmp/db"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_noop(t *testing.T) {
	db, err := New(nil)
	require.NoError(t, err)
	assert.IsType(t, new(NoopDB), db)
	assert.NoError(t, db.StoreVerdict(&Verdict{ID: "x"}))
	_, err = db.GetVerdict("x")
	assert.ErrorIs(t, err, ErrNotImplemented)
	assert.NoError(t, db.Shutdown())

	_, err = New(&Config{Type: "mongodb", DataSource: "x"})
	assert.Error(t, err)
}

func TestDB_verdicts(t *testing.T) {
	db, err := New(&Config{Type: "bbolt", DataSource: filepath.Join(t.TempDir(), "audit.db")})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Shutdown()) })

	v := &Verdict{
		ID:                "reqID",
		Profile:           "ra",
		Stage:             "all",
		TransactionID:     "cafe",
		BodyType:          "ir",
		Valid:             false,
		Kind:              "badPOP",
		FailInfo:          "badPOP",
		CRMF:              true,
		Detail:            "missing proof of possession",
		SignerFingerprint: "abcd",
		ValidatedAt:       time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.StoreVerdict(v))
	assert.ErrorIs(t, db.StoreVerdict(v), ErrAlreadyExists)
	assert.Error(t, db.StoreVerdict(&Verdict{}))

	got, err := db.GetVerdict("reqID")
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = db.GetVerdict("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
