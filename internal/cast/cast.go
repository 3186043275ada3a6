package cast

import (
	"math/big"

	"github.com/ccoveille/go-safecast/v2"
	"github.com/pkg/errors"
)

type signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

type unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

type number interface {
	signed | unsigned
}

func SafeInt[T number](x T) (int, error) {
	return safecast.Convert[int](x)
}

func Int[T number](x T) int {
	i, err := SafeInt(x)
	if err != nil {
		panic(err)
	}

	return i
}

// SafeBigInt converts an ASN.1 INTEGER decoded as a big.Int.
func SafeBigInt(x *big.Int) (int, error) {
	if x == nil {
		return 0, errors.New("integer is missing")
	}
	if !x.IsInt64() {
		return 0, errors.Errorf("integer %s overflows int64", x)
	}
	return SafeInt(x.Int64())
}
