package util

import (
	"errors"
	"math"
)

// ErrOverflow is returned when integer arithmetic would wrap.
var ErrOverflow = errors.New("integer overflow")

// AddInt64 returns a+b, or ErrOverflow if the sum does not fit in an int64.
func AddInt64(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// SubInt64 returns a-b, or ErrOverflow if the difference does not fit in an int64.
func SubInt64(a, b int64) (int64, error) {
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		return 0, ErrOverflow
	}
	return a - b, nil
}

// MulInt64 returns a*b, or ErrOverflow if the product does not fit in an int64.
func MulInt64(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, ErrOverflow
	}
	p := a * b
	if p/b != a {
		return 0, ErrOverflow
	}
	return p, nil
}
