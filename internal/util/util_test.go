package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddInt64(t *testing.T) {
	tests := []struct {
		name     string
		a, b     int64
		expected int64
		overflow bool
	}{
		{name: "small values", a: 100, b: 25, expected: 125},
		{name: "negative operand", a: 10, b: -25, expected: -15},
		{name: "up to max", a: math.MaxInt64 - 1, b: 1, expected: math.MaxInt64},
		{name: "past max", a: 100, b: math.MaxInt64, overflow: true},
		{name: "down to min", a: math.MinInt64 + 1, b: -1, expected: math.MinInt64},
		{name: "past min", a: math.MinInt64, b: -1, overflow: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AddInt64(tt.a, tt.b)
			if tt.overflow {
				require.ErrorIs(t, err, ErrOverflow)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
		})
	}
}

func TestSubInt64(t *testing.T) {
	tests := []struct {
		name     string
		a, b     int64
		expected int64
		overflow bool
	}{
		{name: "small values", a: 100, b: 25, expected: 75},
		{name: "goes negative", a: 0, b: 5, expected: -5},
		{name: "down to min", a: -1, b: math.MaxInt64, expected: math.MinInt64},
		{name: "past min", a: -2, b: math.MaxInt64, overflow: true},
		{name: "past max", a: math.MaxInt64, b: -1, overflow: true},
		{name: "min minus min", a: math.MinInt64, b: math.MinInt64, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SubInt64(tt.a, tt.b)
			if tt.overflow {
				require.ErrorIs(t, err, ErrOverflow)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
		})
	}
}

func TestMulInt64(t *testing.T) {
	tests := []struct {
		name     string
		a, b     int64
		expected int64
		overflow bool
	}{
		{name: "zero", a: 0, b: math.MaxInt64, expected: 0},
		{name: "small values", a: 4, b: 25, expected: 100},
		{name: "negative", a: -4, b: 25, expected: -100},
		{name: "fits", a: math.MaxInt64 / 4, b: 4, expected: math.MaxInt64 / 4 * 4},
		{name: "too large", a: math.MaxInt64/4 + 1, b: 4, overflow: true},
		{name: "min times minus one", a: math.MinInt64, b: -1, overflow: true},
		{name: "minus one times min", a: -1, b: math.MinInt64, overflow: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MulInt64(tt.a, tt.b)
			if tt.overflow {
				require.ErrorIs(t, err, ErrOverflow)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
		})
	}
}
