package parsum

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddChecked(t *testing.T) {
	tests := []struct {
		a, b     int64
		sum      int64
		overflow bool
	}{
		{1, 2, 3, false},
		{-5, 3, -2, false},
		{math.MaxInt64, 0, math.MaxInt64, false},
		{math.MaxInt64 - 1, 1, math.MaxInt64, false},
		{math.MaxInt64, 1, 0, true},
		{math.MinInt64, -1, 0, true},
		{math.MinInt64, math.MaxInt64, -1, false},
		{math.MaxInt64 / 2, math.MaxInt64/2 + 2, 0, true},
	}
	for _, tt := range tests {
		sum, err := addChecked(tt.a, tt.b)
		if tt.overflow {
			assert.Equal(t, ErrOverflow, err, "%d + %d", tt.a, tt.b)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, tt.sum, sum, "%d + %d", tt.a, tt.b)
	}
}

// Extreme int32 values must not overflow the int64 partial sums.
func TestSumExtremes(t *testing.T) {
	data := make([]int32, 1000)
	for i := range data {
		if i%2 == 0 {
			data[i] = math.MaxInt32
		} else {
			data[i] = math.MinInt32
		}
	}
	want := int64(500)*math.MaxInt32 + int64(500)*math.MinInt32
	assert.Equal(t, want, SumSequential(data))

	for i := range data {
		data[i] = math.MaxInt32
	}
	sum, err := Sum(data, 7)
	assert.NoError(t, err)
	assert.Equal(t, int64(1000)*math.MaxInt32, sum)
}
