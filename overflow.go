package parsum

import (
	"errors"
	"math"
)

var ErrOverflow = errors.New("int64 overflow")

// addChecked returns a+b, or ErrOverflow if the result does not fit in an
// int64.
func addChecked(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// sumRange sums data[p.Start:p.End]. Inputs accepted by ValidateThreads
// cannot overflow here.
func sumRange(data []int32, p Partition) int64 {
	var sum int64
	for _, v := range data[p.Start:p.End] {
		sum += int64(v)
	}
	return sum
}

// SumSequential sums data on the calling goroutine.
func SumSequential(data []int32) int64 {
	return sumRange(data, Partition{0, len(data)})
}
