package parsum

import (
	"errors"
	"fmt"
	"math/rand"
)

var ErrInvalidRange = errors.New("invalid value range")

// Generate returns n values drawn uniformly from [min, max] using a source
// seeded with seed.
func Generate(n int, min, max int32, seed int64) ([]int32, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrInvalidRange, n)
	}
	if min > max {
		return nil, fmt.Errorf("%w: [%d,%d]", ErrInvalidRange, min, max)
	}

	rng := rand.New(rand.NewSource(seed))
	span := int64(max) - int64(min) + 1
	data := make([]int32, n)
	for i := range data {
		data[i] = int32(int64(min) + rng.Int63n(span))
	}
	return data, nil
}

// Sequence returns the values 1, 2, ..., n.
func Sequence(n int) []int32 {
	data := make([]int32, n)
	for i := range data {
		data[i] = int32(i + 1)
	}
	return data
}
