package parsum

import (
	"errors"
	"fmt"
)

const (
	// MaxThreads bounds the number of workers a single reduction may spawn.
	MaxThreads = 4096
	// MaxLen is the longest input accepted. Any int32 sequence of at most
	// MaxLen elements has a sum that fits in an int64.
	MaxLen int64 = 1<<32 - 1
)

var (
	ErrInvalidThreads = errors.New("invalid thread count")
	ErrTooManyThreads = errors.New("too many threads")
	ErrTooLong        = errors.New("input too long")
)

// A Partition is the half-open index range [Start, End) summed by one worker.
type Partition struct {
	Start int
	End   int
}

// Len returns the number of elements in the partition.
func (p Partition) Len() int {
	return p.End - p.Start
}

func (p Partition) String() string {
	return fmt.Sprintf("[%d,%d)", p.Start, p.End)
}

// ValidateThreads checks that n elements can be split across the given
// number of threads. An empty input is only valid with a single thread, in
// which case it is covered by one empty partition.
func ValidateThreads(n, threads int) error {
	switch {
	case n < 0:
		return fmt.Errorf("%w: negative length %d", ErrInvalidThreads, n)
	case int64(n) > MaxLen:
		return fmt.Errorf("%w: %d elements (max %d)", ErrTooLong, n, MaxLen)
	case threads <= 0:
		return fmt.Errorf("%w: %d (must be at least 1)", ErrInvalidThreads, threads)
	case threads > MaxThreads:
		return fmt.Errorf("%w: %d (max %d)", ErrTooManyThreads, threads, MaxThreads)
	case n == 0 && threads != 1:
		return fmt.Errorf("%w: %d for empty input (must be 1)", ErrInvalidThreads, threads)
	case n > 0 && threads > n:
		return fmt.Errorf("%w: %d for %d elements", ErrInvalidThreads, threads, n)
	}
	return nil
}

// Partitions splits [0, n) into the given number of contiguous ranges of
// n/threads elements each. The last partition absorbs the remainder.
func Partitions(n, threads int) ([]Partition, error) {
	if err := ValidateThreads(n, threads); err != nil {
		return nil, err
	}

	size := n / threads
	parts := make([]Partition, threads)
	for i := range parts {
		start := i * size
		end := start + size
		if i == threads-1 {
			end = n
		}
		parts[i] = Partition{
			Start: start,
			End:   end,
		}
	}
	return parts, nil
}
