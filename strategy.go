package parsum

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// A Strategy selects how partial sums are combined into the total.
type Strategy int

const (
	// Channel sends each worker's partial sum over a channel and reduces
	// them on the calling goroutine after all workers have finished.
	Channel Strategy = iota
	// Mutex adds each partial sum into a shared total under a lock.
	Mutex
	// Slots dispatches workers with a bounded traversal and stores each
	// partial sum in its own slot.
	Slots
)

var ErrInvalidStrategy = errors.New("invalid strategy")

var strategies = map[string]Strategy{
	"channel": Channel,
	"mutex":   Mutex,
	"slots":   Slots,
}

func (s Strategy) String() string {
	for name, st := range strategies {
		if st == s {
			return name
		}
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

func (s Strategy) valid() bool {
	return s >= Channel && s <= Slots
}

// Strategies returns the names of all strategies in sorted order.
func Strategies() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseStrategy converts a strategy name to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	if s, ok := strategies[strings.ToLower(name)]; ok {
		return s, nil
	}
	return 0, fmt.Errorf("%w: %s (one of %s)", ErrInvalidStrategy, name, strings.Join(Strategies(), ", "))
}
