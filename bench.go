package parsum

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// DefaultThreads are the thread counts benchmarked when none are given.
var DefaultThreads = []int{1, 4, 8, 10}

var (
	ErrNoThreads = errors.New("no thread counts given")
	ErrMismatch  = errors.New("sum mismatch between trials")
)

// A CounterProbe is a Probe that aggregates counters over all workers of a
// trial.
type CounterProbe interface {
	Probe
	// Reset clears the counters before a trial.
	Reset()
	// Results returns the counters collected since the last Reset.
	Results() []Result
}

// Config describes a benchmark run.
type Config struct {
	// Threads are the thread counts to benchmark, in order.
	Threads  []int
	Strategy Strategy
	// Repeat is the number of trials per thread count; the fastest is
	// kept. Values below 1 mean a single trial.
	Repeat int
	// Probe, if not nil, collects per-worker counters for every trial.
	Probe CounterProbe
}

// Validate checks the configuration against an input of n elements and
// reports every problem found.
func (c Config) Validate(n int) error {
	var err error
	if len(c.Threads) == 0 {
		err = multierr.Append(err, ErrNoThreads)
	}
	for _, threads := range c.Threads {
		err = multierr.Append(err, ValidateThreads(n, threads))
	}
	return err
}

// Run benchmarks the reduction of data under each configured thread count.
// If immediate is not nil, each trial is written to the writer it returns as
// soon as it completes. Every trial must produce the same sum.
func Run(data []int32, cfg Config, immediate func() MetricsWriter) (TotalMetrics, error) {
	if err := cfg.Validate(len(data)); err != nil {
		return nil, err
	}

	repeat := cfg.Repeat
	if repeat < 1 {
		repeat = 1
	}

	var total TotalMetrics
	for _, threads := range cfg.Threads {
		var best NamedMetrics
		for i := 0; i < repeat; i++ {
			nm, err := runTrial(data, threads, cfg)
			if err != nil {
				return total, err
			}
			if len(total) > 0 && nm.Sum != total[0].Sum {
				return total, fmt.Errorf("%w: %d threads gave %d, %d threads gave %d",
					ErrMismatch, total[0].Threads, total[0].Sum, threads, nm.Sum)
			}
			if i > 0 && nm.Sum != best.Sum {
				return total, fmt.Errorf("%w: repeated %d-thread trials gave %d and %d",
					ErrMismatch, threads, best.Sum, nm.Sum)
			}
			if i == 0 || nm.Elapsed < best.Elapsed {
				best = nm
			}
		}

		logger.Printf("threads=%d sum=%d elapsed=%s", threads, best.Sum, best.Elapsed)
		if immediate != nil {
			if w := immediate(); w != nil {
				best.WriteTo(w)
			}
		}
		total = append(total, best)
	}
	return total, nil
}

func runTrial(data []int32, threads int, cfg Config) (NamedMetrics, error) {
	opts := []Option{WithStrategy(cfg.Strategy)}
	if cfg.Probe != nil {
		cfg.Probe.Reset()
		opts = append(opts, WithProbe(cfg.Probe))
	}

	r, err := NewReducer(data, threads, opts...)
	if err != nil {
		return NamedMetrics{}, err
	}

	start := time.Now()
	sum, err := r.Sum()
	elapsed := time.Since(start)

	var perr *ProbeError
	if errors.As(err, &perr) {
		logger.Println(perr)
	} else if err != nil {
		return NamedMetrics{}, err
	}

	nm := NamedMetrics{
		Trial: Trial{
			Threads:  threads,
			Strategy: cfg.Strategy,
			Sum:      sum,
		},
		Metrics: Metrics{
			Elapsed: elapsed,
		},
	}
	if cfg.Probe != nil {
		nm.Results = cfg.Probe.Results()
	}
	return nm, nil
}
