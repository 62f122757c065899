// Package parsum sums integer sequences over fixed contiguous partitions in
// parallel and benchmarks the reduction under varying thread counts.
package parsum

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/grailbio/base/traverse"
	"go.uber.org/multierr"
)

// A Probe observes each worker of a reduction. Start and Stop are called on
// the worker's goroutine, which is locked to its OS thread for the duration,
// immediately before and after the worker sums its partition.
type Probe interface {
	Start(worker int, p Partition) error
	Stop(worker int, p Partition) error
}

// A ProbeError wraps the errors reported by a probe during a reduction. The
// total returned alongside it is still valid.
type ProbeError struct {
	Err error
}

func (e *ProbeError) Error() string {
	return "probe: " + e.Err.Error()
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// An Option configures a Reducer.
type Option func(r *Reducer)

// WithStrategy sets the strategy used to combine partial sums.
func WithStrategy(s Strategy) Option {
	return func(r *Reducer) {
		r.strategy = s
	}
}

// WithProbe attaches a probe to every worker.
func WithProbe(p Probe) Option {
	return func(r *Reducer) {
		r.probe = p
	}
}

// A Reducer sums a sequence of integers by splitting it into one contiguous
// partition per thread and summing the partitions in parallel.
//
// The reducer borrows the input: it is never copied or modified, and it must
// not be modified while Sum is running. A Reducer may be summed any number of
// times, but not concurrently.
type Reducer struct {
	data     []int32
	parts    []Partition
	strategy Strategy
	probe    Probe

	partials []int64
}

// NewReducer returns a reducer that sums data using the given number of
// threads. It fails if data cannot be split across that many threads.
func NewReducer(data []int32, threads int, opts ...Option) (*Reducer, error) {
	parts, err := Partitions(len(data), threads)
	if err != nil {
		return nil, err
	}
	r := &Reducer{
		data:  data,
		parts: parts,
	}
	for _, o := range opts {
		o(r)
	}
	if !r.strategy.valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStrategy, r.strategy)
	}
	return r, nil
}

// Threads returns the number of workers spawned by each call to Sum.
func (r *Reducer) Threads() int {
	return len(r.parts)
}

// Strategy returns the reducer's combining strategy.
func (r *Reducer) Strategy() Strategy {
	return r.strategy
}

// Partitions returns the ranges assigned to each worker.
func (r *Reducer) Partitions() []Partition {
	parts := make([]Partition, len(r.parts))
	copy(parts, r.parts)
	return parts
}

// Partials returns the per-partition sums computed by the last call to Sum.
func (r *Reducer) Partials() []int64 {
	partials := make([]int64, len(r.partials))
	copy(partials, r.partials)
	return partials
}

// Sum computes the total of the input. It blocks until every worker has
// finished. Errors reported by the probe are returned alongside a valid
// total; any other error means the total is unusable.
func (r *Reducer) Sum() (int64, error) {
	r.partials = make([]int64, len(r.parts))
	probeErrs := make([]error, len(r.parts))

	logger.Printf("sum: %d elements, %d threads, %s", len(r.data), len(r.parts), r.strategy)

	var total int64
	var err error
	switch r.strategy {
	case Mutex:
		total, err = r.sumMutex(probeErrs)
	case Slots:
		total, err = r.sumSlots(probeErrs)
	case Channel:
		total, err = r.sumChannel(probeErrs)
	default:
		err = fmt.Errorf("%w: %s", ErrInvalidStrategy, r.strategy)
	}
	if err != nil {
		return 0, err
	}
	if err := multierr.Combine(probeErrs...); err != nil {
		return total, &ProbeError{Err: err}
	}
	return total, nil
}

func (r *Reducer) work(worker int) (int64, error) {
	p := r.parts[worker]
	if r.probe == nil {
		return sumRange(r.data, p), nil
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	err := r.probe.Start(worker, p)
	sum := sumRange(r.data, p)
	err = multierr.Append(err, r.probe.Stop(worker, p))
	return sum, err
}

type partial struct {
	worker int
	sum    int64
	err    error
}

func (r *Reducer) sumChannel(probeErrs []error) (int64, error) {
	results := make(chan partial, len(r.parts))

	var wg sync.WaitGroup
	for i := range r.parts {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			sum, err := r.work(worker)
			results <- partial{worker, sum, err}
		}(i)
	}
	wg.Wait()
	close(results)

	for p := range results {
		r.partials[p.worker] = p.sum
		probeErrs[p.worker] = p.err
	}
	return r.combine()
}

func (r *Reducer) sumMutex(probeErrs []error) (int64, error) {
	var (
		mu       sync.Mutex
		total    int64
		overflow error
		wg       sync.WaitGroup
	)

	for i := range r.parts {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			sum, err := r.work(worker)
			r.partials[worker] = sum
			probeErrs[worker] = err

			mu.Lock()
			defer mu.Unlock()
			t, err := addChecked(total, sum)
			if err != nil {
				overflow = err
				return
			}
			total = t
		}(i)
	}
	wg.Wait()

	if overflow != nil {
		return 0, overflow
	}
	return total, nil
}

// sumSlots runs at most one invocation per thread at a time. Each partition
// is still summed by exactly one invocation.
func (r *Reducer) sumSlots(probeErrs []error) (int64, error) {
	err := traverse.Limit(len(r.parts)).Each(len(r.parts), func(worker int) error {
		sum, err := r.work(worker)
		r.partials[worker] = sum
		probeErrs[worker] = err
		return nil
	})
	if err != nil {
		return 0, err
	}
	return r.combine()
}

func (r *Reducer) combine() (int64, error) {
	var total int64
	for _, s := range r.partials {
		var err error
		if total, err = addChecked(total, s); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// Sum is a convenience wrapper that sums data with the given number of
// threads using the default strategy.
func Sum(data []int32, threads int) (int64, error) {
	r, err := NewReducer(data, threads)
	if err != nil {
		return 0, err
	}
	return r.Sum()
}
