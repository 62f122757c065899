package pevents

import (
	"fmt"
	"sync"

	"acln.ro/perf"
	"github.com/zyedidia/parsum"
	"go.uber.org/multierr"
)

// A Probe counts perf events on each worker thread of a reduction and sums
// the counts over all workers. It implements parsum.CounterProbe.
//
// Counters that cannot be opened (usually for lack of permissions, see
// /proc/sys/kernel/perf_event_paranoid) are reported as errors from Start and
// contribute zero to the results.
type Probe struct {
	counters []Counter
	opts     perf.Options

	mu     sync.Mutex
	open   map[int][]*perf.Event
	totals []uint64
}

// NewProbe returns a probe measuring the given counters with the given perf
// options.
func NewProbe(counters []Counter, opts perf.Options) *Probe {
	return &Probe{
		counters: counters,
		opts:     opts,
		open:     make(map[int][]*perf.Event),
		totals:   make([]uint64, len(counters)),
	}
}

func (p *Probe) attr(c Counter) (*perf.Attr, error) {
	fa := &perf.Attr{
		CountFormat: perf.CountFormat{
			Enabled: true,
			Running: true,
		},
		Options: p.opts,
	}
	fa.Options.Disabled = true
	if err := c.Config.Configure(fa); err != nil {
		return nil, err
	}
	return fa, nil
}

// Start opens and enables every counter on the calling thread.
func (p *Probe) Start(worker int, part parsum.Partition) error {
	events := make([]*perf.Event, len(p.counters))
	var errs error
	for i, c := range p.counters {
		fa, err := p.attr(c)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", c.Name, err))
			continue
		}
		ev, err := perf.Open(fa, perf.CallingThread, perf.AnyCPU, nil)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("perf-open %s: %w", c.Name, err))
			continue
		}
		events[i] = ev
	}

	p.mu.Lock()
	p.open[worker] = events
	p.mu.Unlock()

	for i, ev := range events {
		if ev == nil {
			continue
		}
		if err := ev.Enable(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("enable %s: %w", p.counters[i].Name, err))
		}
	}
	logger.Printf("worker %d %s: counters started", worker, part)
	return errs
}

// Stop disables, reads and closes the counters opened by Start.
func (p *Probe) Stop(worker int, part parsum.Partition) error {
	p.mu.Lock()
	events := p.open[worker]
	delete(p.open, worker)
	p.mu.Unlock()

	counts := make([]uint64, len(events))
	var errs error
	for i, ev := range events {
		if ev == nil {
			continue
		}
		errs = multierr.Append(errs, ev.Disable())
		c, err := ev.ReadCount()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("read %s: %w", p.counters[i].Name, err))
		} else {
			counts[i] = p.count(worker, part, i, c)
		}
		errs = multierr.Append(errs, ev.Close())
	}

	p.mu.Lock()
	for i, v := range counts {
		p.totals[i] += v
	}
	p.mu.Unlock()

	logger.Printf("worker %d %s: %v", worker, part, counts)
	return errs
}

// count returns the value of counter i. Counts from multiplexed counters
// are not scaled, only logged.
func (p *Probe) count(worker int, part parsum.Partition, i int, c perf.Count) uint64 {
	if c.Running < c.Enabled {
		logger.Printf("worker %d %s: %s multiplexed, running %s of %s enabled",
			worker, part, p.counters[i].Name, c.Running, c.Enabled)
	}
	return c.Value
}

// Reset zeroes the accumulated counts.
func (p *Probe) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.totals {
		p.totals[i] = 0
	}
}

// Results returns the counts accumulated since the last Reset.
func (p *Probe) Results() []parsum.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	results := make([]parsum.Result, len(p.counters))
	for i, c := range p.counters {
		results[i] = parsum.Result{
			Label: c.Name,
			Value: p.totals[i],
		}
	}
	return results
}
