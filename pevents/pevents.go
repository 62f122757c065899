// Package pevents maps perf event names to counters and provides a probe
// that measures those counters on every worker of a reduction.
package pevents

import (
	"fmt"
	"io/ioutil"
	"log"
	"sort"
	"strings"

	"acln.ro/perf"
	"go.uber.org/multierr"
)

var logger = log.New(ioutil.Discard, "", 0)

// SetLogger replaces the package logger.
func SetLogger(l *log.Logger) {
	logger = l
}

var hardwareEvents = map[string]perf.HardwareCounter{
	"instructions":            perf.Instructions,
	"cpu-cycles":              perf.CPUCycles,
	"cache-references":        perf.CacheReferences,
	"cache-misses":            perf.CacheMisses,
	"branch-instructions":     perf.BranchInstructions,
	"branch-misses":           perf.BranchMisses,
	"bus-cycles":              perf.BusCycles,
	"stalled-cycles-frontend": perf.StalledCyclesFrontend,
	"stalled-cycles-backend":  perf.StalledCyclesBackend,
	"ref-cycles":              perf.RefCPUCycles,
}

var softwareEvents = map[string]perf.SoftwareCounter{
	"cpu-clock":        perf.CPUClock,
	"task-clock":       perf.TaskClock,
	"page-faults":      perf.PageFaults,
	"context-switches": perf.ContextSwitches,
	"cpu-migrations":   perf.CPUMigrations,
	"minor-faults":     perf.MinorPageFaults,
	"major-faults":     perf.MajorPageFaults,
	"alignment-faults": perf.AlignmentFaults,
	"emulation-faults": perf.EmulationFaults,
}

const traceDir = "/sys/kernel/debug/tracing"

var caches = map[string]perf.Cache{
	"l1d":  perf.L1D,
	"l1i":  perf.L1I,
	"ll":   perf.LL,
	"dtlb": perf.DTLB,
	"itlb": perf.ITLB,
	"bpu":  perf.BPU,
	"node": perf.NODE,
}

var cacheAccesses = map[string]perf.CacheOp{
	"read":     perf.Read,
	"write":    perf.Write,
	"prefetch": perf.Prefetch,
}

var cacheResults = map[string]perf.CacheOpResult{
	"accesses": perf.Access,
	"misses":   perf.Miss,
}

// cacheEvent is a hardware cache counter named cache-op-result, for example
// l1d-read-misses.
type cacheEvent struct {
	cache  perf.Cache
	op     perf.CacheOp
	result perf.CacheOpResult
	label  string
}

func (e cacheEvent) Configure(attr *perf.Attr) error {
	attr.Type = perf.HardwareCacheEvent
	attr.Config = uint64(e.cache) | uint64(e.op)<<8 | uint64(e.result)<<16
	attr.Label = e.label
	return nil
}

func cacheEvents() map[string]cacheEvent {
	events := make(map[string]cacheEvent, len(caches)*len(cacheAccesses)*len(cacheResults))
	for cn, c := range caches {
		for an, a := range cacheAccesses {
			for rn, r := range cacheResults {
				evn := fmt.Sprintf("%s-%s-%s", cn, an, rn)
				events[evn] = cacheEvent{
					cache:  c,
					op:     a,
					result: r,
					label:  evn,
				}
			}
		}
	}
	return events
}

// A Counter is a named perf event.
type Counter struct {
	Name   string
	Config perf.Configurator
}

// IsAvailable returns true if the given event can be opened on the current
// system with the current permissions.
func IsAvailable(ev perf.Configurator) bool {
	fa := &perf.Attr{}
	if err := ev.Configure(fa); err != nil {
		return false
	}
	p, err := perf.Open(fa, perf.CallingThread, perf.AnyCPU, nil)
	if err != nil {
		return false
	}
	p.Close()
	return true
}

// AvailableHardwareEvents returns the sorted names of the available hardware
// events.
func AvailableHardwareEvents() []string {
	events := make([]string, 0, len(hardwareEvents))
	for evn, ev := range hardwareEvents {
		if IsAvailable(ev) {
			events = append(events, evn)
		}
	}
	sort.Strings(events)
	return events
}

// AvailableSoftwareEvents returns the sorted names of the available software
// events.
func AvailableSoftwareEvents() []string {
	events := make([]string, 0, len(softwareEvents))
	for evn, ev := range softwareEvents {
		if IsAvailable(ev) {
			events = append(events, evn)
		}
	}
	sort.Strings(events)
	return events
}

// AvailableCacheEvents returns the sorted names of the available hardware
// cache events.
func AvailableCacheEvents() []string {
	cevs := cacheEvents()
	events := make([]string, 0, len(cevs))
	for evn, ev := range cevs {
		if IsAvailable(ev) {
			events = append(events, evn)
		}
	}
	sort.Strings(events)
	return events
}

// AvailableTraceEvents returns the tracepoints listed by the kernel, as
// subsystem:event. It returns nil if tracefs is not readable.
func AvailableTraceEvents() []string {
	data, err := ioutil.ReadFile(traceDir + "/available_events")
	if err != nil {
		logger.Printf("trace events: %v", err)
		return nil
	}
	var events []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			events = append(events, line)
		}
	}
	sort.Strings(events)
	return events
}

// Names returns the sorted names of every known hardware, software and cache
// event, available or not. Tracepoints are not included.
func Names() []string {
	cevs := cacheEvents()
	names := make([]string, 0, len(hardwareEvents)+len(softwareEvents)+len(cevs))
	for evn := range hardwareEvents {
		names = append(names, evn)
	}
	for evn := range softwareEvents {
		names = append(names, evn)
	}
	for evn := range cevs {
		names = append(names, evn)
	}
	sort.Strings(names)
	return names
}

// NameToConfig converts the name of an event to a perf configurator. Names
// of the form subsystem:event select a tracepoint.
func NameToConfig(name string) (perf.Configurator, error) {
	if ev, ok := hardwareEvents[name]; ok {
		return ev, nil
	} else if ev, ok := softwareEvents[name]; ok {
		return ev, nil
	} else if ev, ok := cacheEvents()[name]; ok {
		return ev, nil
	} else if strings.Contains(name, ":") {
		parts := strings.SplitN(name, ":", 2)
		subsystem, event := parts[0], parts[1]
		if subsystem == "" || event == "" {
			return nil, fmt.Errorf("invalid tracepoint: %s", name)
		}
		return perf.Tracepoint(subsystem, event), nil
	}
	return nil, fmt.Errorf("not found: event %s", name)
}

// ParseEventList parses a comma-separated list of event names. Unknown names
// are reported together; the known ones are still returned.
func ParseEventList(s string) ([]Counter, error) {
	var counters []Counter
	var errs error
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		config, err := NameToConfig(name)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		counters = append(counters, Counter{
			Name:   name,
			Config: config,
		})
	}
	return counters, errs
}
