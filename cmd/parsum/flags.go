package main

import (
	"strings"
	"time"

	"acln.ro/perf"
	"github.com/blang/semver"
	"github.com/jessevdk/go-flags"
	"github.com/zyedidia/parsum"
	"github.com/zyedidia/parsum/pevents"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "0.1.0"

type options struct {
	Size        int    `short:"n" long:"size" default:"10000000" description:"Number of values to generate and sum"`
	Min         int32  `long:"min" default:"1" description:"Smallest generated value"`
	Max         int32  `long:"max" default:"10" description:"Largest generated value"`
	Seed        int64  `long:"seed" description:"Random seed (default: the current time)"`
	Threads     []int  `short:"t" long:"threads" default:"1" default:"4" default:"8" default:"10" description:"Thread count to benchmark (may be repeated)"`
	Strategy    string `long:"strategy" default:"channel" description:"How partial sums are combined: {channel, mutex, slots}"`
	Repeat      int    `short:"r" long:"repeat" default:"1" description:"Trials per thread count; the fastest is reported"`
	Events      string `short:"e" long:"events" description:"Comma-separated list of perf events to count on each worker"`
	List        string `short:"l" long:"list" description:"List available events for {hardware, software, cache, trace} event types"`
	Kernel      bool   `long:"kernel" description:"Include kernel code in event counts"`
	Hypervisor  bool   `long:"hypervisor" description:"Include hypervisor code in event counts"`
	Summary     bool   `short:"s" long:"summary" description:"Instead of printing each trial immediately, show an aggregated summary afterwards"`
	SortKey     string `long:"sort-key" description:"Key to sort the summary table with: {threads, sum, time-elapsed, speedup} or an event name"`
	ReverseSort bool   `long:"reverse-sort" description:"Reverse summary table sorting"`
	Csv         bool   `long:"csv" description:"Write output in CSV format"`
	Output      string `short:"o" long:"output" description:"Write summary output to file"`
	Verbose     bool   `short:"V" long:"verbose" description:"Show verbose debug information"`
	Version     bool   `short:"v" long:"version" description:"Show version information"`
	Help        bool   `short:"h" long:"help" description:"Show this help message"`
}

var opts options

func newParser() *flags.Parser {
	p := flags.NewParser(&opts, flags.PassDoubleDash|flags.PrintErrors)
	p.Usage = "[OPTIONS]"
	return p
}

// seed returns the --seed value if it was given and the current time
// otherwise, so that 0 remains a usable seed.
func seed(p *flags.Parser) int64 {
	if o := p.FindOptionByLongName("seed"); o != nil && o.IsSet() {
		return opts.Seed
	}
	return time.Now().UnixNano()
}

// config builds the benchmark configuration from the parsed options and
// validates it against the input size.
func config() (parsum.Config, error) {
	strategy, err := parsum.ParseStrategy(opts.Strategy)
	if err != nil {
		return parsum.Config{}, err
	}

	cfg := parsum.Config{
		Threads:  opts.Threads,
		Strategy: strategy,
		Repeat:   opts.Repeat,
	}

	counters, err := ParseEventList(opts.Events)
	if err != nil {
		return parsum.Config{}, err
	}
	if len(counters) > 0 {
		cfg.Probe = pevents.NewProbe(counters, perf.Options{
			ExcludeKernel:     !opts.Kernel,
			ExcludeHypervisor: !opts.Hypervisor,
		})
	}
	return cfg, cfg.Validate(opts.Size)
}

// listEvents returns the available events of the given type.
func listEvents(kind string) ([]string, bool) {
	switch kind {
	case "hardware":
		return pevents.AvailableHardwareEvents(), true
	case "software":
		return pevents.AvailableSoftwareEvents(), true
	case "cache":
		return pevents.AvailableCacheEvents(), true
	case "trace":
		return pevents.AvailableTraceEvents(), true
	}
	return nil, false
}

// version returns the build version in canonical semver form.
func version() (string, error) {
	v, err := semver.Parse(strings.TrimPrefix(Version, "v"))
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// ParseEventList parses the --events flag.
func ParseEventList(s string) ([]pevents.Counter, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return pevents.ParseEventList(s)
}
