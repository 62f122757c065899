package main

import (
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/zyedidia/parsum"
	"github.com/zyedidia/parsum/pevents"
)

func fatal(a ...interface{}) {
	color.New(color.FgRed).Fprintln(os.Stderr, a...)
	os.Exit(1)
}

func must(desc string, err error) {
	if err != nil {
		fatal(desc, ":", err)
	}
}

// summarize writes the aggregated table to path, or to stdout if path is
// empty.
func summarize(total parsum.TotalMetrics, path string) error {
	var out io.WriteCloser = os.Stdout
	if path != "" {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
		if err != nil {
			return err
		}
		out = f
		defer f.Close()
	}

	mw := parsum.NewMetricsWriter(out, opts.Csv)
	if opts.SortKey == "" {
		total.WriteTo(mw)
	} else if err := total.WriteToSorted(mw, opts.SortKey, opts.ReverseSort); err != nil {
		return err
	}
	if cw, ok := mw.(*parsum.CSVWriter); ok {
		return cw.Err()
	}
	return nil
}

func main() {
	flagparser := newParser()
	args, err := flagparser.Parse()
	if err != nil {
		os.Exit(1)
	}

	if opts.Help || len(args) > 0 {
		flagparser.WriteHelp(os.Stdout)
		os.Exit(0)
	}

	if opts.Version {
		v, err := version()
		must("version", err)
		fmt.Println("parsum version", v)
		os.Exit(0)
	}

	if opts.Verbose {
		logger := log.New(os.Stderr, "INFO: ", 0)
		parsum.SetLogger(logger)
		pevents.SetLogger(logger)
	}

	if opts.List != "" {
		events, ok := listEvents(opts.List)
		if !ok {
			fatal("error: invalid event type", opts.List)
		}

		if len(events) == 0 {
			fmt.Println("No events found, do you have the right permissions?")
		}
		for _, e := range events {
			fmt.Printf("[%s event]: %s\n", opts.List, e)
		}
		os.Exit(0)
	}

	cfg, err := config()
	must("config", err)

	data, err := parsum.Generate(opts.Size, opts.Min, opts.Max, seed(flagparser))
	must("generate", err)

	fmt.Println("hardware parallelism:", parsum.HardwareParallelism())

	var out io.Writer = os.Stdout
	if opts.Summary {
		out = ioutil.Discard
	}
	immediate := func() parsum.MetricsWriter {
		return parsum.NewMetricsWriter(out, opts.Csv)
	}

	total, err := parsum.Run(data, cfg, immediate)
	must("run", err)

	if opts.Summary {
		must("summary", summarize(total, opts.Output))
	}
}
