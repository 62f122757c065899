package parsum

import (
	"encoding/csv"
	"io"

	"github.com/olekukonko/tablewriter"
)

// A MetricsWriter receives benchmark results one row at a time. Render is
// called once after the last row of a table.
type MetricsWriter interface {
	SetHeader(headers []string)
	Append(record []string)
	Render()
}

// A CSVWriter is a MetricsWriter that outputs rows as comma-separated values.
// Write errors are kept and reported by Err.
type CSVWriter struct {
	w   *csv.Writer
	err error
}

// NewCSVWriter creates a CSVWriter that writes to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{
		w: csv.NewWriter(w),
	}
}

func (c *CSVWriter) write(record []string) {
	if c.err == nil {
		c.err = c.w.Write(record)
	}
}

// SetHeader writes the header row.
func (c *CSVWriter) SetHeader(headers []string) {
	c.write(headers)
}

// Append writes a row.
func (c *CSVWriter) Append(record []string) {
	c.write(record)
}

// Render flushes buffered rows to the underlying writer.
func (c *CSVWriter) Render() {
	c.w.Flush()
	if c.err == nil {
		c.err = c.w.Error()
	}
}

// Err returns the first error encountered while writing.
func (c *CSVWriter) Err() error {
	return c.err
}

// NewTableWriter returns an ASCII table writer with left-aligned columns and
// headers kept as written, so counter names such as l1d-read-misses are not
// upper-cased.
func NewTableWriter(w io.Writer) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetAutoFormatHeaders(false)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	return t
}

// NewMetricsWriter returns a CSV writer if csv is set and a table writer
// otherwise.
func NewMetricsWriter(w io.Writer, csv bool) MetricsWriter {
	if csv {
		return NewCSVWriter(w)
	}
	return NewTableWriter(w)
}
