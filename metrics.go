package parsum

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Keys accepted by WriteToSorted in addition to counter labels.
const (
	KeyThreads = "threads"
	KeySum     = "sum"
	KeyElapsed = "time-elapsed"
	KeySpeedup = "speedup"
)

// A Result is a single labelled counter value.
type Result struct {
	Label string
	Value uint64
}

// Metrics are the measurements taken during one trial.
type Metrics struct {
	Results []Result
	Elapsed time.Duration
}

// Result returns the value of the counter with the given label.
func (m Metrics) Result(label string) (uint64, bool) {
	for _, r := range m.Results {
		if r.Label == label {
			return r.Value, true
		}
	}
	return 0, false
}

// A Trial identifies one reduction run and its outcome.
type Trial struct {
	Threads  int
	Strategy Strategy
	Sum      int64
}

// NamedMetrics are the metrics of one trial.
type NamedMetrics struct {
	Trial
	Metrics
}

// WriteTo writes the trial as a two-column table.
func (nm NamedMetrics) WriteTo(w MetricsWriter) {
	w.SetHeader([]string{"metric", "value"})
	w.Append([]string{KeyThreads, strconv.Itoa(nm.Threads)})
	w.Append([]string{"strategy", nm.Strategy.String()})
	w.Append([]string{KeySum, strconv.FormatInt(nm.Sum, 10)})
	for _, r := range nm.Results {
		w.Append([]string{r.Label, strconv.FormatUint(r.Value, 10)})
	}
	w.Append([]string{KeyElapsed, nm.Elapsed.String()})
	w.Render()
}

// TotalMetrics are the metrics of every trial in a benchmark, in the order
// they were run.
type TotalMetrics []NamedMetrics

// baseline is the elapsed time speedups are measured against: the
// single-threaded trial if there is one, otherwise the first trial.
func (t TotalMetrics) baseline() time.Duration {
	for _, nm := range t {
		if nm.Threads == 1 {
			return nm.Elapsed
		}
	}
	if len(t) > 0 {
		return t[0].Elapsed
	}
	return 0
}

// Speedup returns the baseline elapsed time divided by the elapsed time of
// trial i.
func (t TotalMetrics) Speedup(i int) float64 {
	base := t.baseline()
	if t[i].Elapsed <= 0 || base <= 0 {
		return 0
	}
	return float64(base) / float64(t[i].Elapsed)
}

func (t TotalMetrics) labels() []string {
	if len(t) == 0 {
		return nil
	}
	labels := make([]string, 0, len(t[0].Results))
	for _, r := range t[0].Results {
		labels = append(labels, r.Label)
	}
	return labels
}

// WriteTo writes one row per trial in run order.
func (t TotalMetrics) WriteTo(w MetricsWriter) {
	order := make([]int, len(t))
	for i := range order {
		order[i] = i
	}
	t.write(w, order)
}

// WriteToSorted writes one row per trial ordered by key, largest first
// (smallest first if reverse is set). The key is one of threads, sum,
// time-elapsed, speedup or a counter label.
func (t TotalMetrics) WriteToSorted(w MetricsWriter, key string, reverse bool) error {
	value, err := t.sortValue(key)
	if err != nil {
		return err
	}

	order := make([]int, len(t))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		vi, vj := value(order[i]), value(order[j])
		if reverse {
			return vi < vj
		}
		return vi > vj
	})
	t.write(w, order)
	return nil
}

func (t TotalMetrics) sortValue(key string) (func(i int) float64, error) {
	switch key {
	case KeyThreads:
		return func(i int) float64 { return float64(t[i].Threads) }, nil
	case KeySum:
		return func(i int) float64 { return float64(t[i].Sum) }, nil
	case KeyElapsed:
		return func(i int) float64 { return float64(t[i].Elapsed) }, nil
	case KeySpeedup:
		return t.Speedup, nil
	}
	for _, label := range t.labels() {
		if label == key {
			return func(i int) float64 {
				v, _ := t[i].Result(key)
				return float64(v)
			}, nil
		}
	}
	return nil, fmt.Errorf("not found: sort key %s", key)
}

func (t TotalMetrics) write(w MetricsWriter, order []int) {
	labels := t.labels()

	header := []string{KeyThreads, "strategy", KeySum}
	header = append(header, labels...)
	header = append(header, KeyElapsed, KeySpeedup)
	w.SetHeader(header)

	for _, i := range order {
		nm := t[i]
		row := []string{
			strconv.Itoa(nm.Threads),
			nm.Strategy.String(),
			strconv.FormatInt(nm.Sum, 10),
		}
		for _, label := range labels {
			v, _ := nm.Result(label)
			row = append(row, strconv.FormatUint(v, 10))
		}
		row = append(row, nm.Elapsed.String(), fmt.Sprintf("%.2fx", t.Speedup(i)))
		w.Append(row)
	}
	w.Render()
}
