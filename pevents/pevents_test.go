package pevents

import (
	"bytes"
	"io/ioutil"
	"log"
	"testing"
	"time"

	"acln.ro/perf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zyedidia/parsum"
	"go.uber.org/multierr"
)

// Counting requires permission to use perf from user code (see the perf
// paranoid setting). Tests that need it are skipped otherwise.
// Try: `sudo sh -c 'echo 0 >/proc/sys/kernel/perf_event_paranoid'`

func TestNameToConfig(t *testing.T) {
	c, err := NameToConfig("instructions")
	require.NoError(t, err)
	assert.Equal(t, perf.Instructions, c)

	c, err = NameToConfig("task-clock")
	require.NoError(t, err)
	assert.Equal(t, perf.TaskClock, c)

	c, err = NameToConfig("l1d-read-misses")
	require.NoError(t, err)
	fa := &perf.Attr{}
	require.NoError(t, c.Configure(fa))
	assert.Equal(t, perf.HardwareCacheEvent, fa.Type)
	assert.Equal(t, uint64(perf.L1D)|uint64(perf.Read)<<8|uint64(perf.Miss)<<16, fa.Config)
	assert.Equal(t, "l1d-read-misses", fa.Label)

	c, err = NameToConfig("ll-prefetch-accesses")
	require.NoError(t, err)
	fa = &perf.Attr{}
	require.NoError(t, c.Configure(fa))
	assert.Equal(t, uint64(perf.LL)|uint64(perf.Prefetch)<<8|uint64(perf.Access)<<16, fa.Config)

	c, err = NameToConfig("sched:sched_switch")
	require.NoError(t, err)
	assert.NotNil(t, c)

	_, err = NameToConfig("sched:")
	assert.Error(t, err)

	_, err = NameToConfig("flops")
	assert.EqualError(t, err, "not found: event flops")
}

func TestParseEventList(t *testing.T) {
	counters, err := ParseEventList("instructions, branch-misses,,task-clock")
	require.NoError(t, err)
	require.Len(t, counters, 3)
	assert.Equal(t, "instructions", counters[0].Name)
	assert.Equal(t, "branch-misses", counters[1].Name)
	assert.Equal(t, "task-clock", counters[2].Name)

	counters, err = ParseEventList("foo,cpu-cycles,bar")
	assert.Len(t, counters, 1)
	assert.Len(t, multierr.Errors(err), 2)
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Len(t, names, len(hardwareEvents)+len(softwareEvents)+len(caches)*len(cacheAccesses)*len(cacheResults))
	assert.Contains(t, names, "dtlb-write-misses")
	assert.Contains(t, names, "cache-misses")
	assert.Contains(t, names, "context-switches")
}

func TestCountMultiplexed(t *testing.T) {
	buf := &bytes.Buffer{}
	SetLogger(log.New(buf, "", 0))
	defer SetLogger(log.New(ioutil.Discard, "", 0))

	probe := NewProbe([]Counter{{Name: "cache-misses", Config: perf.CacheMisses}}, perf.Options{})
	part := parsum.Partition{Start: 0, End: 10}

	v := probe.count(0, part, 0, perf.Count{Value: 7, Enabled: time.Second, Running: time.Second})
	assert.Equal(t, uint64(7), v)
	assert.Empty(t, buf.String())

	v = probe.count(3, part, 0, perf.Count{Value: 9, Enabled: time.Second, Running: 250 * time.Millisecond})
	assert.Equal(t, uint64(9), v)
	assert.Equal(t, "worker 3 [0,10): cache-misses multiplexed, running 250ms of 1s enabled\n", buf.String())
}

func TestProbe(t *testing.T) {
	if !IsAvailable(perf.TaskClock) {
		t.Skip("perf events unavailable")
	}

	probe := NewProbe([]Counter{{Name: "task-clock", Config: perf.TaskClock}}, perf.Options{
		ExcludeKernel:     true,
		ExcludeHypervisor: true,
	})

	data := parsum.Sequence(1000000)
	r, err := parsum.NewReducer(data, 4, parsum.WithProbe(probe))
	require.NoError(t, err)

	sum, err := r.Sum()
	require.NoError(t, err)
	assert.Equal(t, int64(1000000)*1000001/2, sum)

	results := probe.Results()
	require.Len(t, results, 1)
	assert.Equal(t, "task-clock", results[0].Label)
	assert.True(t, results[0].Value > 0)

	probe.Reset()
	assert.Equal(t, uint64(0), probe.Results()[0].Value)
}

func TestProbeBench(t *testing.T) {
	if !IsAvailable(perf.TaskClock) {
		t.Skip("perf events unavailable")
	}

	counters, err := ParseEventList("task-clock,context-switches")
	require.NoError(t, err)
	cfg := parsum.Config{
		Threads: []int{1, 2},
		Probe:   NewProbe(counters, perf.Options{ExcludeHypervisor: true}),
	}

	total, err := parsum.Run(parsum.Sequence(10000), cfg, nil)
	require.NoError(t, err)
	for _, nm := range total {
		_, ok := nm.Result("context-switches")
		assert.True(t, ok)
	}
}
