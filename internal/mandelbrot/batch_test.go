package mandelbrot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parbench/internal/runner"
)

// stubInvoker replays canned per-thread-count durations on stderr, the
// way the real sampler reports them.
type stubInvoker struct {
	durations map[int][]float64 // nthreads -> one duration per repetition
	calls     map[int]int
	fail      map[int]bool
	silent    bool
}

func (s *stubInvoker) Run(ctx context.Context, spec runner.Spec) (runner.Result, error) {
	nthreads, err := strconv.Atoi(spec.Args[0])
	if err != nil {
		return runner.Result{}, err
	}
	if s.fail[nthreads] {
		return runner.Result{ExitCode: 1, Stderr: "simulated crash"},
			&runner.RunError{Path: spec.Path, ExitCode: 1, Stderr: "simulated crash"}
	}
	if s.silent {
		return runner.Result{Stderr: "no metrics today\n"}, nil
	}
	if s.calls == nil {
		s.calls = make(map[int]int)
	}
	i := s.calls[nthreads]
	s.calls[nthreads]++
	return runner.Result{
		Stderr: fmt.Sprintf("starting up\nTIME_SECONDS=%f\n", s.durations[nthreads][i]),
	}, nil
}

func newTestBatch(t *testing.T, inv runner.Invoker) (*Batch, string, string) {
	t.Helper()
	dir := t.TempDir()
	batch := &Batch{
		Exe:     "mandelbrot.exe",
		Threads: []int{1, 2, 4},
		Npoints: 100,
		Runs:    2,
		Invoker: inv,
	}
	return batch, filepath.Join(dir, "timings.csv"), filepath.Join(dir, "metrics.csv")
}

func TestBatchRun_EndToEnd(t *testing.T) {
	inv := &stubInvoker{durations: map[int][]float64{
		1: {10, 10},
		2: {6, 5},
		4: {3, 3},
	}}
	batch, timingsCSV, metricsCSV := newTestBatch(t, inv)

	rep, err := batch.Run(context.Background(), timingsCSV, metricsCSV)
	require.NoError(t, err)

	require.Len(t, rep.Aggregates, 3)
	assert.Equal(t, 10.0, rep.Aggregates[0].MeanSeconds)
	assert.Equal(t, 5.5, rep.Aggregates[1].MeanSeconds)
	assert.Equal(t, 3.0, rep.Aggregates[2].MeanSeconds)

	require.Len(t, rep.Metrics, 3)
	assert.InDelta(t, 1.0, rep.Metrics[0].Speedup, 0.001)
	assert.InDelta(t, 1.818, rep.Metrics[1].Speedup, 0.001)
	assert.InDelta(t, 3.333, rep.Metrics[2].Speedup, 0.001)
	assert.InDelta(t, 1.0, rep.Metrics[0].Efficiency, 0.001)
	assert.InDelta(t, 0.909, rep.Metrics[1].Efficiency, 0.001)
	assert.InDelta(t, 0.833, rep.Metrics[2].Efficiency, 0.001)

	assert.Equal(t, 1, rep.Baseline.Key)
	assert.False(t, rep.Baseline.Fallback)

	timings, err := os.ReadFile(timingsCSV)
	require.NoError(t, err)
	assert.Equal(t,
		"nthreads,npoints,run_index,time\n"+
			"1,100,1,10.000000\n"+
			"1,100,2,10.000000\n"+
			"2,100,1,6.000000\n"+
			"2,100,2,5.000000\n"+
			"4,100,1,3.000000\n"+
			"4,100,2,3.000000\n",
		string(timings))

	metrics, err := os.ReadFile(metricsCSV)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "nthreads,npoints,mean_time,acceleration,efficiency\n")
	assert.Contains(t, string(metrics), "2,100,5.500000,1.818182,0.909091\n")
}

func TestBatchRun_AbortsOnFirstFailure(t *testing.T) {
	inv := &stubInvoker{
		durations: map[int][]float64{1: {10, 10}},
		fail:      map[int]bool{2: true},
	}
	batch, timingsCSV, metricsCSV := newTestBatch(t, inv)

	_, err := batch.Run(context.Background(), timingsCSV, metricsCSV)

	var runErr *runner.RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, 1, runErr.ExitCode)

	// The batch aborted before writing anything.
	_, statErr := os.Stat(timingsCSV)
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(metricsCSV)
	assert.True(t, os.IsNotExist(statErr))
}

func TestBatchRun_MissingMetricIsFatal(t *testing.T) {
	inv := &stubInvoker{silent: true}
	batch, timingsCSV, metricsCSV := newTestBatch(t, inv)

	_, err := batch.Run(context.Background(), timingsCSV, metricsCSV)
	assert.Error(t, err)

	_, statErr := os.Stat(metricsCSV)
	assert.True(t, os.IsNotExist(statErr))
}
