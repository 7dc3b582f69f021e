package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parbench/internal/runner"
	"parbench/internal/store"
	"parbench/internal/timing"
)

// mockInvoker replays canned per-thread-count durations instead of
// launching a real process.
type mockInvoker struct {
	durations map[int][]float64 // nthreads -> duration per repetition
	calls     map[int]int
	specs     []runner.Spec
}

func (m *mockInvoker) Run(ctx context.Context, spec runner.Spec) (runner.Result, error) {
	m.specs = append(m.specs, spec)
	nthreads, err := strconv.Atoi(spec.Args[0])
	if err != nil {
		return runner.Result{}, err
	}
	if m.calls == nil {
		m.calls = make(map[int]int)
	}
	seq, ok := m.durations[nthreads]
	if !ok {
		return runner.Result{}, &runner.RunError{Path: spec.Path, ExitCode: 1, Stderr: "boom"}
	}
	idx := m.calls[nthreads]
	m.calls[nthreads]++
	return runner.Result{
		Stderr: fmt.Sprintf("Generated points\nTIME_SECONDS=%f\n", seq[idx]),
	}, nil
}

type mockStore struct {
	saved  []timing.Trial
	labels []string
	latest *store.BatchRun
	runs   []store.BatchRun
}

func (m *mockStore) Close() error { return nil }

func (m *mockStore) SaveBatch(label string, trials []timing.Trial) (int64, error) {
	m.labels = append(m.labels, label)
	m.saved = append(m.saved, trials...)
	return int64(len(m.labels)), nil
}

func (m *mockStore) LoadLatest() (*store.BatchRun, error) { return m.latest, nil }

func (m *mockStore) List(limit int) ([]store.BatchRun, error) {
	if limit < len(m.runs) {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

func restoreFactories() {
	newInvokerFunc = func() runner.Invoker { return runner.ExecInvoker{} }
	newStoreFunc = func(path string) (store.Store, error) { return store.NewSQLiteStore(path) }
}

func runMandelbrot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newMandelbrotCmd()
	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestMandelbrotCmd(t *testing.T) {
	defer restoreFactories()

	mockI := &mockInvoker{durations: map[int][]float64{
		1: {10.0, 10.0},
		2: {6.0, 5.0},
		4: {3.0, 3.0},
	}}
	mockS := &mockStore{}
	newInvokerFunc = func() runner.Invoker { return mockI }
	newStoreFunc = func(path string) (store.Store, error) { return mockS, nil }

	outDir := t.TempDir()
	output, _, err := runMandelbrot(t,
		"--exe", "mb.exe", "--threads", "1,2,4", "--npoints", "100", "--runs", "2",
		"--out", outDir, "--save", "--compare=false")
	require.NoError(t, err)

	assert.Contains(t, output, "NTHREADS")
	assert.Contains(t, output, "10.000000")
	assert.Contains(t, output, "5.500000")
	assert.Contains(t, output, "Batch saved to history (run 1)")

	// Both CSV files land in the output directory.
	timings, err := os.ReadFile(filepath.Join(outDir, "timings_task1.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(timings), "nthreads,npoints,run_index,time")
	metrics, err := os.ReadFile(filepath.Join(outDir, "metrics_task1.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "nthreads,npoints,mean_time,acceleration,efficiency")

	// Each configuration is invoked runs times.
	assert.Len(t, mockI.specs, 6)
	assert.Equal(t, []string{"1", "100"}, mockI.specs[0].Args)

	// All raw trials are persisted under a descriptive label.
	assert.Len(t, mockS.saved, 6)
	require.Len(t, mockS.labels, 1)
	assert.Equal(t, "npoints=100 runs=2", mockS.labels[0])
}

func TestMandelbrotCmd_ExplicitZeroFlagIsNotDefaulted(t *testing.T) {
	defer restoreFactories()

	mockI := &mockInvoker{durations: map[int][]float64{1: {10.0}}}
	newInvokerFunc = func() runner.Invoker { return mockI }
	newStoreFunc = func(path string) (store.Store, error) { return &mockStore{}, nil }

	// --npoints 0 is a deliberate choice, not an unset flag, and must
	// not revert to the configured default.
	_, _, err := runMandelbrot(t,
		"--exe", "mb.exe", "--threads", "1", "--npoints", "0", "--runs", "1",
		"--out", t.TempDir(), "--compare=false")
	require.NoError(t, err)

	require.Len(t, mockI.specs, 1)
	assert.Equal(t, []string{"1", "0"}, mockI.specs[0].Args)
}

func TestMandelbrotCmd_Compare(t *testing.T) {
	defer restoreFactories()

	mockI := &mockInvoker{durations: map[int][]float64{
		1: {9.0},
		2: {5.0},
	}}
	mockS := &mockStore{latest: &store.BatchRun{
		ID:    7,
		Label: "npoints=100 runs=1",
		Trials: []timing.Trial{
			{Key: 1, Size: 100, Index: 1, Seconds: 10.0},
			{Key: 2, Size: 100, Index: 1, Seconds: 5.0},
		},
	}}
	newInvokerFunc = func() runner.Invoker { return mockI }
	newStoreFunc = func(path string) (store.Store, error) { return mockS, nil }

	output, _, err := runMandelbrot(t,
		"--exe", "mb.exe", "--threads", "1,2", "--npoints", "100", "--runs", "1",
		"--out", t.TempDir())
	require.NoError(t, err)

	assert.Contains(t, output, "Comparison with previous batch (npoints=100 runs=1, run 7)")
	assert.Contains(t, output, "-10.00%")
	assert.Contains(t, output, "+0.00%")
}

func TestMandelbrotCmd_BaselineFallback(t *testing.T) {
	defer restoreFactories()

	mockI := &mockInvoker{durations: map[int][]float64{
		2: {8.0},
		4: {4.0},
	}}
	newInvokerFunc = func() runner.Invoker { return mockI }
	newStoreFunc = func(path string) (store.Store, error) { return &mockStore{}, nil }

	output, _, err := runMandelbrot(t,
		"--exe", "mb.exe", "--threads", "2,4", "--npoints", "100", "--runs", "1",
		"--out", t.TempDir(), "--compare=false")
	require.NoError(t, err)

	assert.Contains(t, output, "No nthreads=1 in timings, using nthreads=2 as baseline")
}

func TestMandelbrotCmd_RunFailureAborts(t *testing.T) {
	defer restoreFactories()

	// No canned durations for nthreads=2: the second configuration fails.
	mockI := &mockInvoker{durations: map[int][]float64{
		1: {10.0},
	}}
	newInvokerFunc = func() runner.Invoker { return mockI }
	newStoreFunc = func(path string) (store.Store, error) { return &mockStore{}, nil }

	outDir := t.TempDir()
	_, _, err := runMandelbrot(t,
		"--exe", "mb.exe", "--threads", "1,2", "--npoints", "100", "--runs", "1",
		"--out", outDir, "--compare=false")
	require.Error(t, err)

	var runErr *runner.RunError
	assert.ErrorAs(t, err, &runErr)

	// An aborted batch leaves no partial CSV behind.
	_, statErr := os.Stat(filepath.Join(outDir, "timings_task1.csv"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestMandelbrotCmd_StoreUnavailable(t *testing.T) {
	defer restoreFactories()

	mockI := &mockInvoker{durations: map[int][]float64{1: {10.0}}}
	newInvokerFunc = func() runner.Invoker { return mockI }
	newStoreFunc = func(path string) (store.Store, error) {
		return nil, fmt.Errorf("locked")
	}

	// History problems degrade to a warning, not a failed batch.
	output, errOut, err := runMandelbrot(t,
		"--exe", "mb.exe", "--threads", "1", "--npoints", "100", "--runs", "1",
		"--out", t.TempDir(), "--save")
	require.NoError(t, err)
	assert.Contains(t, output, "NTHREADS")
	assert.Contains(t, errOut, "history unavailable")
}
