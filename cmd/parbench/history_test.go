package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parbench/internal/store"
)

func runHistory(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newHistoryCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestHistoryCmd(t *testing.T) {
	defer restoreFactories()

	saved := time.Date(2026, 8, 25, 14, 30, 0, 0, time.UTC)
	mockS := &mockStore{runs: []store.BatchRun{
		{ID: 2, Label: "npoints=5000 runs=10", CreatedAt: saved, TrialCount: 50},
		{ID: 1, Label: "npoints=100 runs=2", CreatedAt: saved.Add(-time.Hour), TrialCount: 6},
	}}
	newStoreFunc = func(path string) (store.Store, error) { return mockS, nil }

	output, err := runHistory(t)
	require.NoError(t, err)

	assert.Contains(t, output, "RUN")
	assert.Contains(t, output, "npoints=5000 runs=10")
	assert.Contains(t, output, "2026-08-25 14:30:00")
	assert.Contains(t, output, "50")
}

func TestHistoryCmd_Empty(t *testing.T) {
	defer restoreFactories()

	newStoreFunc = func(path string) (store.Store, error) { return &mockStore{}, nil }

	output, err := runHistory(t)
	require.NoError(t, err)
	assert.Contains(t, output, "No saved batches.")
}

func TestHistoryCmd_Limit(t *testing.T) {
	defer restoreFactories()

	mockS := &mockStore{runs: []store.BatchRun{
		{ID: 3, Label: "third"},
		{ID: 2, Label: "second"},
		{ID: 1, Label: "first"},
	}}
	newStoreFunc = func(path string) (store.Store, error) { return mockS, nil }

	output, err := runHistory(t, "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, output, "third")
	assert.NotContains(t, output, "second")
}
