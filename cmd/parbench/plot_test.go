package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runPlot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newPlotCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPlotCmd(t *testing.T) {
	dir := t.TempDir()

	metricsCSV := filepath.Join(dir, "metrics_task1.csv")
	require.NoError(t, os.WriteFile(metricsCSV, []byte(`nthreads,npoints,mean_time,acceleration,efficiency
1,5000,10.000000,1.000000,1.000000
2,5000,5.500000,1.818182,0.909091
4,5000,3.000000,3.333333,0.833333
`), 0644))

	pointsCSV := filepath.Join(dir, "points_task1.csv")
	require.NoError(t, os.WriteFile(pointsCSV, []byte(`x,y
-0.5,0.25
0.1,-0.3
-1.2,0.8
`), 0644))

	outDir := filepath.Join(dir, "charts")
	output, err := runPlot(t, "--metrics", metricsCSV, "--points", pointsCSV, "--out", outDir)
	require.NoError(t, err)

	for _, name := range []string{"mandelbrot_speedup.png", "mandelbrot_efficiency.png", "mandelbrot_fractal.png"} {
		info, statErr := os.Stat(filepath.Join(outDir, name))
		require.NoError(t, statErr, name)
		assert.Greater(t, info.Size(), int64(0), name)
		assert.Contains(t, output, name)
	}
}

func TestPlotCmd_MissingMetrics(t *testing.T) {
	dir := t.TempDir()
	_, err := runPlot(t,
		"--metrics", filepath.Join(dir, "nope.csv"),
		"--points", filepath.Join(dir, "points.csv"),
		"--out", dir)
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}
