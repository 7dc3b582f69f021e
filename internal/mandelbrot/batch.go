// Package mandelbrot drives the prebuilt Mandelbrot point sampler
// across a thread-count sweep and reduces its reported timings.
package mandelbrot

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"parbench/internal/metric"
	"parbench/internal/report"
	"parbench/internal/runner"
	"parbench/internal/timing"
)

// TimeKey is the metric the sampler must emit on stderr.
const TimeKey = "TIME_SECONDS"

// Batch holds one sweep's configuration. The executable is invoked as
// "<exe> <nthreads> <npoints>"; its stdout is discarded and stderr is
// scanned for TIME_SECONDS=<float>.
type Batch struct {
	Exe     string
	Threads []int
	Npoints int
	Runs    int
	Invoker runner.Invoker
	Logger  *slog.Logger
}

// Report is the outcome of a completed batch.
type Report struct {
	Trials     []timing.Trial
	Aggregates []timing.Aggregate
	Metrics    []timing.MetricRow
	Baseline   timing.Baseline
}

// Run executes the full sweep and writes the raw timings and aggregated
// metrics CSVs. Any failed trial or missing metric aborts the whole
// batch; a partially written timings file is not produced.
func (b *Batch) Run(ctx context.Context, timingsCSV, metricsCSV string) (*Report, error) {
	collector := runner.Collector{Policy: runner.AbortOnFailure, Logger: b.Logger}
	trials, err := collector.Collect(ctx, b.Threads, b.Npoints, b.Runs, b.measure)
	if err != nil {
		return nil, err
	}

	if err := report.WriteTimings(timingsCSV, trials); err != nil {
		return nil, err
	}

	aggregates, err := timing.AggregateTrials(trials)
	if err != nil {
		return nil, err
	}
	metrics, baseline, err := timing.ComputeMetrics(aggregates)
	if err != nil {
		return nil, err
	}
	if baseline.Fallback && b.Logger != nil {
		b.Logger.Info("no nthreads=1 in timings, falling back", "baseline_nthreads", baseline.Key)
	}

	if err := report.WriteMetrics(metricsCSV, metrics); err != nil {
		return nil, err
	}

	return &Report{Trials: trials, Aggregates: aggregates, Metrics: metrics, Baseline: baseline}, nil
}

func (b *Batch) measure(ctx context.Context, nthreads, index int) (float64, error) {
	result, err := b.Invoker.Run(ctx, runner.Spec{
		Path: b.Exe,
		Args: []string{strconv.Itoa(nthreads), strconv.Itoa(b.Npoints)},
	})
	if err != nil {
		return 0, err
	}
	return metric.ParseValue(strings.NewReader(result.Stderr), TimeKey)
}
