package runner

import (
	"context"
	"log/slog"

	"parbench/internal/timing"
)

// Policy decides what a failed trial does to the rest of the sweep.
// The Mandelbrot batch collects under AbortOnFailure. The N-body batch
// follows the SkipAndContinue semantics but does not route through the
// Collector: its sweep is a grid of (configuration, target) runs whose
// result is a metrics file, not a duration, so its skip handling lives
// in the driver's per-run step.
type Policy int

const (
	// AbortOnFailure stops the whole batch at the first failed trial.
	AbortOnFailure Policy = iota
	// SkipAndContinue logs the failure and moves to the next
	// configuration, dropping the failed configuration's remaining
	// repetitions.
	SkipAndContinue
)

func (p Policy) String() string {
	switch p {
	case AbortOnFailure:
		return "abort"
	case SkipAndContinue:
		return "skip"
	default:
		return "unknown"
	}
}

// MeasureFunc runs one trial for a configuration key and returns the
// measured duration in seconds. Implementations invoke the external
// executable and parse its reported metric.
type MeasureFunc func(ctx context.Context, key, index int) (float64, error)

// Collector runs the cross product of configuration keys and repetition
// indices, strictly sequentially. Trials are emitted in invocation
// order (outer loop over keys in the given order, inner loop over
// repetitions 1..R) so CSV output is reproducible and run-to-run
// variance stays inspectable. No harness-side parallelism: concurrent
// trials would contaminate the CPU-bound workloads under measurement.
type Collector struct {
	Policy Policy
	Logger *slog.Logger
}

func (c *Collector) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Collect gathers one Trial per (key, repetition) pair. Under
// AbortOnFailure the first error is returned along with the trials
// gathered so far; under SkipAndContinue errors are logged and the
// sweep proceeds with the next key.
func (c *Collector) Collect(ctx context.Context, keys []int, size, repetitions int, measure MeasureFunc) ([]timing.Trial, error) {
	trials := make([]timing.Trial, 0, len(keys)*repetitions)

	for _, key := range keys {
		for index := 1; index <= repetitions; index++ {
			c.logger().Info("running trial", "key", key, "size", size, "run", index, "runs", repetitions)

			seconds, err := measure(ctx, key, index)
			if err != nil {
				if c.Policy == SkipAndContinue {
					c.logger().Warn("trial failed, skipping configuration", "key", key, "run", index, "error", err)
					break
				}
				return trials, err
			}

			c.logger().Info("trial finished", "key", key, "run", index, "seconds", seconds)
			trials = append(trials, timing.Trial{Key: key, Size: size, Index: index, Seconds: seconds})
		}
	}

	return trials, nil
}
