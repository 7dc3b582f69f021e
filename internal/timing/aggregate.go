package timing

import (
	"errors"
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"
)

// ErrEmptyGroup is returned when a configuration key ends up with zero
// trials. The collector's contract makes this unreachable in normal
// operation, but it is checked rather than assumed.
var ErrEmptyGroup = errors.New("no trials for configuration")

// AggregateTrials groups trials by configuration key and reduces each
// group to its arithmetic mean (plus min/max/stddev for inspection).
// Output is ordered ascending by key regardless of input order so that
// downstream CSVs are stable and human-diffable.
func AggregateTrials(trials []Trial) ([]Aggregate, error) {
	samples := make(map[int][]float64)
	sizes := make(map[int]int)

	for _, tr := range trials {
		samples[tr.Key] = append(samples[tr.Key], tr.Seconds)
		if prev, ok := sizes[tr.Key]; ok && prev != tr.Size {
			return nil, fmt.Errorf("configuration %d has inconsistent sizes %d and %d", tr.Key, prev, tr.Size)
		}
		sizes[tr.Key] = tr.Size
	}

	keys := make([]int, 0, len(samples))
	for k := range samples {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	aggregates := make([]Aggregate, 0, len(keys))
	for _, k := range keys {
		group := samples[k]
		if len(group) == 0 {
			return nil, fmt.Errorf("%w: key %d", ErrEmptyGroup, k)
		}

		mean, err := stats.Mean(group)
		if err != nil {
			return nil, fmt.Errorf("computing mean for key %d: %w", k, err)
		}
		min, err := stats.Min(group)
		if err != nil {
			return nil, fmt.Errorf("computing min for key %d: %w", k, err)
		}
		max, err := stats.Max(group)
		if err != nil {
			return nil, fmt.Errorf("computing max for key %d: %w", k, err)
		}
		// Sample stddev is 0 for a single observation, not an error.
		stddev := 0.0
		if len(group) > 1 {
			stddev, err = stats.StandardDeviationSample(group)
			if err != nil {
				return nil, fmt.Errorf("computing stddev for key %d: %w", k, err)
			}
		}

		aggregates = append(aggregates, Aggregate{
			Key:           k,
			Size:          sizes[k],
			Count:         len(group),
			MeanSeconds:   mean,
			MinSeconds:    min,
			MaxSeconds:    max,
			StddevSeconds: stddev,
		})
	}

	return aggregates, nil
}
