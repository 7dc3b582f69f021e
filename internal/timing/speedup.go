package timing

import (
	"errors"
	"fmt"
)

// ErrNoData is returned when metrics are requested for an empty
// aggregate sequence.
var ErrNoData = errors.New("no aggregated timings")

// ComputeMetrics derives speedup and efficiency for every aggregate
// relative to a baseline mean duration.
//
// The baseline is the entry with Key==1 when present; otherwise the
// entry with the smallest key is substituted and Baseline.Fallback is
// set so callers can report it. Speedup is T_base/T, efficiency is
// speedup/Key. No clamping is applied: efficiency above 1 (super-linear
// speedup) is a legitimate observation and is reported as measured.
func ComputeMetrics(aggregates []Aggregate) ([]MetricRow, Baseline, error) {
	if len(aggregates) == 0 {
		return nil, Baseline{}, ErrNoData
	}

	base := Baseline{Fallback: true}
	for _, a := range aggregates {
		if a.Key == 1 {
			base = Baseline{Key: 1, MeanSeconds: a.MeanSeconds}
			break
		}
	}
	if base.Fallback {
		// Aggregates arrive sorted ascending by key, so the first entry
		// has the smallest key.
		base.Key = aggregates[0].Key
		base.MeanSeconds = aggregates[0].MeanSeconds
	}
	if base.MeanSeconds == 0 {
		return nil, Baseline{}, fmt.Errorf("baseline key %d has zero mean duration", base.Key)
	}

	rows := make([]MetricRow, 0, len(aggregates))
	for _, a := range aggregates {
		if a.MeanSeconds == 0 {
			return nil, Baseline{}, fmt.Errorf("key %d has zero mean duration", a.Key)
		}
		speedup := base.MeanSeconds / a.MeanSeconds
		rows = append(rows, MetricRow{
			Key:         a.Key,
			Size:        a.Size,
			MeanSeconds: a.MeanSeconds,
			Speedup:     speedup,
			Efficiency:  speedup / float64(a.Key),
		})
	}

	return rows, base, nil
}
