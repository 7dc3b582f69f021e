package timing

// Trial is one timed execution of the external workload for one
// configuration. It is immutable once recorded.
type Trial struct {
	// Key is the independent variable of the sweep, normally a thread count.
	Key int `json:"key"`
	// Size is the workload size parameter (e.g. number of sampled points).
	// Every trial sharing a Key must carry the same Size.
	Size int `json:"size"`
	// Index is the 1-based repetition index within the configuration.
	Index int `json:"index"`
	// Seconds is the measured wall-clock duration. Always > 0 for a
	// successful run.
	Seconds float64 `json:"seconds"`
}

// Aggregate is the per-configuration reduction of a group of trials.
// It is recomputed from scratch whenever the trial set changes, never
// mutated in place.
type Aggregate struct {
	Key           int
	Size          int
	Count         int
	MeanSeconds   float64
	MinSeconds    float64
	MaxSeconds    float64
	StddevSeconds float64
}

// MetricRow is an Aggregate extended with speedup and efficiency
// relative to a baseline configuration.
type MetricRow struct {
	Key         int
	Size        int
	MeanSeconds float64
	Speedup     float64
	Efficiency  float64
}

// Baseline records which configuration denominated the speedup
// computation. Fallback is set when no Key==1 entry existed and the
// smallest key was substituted; callers must surface that substitution.
type Baseline struct {
	Key         int
	MeanSeconds float64
	Fallback    bool
}
