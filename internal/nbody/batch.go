// Package nbody drives the external N-body launcher across a grid of
// simulation configurations and condenses its per-run metrics files
// into one summary CSV.
package nbody

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"parbench/internal/metric"
	"parbench/internal/report"
	"parbench/internal/runner"
)

// BatchConfig is one entry of the sweep grid. Threads is only set for
// OpenMP sweeps and is requested via OMP_NUM_THREADS.
type BatchConfig struct {
	Name    string  `json:"name"`
	TEnd    float64 `json:"tend"`
	Dt      float64 `json:"dt"`
	Input   string  `json:"input"`
	Threads int     `json:"threads,omitempty"`
}

// DefaultBatches is the particle-count × step-size grid run against
// every target.
var DefaultBatches = []BatchConfig{
	{Name: "N100_dt10", TEnd: 10000, Dt: 10, Input: "random_N100.txt"},
	{Name: "N100_dt5", TEnd: 10000, Dt: 5, Input: "random_N100.txt"},
	{Name: "N100_dt2", TEnd: 10000, Dt: 2, Input: "random_N100.txt"},
	{Name: "N500_dt10", TEnd: 10000, Dt: 10, Input: "random_N500.txt"},
	{Name: "N500_dt5", TEnd: 10000, Dt: 5, Input: "random_N500.txt"},
	{Name: "N500_dt2", TEnd: 10000, Dt: 2, Input: "random_N500.txt"},
	{Name: "N2000_dt10", TEnd: 10000, Dt: 10, Input: "random_N2000.txt"},
	{Name: "N2000_dt5", TEnd: 10000, Dt: 5, Input: "random_N2000.txt"},
}

// DefaultOMPBatches is the OpenMP thread sweep, run on the cpu target
// only.
var DefaultOMPBatches = []BatchConfig{
	{Name: "N2000_dt5_threads1", TEnd: 10000, Dt: 5, Input: "random_N2000.txt", Threads: 1},
	{Name: "N2000_dt5_threads2", TEnd: 10000, Dt: 5, Input: "random_N2000.txt", Threads: 2},
	{Name: "N2000_dt5_threads4", TEnd: 10000, Dt: 5, Input: "random_N2000.txt", Threads: 4},
	{Name: "N2000_dt5_threads8", TEnd: 10000, Dt: 5, Input: "random_N2000.txt", Threads: 8},
	{Name: "N2000_dt5_threads16", TEnd: 10000, Dt: 5, Input: "random_N2000.txt", Threads: 16},
}

// DefaultTargets are the launcher backends exercised for every grid
// entry.
var DefaultTargets = []string{"cpu", "cuda"}

// SummaryHeader is the fixed 14-column layout of the batch summary CSV.
var SummaryHeader = []string{
	"batch_name",
	"target",
	"input_file",
	"t_end",
	"dt",
	"eps",
	"particles",
	"threads_or_device",
	"total_steps",
	"total_time_s_or_ms",
	"min_step",
	"avg_step",
	"steps_per_sec",
	"trajectories_path",
}

// Driver runs the whole N-body batch. Failed launches and missing
// metrics files are logged and skipped; only a missing launcher or an
// unwritable output aborts the batch.
type Driver struct {
	Launcher   string
	ConfigPath string
	// MetricsDir is the directory the launcher writes its per-target
	// results under (<MetricsDir>/nbody_cpu/metrics_cpu.txt and
	// <MetricsDir>/nbody_cuda/metrics_cuda.txt).
	MetricsDir string
	SummaryCSV string
	Batches    []BatchConfig
	OMPBatches []BatchConfig
	Targets    []string
	// Settle is slept after each configuration rewrite so the external
	// launcher sees a stable file. Empirically chosen debounce, not a
	// correctness-critical synchronization.
	Settle  time.Duration
	Invoker runner.Invoker
	Logger  *slog.Logger
	// Stdout and Stderr receive the launcher's live output, so the user
	// can watch a long-running simulation. Nil means the harness's own
	// streams.
	Stdout io.Writer
	Stderr io.Writer
}

func (d *Driver) stdout() io.Writer {
	if d.Stdout != nil {
		return d.Stdout
	}
	return os.Stdout
}

func (d *Driver) stderr() io.Writer {
	if d.Stderr != nil {
		return d.Stderr
	}
	return os.Stderr
}

func (d *Driver) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// Run executes the grid and the OpenMP sweep, appending one summary row
// per successful run. The simulator configuration is read once at the
// start and unconditionally restored at the end, including when entries
// fail along the way, so the external system is never left
// misconfigured.
func (d *Driver) Run(ctx context.Context) error {
	if _, err := os.Stat(d.Launcher); err != nil {
		return fmt.Errorf("%w: %s", runner.ErrExecutableNotFound, d.Launcher)
	}

	original, err := ReadSimConfig(d.ConfigPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("reading simulator config: %w", err)
		}
		d.logger().Warn("original simulator config not found, writing fresh configs per run", "path", d.ConfigPath)
	}
	if original != nil {
		defer func() {
			if err := WriteSimConfig(d.ConfigPath, original); err != nil {
				d.logger().Error("restoring simulator config failed", "path", d.ConfigPath, "error", err)
			} else {
				d.logger().Info("original simulator config restored", "path", d.ConfigPath)
			}
		}()
	}

	if err := os.MkdirAll(filepath.Dir(d.SummaryCSV), 0755); err != nil {
		return err
	}
	summary, err := report.NewRowWriter(d.SummaryCSV, SummaryHeader)
	if err != nil {
		return err
	}
	defer summary.Close()

	for _, batch := range d.Batches {
		if err := d.prepare(batch, original); err != nil {
			return err
		}
		for _, target := range d.Targets {
			d.runOne(ctx, summary, batch, target, nil)
		}
	}

	for _, batch := range d.OMPBatches {
		if err := d.prepare(batch, original); err != nil {
			return err
		}
		env := []string{"OMP_NUM_THREADS=" + strconv.Itoa(batch.Threads)}
		d.runOne(ctx, summary, batch, "cpu", env)
	}

	d.logger().Info("batch summary written", "path", d.SummaryCSV)
	return nil
}

func (d *Driver) prepare(batch BatchConfig, original SimConfig) error {
	d.logger().Info("batch config", "name", batch.Name, "tend", batch.TEnd, "dt", batch.Dt, "input", batch.Input)
	if err := WriteSimConfig(d.ConfigPath, configFor(batch, original)); err != nil {
		return fmt.Errorf("writing simulator config for %s: %w", batch.Name, err)
	}
	if d.Settle > 0 {
		time.Sleep(d.Settle)
	}
	return nil
}

// runOne launches one target for one batch entry and appends its
// summary row. Failures are logged and swallowed: the batch continues
// with the next run, except for a vanished launcher which stays fatal
// on the next invocation's precondition check.
func (d *Driver) runOne(ctx context.Context, summary *report.RowWriter, batch BatchConfig, target string, env []string) {
	d.logger().Info("running target", "target", target, "batch", batch.Name)

	_, err := d.Invoker.Run(ctx, runner.Spec{
		Path: d.Launcher,
		Args: []string{target, "-NoPlot", "-NoTrajectories"},
		Env:  env,
		// The launcher's output passes through to the user; stderr is
		// still captured for the RunError payload.
		Stdout: d.stdout(),
		Stderr: d.stderr(),
	})
	if err != nil {
		var runErr *runner.RunError
		if errors.As(err, &runErr) {
			d.logger().Error("launcher failed", "target", target, "batch", batch.Name, "exit_code", runErr.ExitCode, "stderr", runErr.Stderr)
			return
		}
		d.logger().Error("launcher failed", "target", target, "batch", batch.Name, "error", err)
		return
	}

	metricsPath := d.metricsPath(target)
	metrics, err := metric.ParseKeyValueFile(metricsPath)
	if err != nil {
		d.logger().Warn("metrics file not readable", "target", target, "path", metricsPath, "error", err)
		return
	}

	if err := summary.Append(summaryRow(batch, target, metrics)); err != nil {
		d.logger().Error("appending summary row failed", "batch", batch.Name, "error", err)
		return
	}
	d.logger().Info("finished target", "target", target, "batch", batch.Name)
}

func (d *Driver) metricsPath(target string) string {
	if target == "cuda" {
		return filepath.Join(d.MetricsDir, "nbody_cuda", "metrics_cuda.txt")
	}
	return filepath.Join(d.MetricsDir, "nbody_cpu", "metrics_cpu.txt")
}

// summaryRow maps one metrics file onto the fixed summary columns. The
// cpu and cuda targets report through differently named keys (thread
// count vs. device name, per-step compute time vs. kernel time).
func summaryRow(batch BatchConfig, target string, metrics map[string]string) []string {
	timeKey := "Total compute time (sum of per-step)"
	deviceKey := "OpenMP threads"
	if target == "cuda" {
		timeKey = "Total kernel time (reset+forces+step)"
		deviceKey = "CUDA device"
	}

	inputFile := metrics["Input file"]
	if inputFile == "" {
		inputFile = batch.Input
	}

	return []string{
		batch.Name,
		target,
		inputFile,
		metrics["t_end"],
		metrics["dt"],
		metrics["eps"],
		metrics["Particles"],
		metrics[deviceKey],
		metrics["Total steps"],
		firstField(metrics[timeKey]),
		firstField(metrics["Min step time"]),
		firstField(metrics["Avg step time"]),
		firstField(metrics["Steps per second (avg)"]),
		metrics["Output trajectories"],
	}
}

// firstField strips a unit suffix from values like "12.5 s" or
// "3.2 ms".
func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
