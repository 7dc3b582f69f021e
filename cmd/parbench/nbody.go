package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"parbench/internal/nbody"
)

var nbodyCmd = newNbodyCmd()

func init() {
	rootCmd.AddCommand(nbodyCmd)
}

// batchFileLayout is the optional JSON override for the built-in sweep
// grid.
type batchFileLayout struct {
	Batches    []nbody.BatchConfig `json:"batches"`
	OMPBatches []nbody.BatchConfig `json:"omp_batches"`
}

func newNbodyCmd() *cobra.Command {
	var (
		launcher   string
		simConfig  string
		metricsDir string
		summaryCSV string
		batchFile  string
		settleMS   int
	)

	cmd := &cobra.Command{
		Use:   "nbody",
		Short: "Run the N-body batch across targets and thread counts",
		Long: `Runs the external N-body launcher for every entry of the sweep grid
against the cpu and cuda targets, then an OpenMP thread sweep on cpu.
Before each entry the simulator's JSON configuration is rewritten (tend,
dt, input; n and seed carried over) and restored when the batch ends.

Failed runs and missing metrics files are logged and skipped; per-run
metrics that do arrive are appended to nbody_batch_summary.csv row by
row, so a partial summary survives interruption.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Changed, not zero-value checks: an explicit --settle-ms 0
			// must not silently revert to the configured default.
			if !cmd.Flags().Changed("launcher") {
				launcher = viper.GetString("nbody.launcher")
			}
			if !cmd.Flags().Changed("sim-config") {
				simConfig = viper.GetString("nbody.config")
			}
			if !cmd.Flags().Changed("metrics-dir") {
				metricsDir = viper.GetString("nbody.metrics_dir")
			}
			if !cmd.Flags().Changed("summary") {
				summaryCSV = filepath.Join(viper.GetString("results_dir"), "nbody_batch_summary.csv")
			}
			if !cmd.Flags().Changed("settle-ms") {
				settleMS = viper.GetInt("nbody.settle_ms")
			}

			batches, ompBatches := nbody.DefaultBatches, nbody.DefaultOMPBatches
			if batchFile != "" {
				data, err := os.ReadFile(batchFile)
				if err != nil {
					return err
				}
				var layout batchFileLayout
				if err := json.Unmarshal(data, &layout); err != nil {
					return fmt.Errorf("decoding %s: %w", batchFile, err)
				}
				batches, ompBatches = layout.Batches, layout.OMPBatches
			}

			driver := &nbody.Driver{
				Launcher:   launcher,
				ConfigPath: simConfig,
				MetricsDir: metricsDir,
				SummaryCSV: summaryCSV,
				Batches:    batches,
				OMPBatches: ompBatches,
				Targets:    nbody.DefaultTargets,
				Settle:     time.Duration(settleMS) * time.Millisecond,
				Invoker:    newInvokerFunc(),
				Logger:     slog.Default(),
				Stdout:     cmd.OutOrStdout(),
				Stderr:     cmd.ErrOrStderr(),
			}
			if err := driver.Run(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Batch summary written to %s\n", summaryCSV)
			return nil
		},
	}

	cmd.Flags().StringVar(&launcher, "launcher", "", "path to the N-body run launcher")
	cmd.Flags().StringVar(&simConfig, "sim-config", "", "path to the simulator JSON configuration")
	cmd.Flags().StringVar(&metricsDir, "metrics-dir", "", "directory the launcher writes metrics files under")
	cmd.Flags().StringVar(&summaryCSV, "summary", "", "path of the summary CSV")
	cmd.Flags().StringVar(&batchFile, "batch", "", "JSON file overriding the built-in sweep grid")
	cmd.Flags().IntVar(&settleMS, "settle-ms", 0, "milliseconds to wait after each config rewrite")

	return cmd
}
