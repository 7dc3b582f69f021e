package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"parbench/internal/mandelbrot"
	"parbench/internal/runner"
	"parbench/internal/store"
	"parbench/internal/timing"
)

// Factories are variables so command tests can substitute fakes.
var (
	newInvokerFunc = func() runner.Invoker { return runner.ExecInvoker{} }
	newStoreFunc   = func(path string) (store.Store, error) { return store.NewSQLiteStore(path) }
)

var mandelbrotCmd = newMandelbrotCmd()

func init() {
	rootCmd.AddCommand(mandelbrotCmd)
}

func newMandelbrotCmd() *cobra.Command {
	var (
		exe     string
		threads []int
		npoints int
		runs    int
		outDir  string
		save    bool
		compare bool
	)

	cmd := &cobra.Command{
		Use:   "mandelbrot",
		Short: "Sweep the Mandelbrot sampler across thread counts",
		Long: `Runs the prebuilt Mandelbrot executable for every configured thread
count, repeating each configuration a fixed number of times, and reduces
the reported TIME_SECONDS values to mean duration, speedup, and parallel
efficiency. The first failed run aborts the whole batch.

Writes timings_task1.csv (raw trials) and metrics_task1.csv (aggregates)
into the output directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Changed, not zero-value checks: an explicit --npoints 0
			// must not silently revert to the configured default.
			if !cmd.Flags().Changed("exe") {
				exe = viper.GetString("mandelbrot.exe")
			}
			if !cmd.Flags().Changed("threads") {
				threads = viper.GetIntSlice("mandelbrot.threads")
			}
			if !cmd.Flags().Changed("npoints") {
				npoints = viper.GetInt("mandelbrot.npoints")
			}
			if !cmd.Flags().Changed("runs") {
				runs = viper.GetInt("mandelbrot.runs")
			}
			if !cmd.Flags().Changed("out") {
				outDir = filepath.Join(viper.GetString("results_dir"), "mandelbrot")
			}
			if err := os.MkdirAll(outDir, 0755); err != nil {
				return err
			}

			timingsCSV := filepath.Join(outDir, "timings_task1.csv")
			metricsCSV := filepath.Join(outDir, "metrics_task1.csv")

			slog.Info("starting mandelbrot batch",
				"exe", exe, "threads", threads, "npoints", npoints, "runs", runs)

			batch := &mandelbrot.Batch{
				Exe:     exe,
				Threads: threads,
				Npoints: npoints,
				Runs:    runs,
				Invoker: newInvokerFunc(),
				Logger:  slog.Default(),
			}
			rep, err := batch.Run(cmd.Context(), timingsCSV, metricsCSV)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if rep.Baseline.Fallback {
				fmt.Fprintf(out, "No nthreads=1 in timings, using nthreads=%d as baseline\n", rep.Baseline.Key)
			}
			printMetricsTable(cmd, rep.Metrics)
			fmt.Fprintf(out, "\nRaw timings written to %s\n", timingsCSV)
			fmt.Fprintf(out, "Metrics written to %s\n", metricsCSV)

			if !save && !compare {
				return nil
			}
			st, err := newStoreFunc(viper.GetString("history_db"))
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: history unavailable: %v\n", err)
				return nil
			}
			defer st.Close()

			if compare {
				previous, err := st.LoadLatest()
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to load previous batch: %v\n", err)
				} else if previous != nil {
					if err := printComparisonTable(cmd, rep.Aggregates, previous); err != nil {
						return err
					}
				}
			}

			if save {
				label := fmt.Sprintf("npoints=%d runs=%d", npoints, runs)
				id, err := st.SaveBatch(label, rep.Trials)
				if err != nil {
					return fmt.Errorf("saving batch: %w", err)
				}
				fmt.Fprintf(out, "\nBatch saved to history (run %d)\n", id)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&exe, "exe", "", "path to the Mandelbrot executable")
	cmd.Flags().IntSliceVar(&threads, "threads", nil, "thread counts to sweep")
	cmd.Flags().IntVar(&npoints, "npoints", 0, "number of sampled points per run")
	cmd.Flags().IntVar(&runs, "runs", 0, "repetitions per thread count")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory for CSV files")
	cmd.Flags().BoolVar(&save, "save", false, "save this batch to history")
	cmd.Flags().BoolVar(&compare, "compare", true, "compare against the previously saved batch")

	return cmd
}

func printMetricsTable(cmd *cobra.Command, metrics []timing.MetricRow) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NTHREADS\tMEAN_TIME\tSPEEDUP\tEFFICIENCY")
	for _, m := range metrics {
		fmt.Fprintf(w, "%d\t%.6f\t%.3f\t%.3f\n", m.Key, m.MeanSeconds, m.Speedup, m.Efficiency)
	}
	w.Flush()
}

func printComparisonTable(cmd *cobra.Command, current []timing.Aggregate, previous *store.BatchRun) error {
	prevAggs, err := timing.AggregateTrials(previous.Trials)
	if err != nil {
		return fmt.Errorf("aggregating previous batch: %w", err)
	}
	prevByKey := make(map[int]timing.Aggregate, len(prevAggs))
	for _, a := range prevAggs {
		prevByKey[a.Key] = a
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nComparison with previous batch (%s, run %d):\n", previous.Label, previous.ID)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NTHREADS\tMEAN_TIME\tPREV\tDIFF %")
	for _, a := range current {
		prev, ok := prevByKey[a.Key]
		if !ok {
			fmt.Fprintf(w, "%d\t%.6f\t-\tNEW\n", a.Key, a.MeanSeconds)
			continue
		}
		diff := (a.MeanSeconds - prev.MeanSeconds) / prev.MeanSeconds * 100
		fmt.Fprintf(w, "%d\t%.6f\t%.6f\t%+.2f%%\n", a.Key, a.MeanSeconds, prev.MeanSeconds, diff)
	}
	return w.Flush()
}
