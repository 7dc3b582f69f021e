package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"parbench/internal/plotting"
)

var plotCmd = newPlotCmd()

func init() {
	rootCmd.AddCommand(plotCmd)
}

func newPlotCmd() *cobra.Command {
	var (
		metricsCSV string
		pointsCSV  string
		outDir     string
	)

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render speedup, efficiency, and density charts",
		Long: `Reads the aggregated Mandelbrot metrics CSV and renders the speedup
and efficiency charts, plus a log-scaled 2D density rendering of the
sampled points file the external executable produces.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			resultsDir := filepath.Join(viper.GetString("results_dir"), "mandelbrot")
			if metricsCSV == "" {
				metricsCSV = filepath.Join(resultsDir, "metrics_task1.csv")
			}
			if pointsCSV == "" {
				pointsCSV = filepath.Join(resultsDir, "points_task1.csv")
			}
			if outDir == "" {
				outDir = resultsDir
			}
			if err := os.MkdirAll(outDir, 0755); err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			rows, err := plotting.LoadMetricsCSV(metricsCSV)
			if err != nil {
				return err
			}

			speedupPNG := filepath.Join(outDir, "mandelbrot_speedup.png")
			if err := plotting.SpeedupChart(rows, speedupPNG); err != nil {
				return fmt.Errorf("rendering speedup chart: %w", err)
			}
			fmt.Fprintf(out, "Speedup chart written to %s\n", speedupPNG)

			efficiencyPNG := filepath.Join(outDir, "mandelbrot_efficiency.png")
			if err := plotting.EfficiencyChart(rows, efficiencyPNG); err != nil {
				return fmt.Errorf("rendering efficiency chart: %w", err)
			}
			fmt.Fprintf(out, "Efficiency chart written to %s\n", efficiencyPNG)

			points, err := plotting.LoadPointsCSV(pointsCSV)
			if err != nil {
				return err
			}
			fractalPNG := filepath.Join(outDir, "mandelbrot_fractal.png")
			if err := plotting.DensityChart(points, plotting.DefaultDensityBins, fractalPNG); err != nil {
				return fmt.Errorf("rendering density chart: %w", err)
			}
			fmt.Fprintf(out, "Density chart written to %s\n", fractalPNG)

			return nil
		},
	}

	cmd.Flags().StringVar(&metricsCSV, "metrics", "", "aggregated metrics CSV to plot")
	cmd.Flags().StringVar(&pointsCSV, "points", "", "sampled points CSV to render as density")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory for PNG files")

	return cmd
}
