// Package plotting renders PNG charts from the CSV files the batch
// commands produce.
package plotting

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"gonum.org/v1/plot/plotter"

	"parbench/internal/timing"
)

// LoadMetricsCSV reads an aggregated metrics file, validates that the
// required columns are present, and returns rows sorted ascending by
// thread count.
func LoadMetricsCSV(path string) ([]timing.MetricRow, error) {
	records, header, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	cols, err := columnIndex(header, "nthreads", "mean_time", "acceleration", "efficiency")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	// npoints is informational and may be absent in hand-built files.
	npointsCol := -1
	for i, name := range header {
		if name == "npoints" {
			npointsCol = i
		}
	}

	rows := make([]timing.MetricRow, 0, len(records))
	for i, rec := range records {
		row := timing.MetricRow{}
		if row.Key, err = strconv.Atoi(rec[cols["nthreads"]]); err != nil {
			return nil, fmt.Errorf("%s row %d: bad nthreads: %w", path, i+1, err)
		}
		if npointsCol >= 0 {
			if row.Size, err = strconv.Atoi(rec[npointsCol]); err != nil {
				return nil, fmt.Errorf("%s row %d: bad npoints: %w", path, i+1, err)
			}
		}
		if row.MeanSeconds, err = strconv.ParseFloat(rec[cols["mean_time"]], 64); err != nil {
			return nil, fmt.Errorf("%s row %d: bad mean_time: %w", path, i+1, err)
		}
		if row.Speedup, err = strconv.ParseFloat(rec[cols["acceleration"]], 64); err != nil {
			return nil, fmt.Errorf("%s row %d: bad acceleration: %w", path, i+1, err)
		}
		if row.Efficiency, err = strconv.ParseFloat(rec[cols["efficiency"]], 64); err != nil {
			return nil, fmt.Errorf("%s row %d: bad efficiency: %w", path, i+1, err)
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return rows, nil
}

// LoadPointsCSV reads the sampled-point file the external executable
// produces (columns x, y).
func LoadPointsCSV(path string) (plotter.XYs, error) {
	records, header, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	cols, err := columnIndex(header, "x", "y")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	points := make(plotter.XYs, 0, len(records))
	for i, rec := range records {
		x, err := strconv.ParseFloat(rec[cols["x"]], 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad x: %w", path, i+1, err)
		}
		y, err := strconv.ParseFloat(rec[cols["y"]], 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad y: %w", path, i+1, err)
		}
		points = append(points, plotter.XY{X: x, Y: y})
	}
	return points, nil
}

func readCSV(path string) (records [][]string, header []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("%s: empty file", path)
	}
	return all[1:], all[0], nil
}

func columnIndex(header []string, required ...string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing required column %q (have %v)", name, header)
		}
	}
	return cols, nil
}
