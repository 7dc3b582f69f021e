// Package report serializes sweep results as comma-separated text.
//
// This is deliberately not a general CSV writer: every field is numeric
// or a plain token by construction, so no quoting or escaping is
// applied. Floats are rendered with a fixed six decimal places so that
// re-running a writer on the same input produces byte-identical files.
package report

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"parbench/internal/timing"
)

// TimingsHeader is the column layout of the raw per-trial CSV.
var TimingsHeader = []string{"nthreads", "npoints", "run_index", "time"}

// MetricsHeader is the column layout of the aggregated metrics CSV.
var MetricsHeader = []string{"nthreads", "npoints", "mean_time", "acceleration", "efficiency"}

// WriteTimings writes one row per trial in emission order, truncating
// any existing file.
func WriteTimings(path string, trials []timing.Trial) error {
	rows := make([][]string, 0, len(trials))
	for _, tr := range trials {
		rows = append(rows, []string{
			strconv.Itoa(tr.Key),
			strconv.Itoa(tr.Size),
			strconv.Itoa(tr.Index),
			formatSeconds(tr.Seconds),
		})
	}
	return WriteRows(path, TimingsHeader, rows)
}

// WriteMetrics writes one row per aggregated configuration, truncating
// any existing file.
func WriteMetrics(path string, metrics []timing.MetricRow) error {
	rows := make([][]string, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, []string{
			strconv.Itoa(m.Key),
			strconv.Itoa(m.Size),
			formatSeconds(m.MeanSeconds),
			formatSeconds(m.Speedup),
			formatSeconds(m.Efficiency),
		})
	}
	return WriteRows(path, MetricsHeader, rows)
}

// WriteRows writes a header and ordered rows as comma-separated lines,
// one trailing newline per row. The destination is overwritten, never
// appended to.
func WriteRows(path string, header []string, rows [][]string) error {
	var b strings.Builder
	b.WriteString(strings.Join(header, ","))
	b.WriteByte('\n')
	for _, row := range rows {
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}

// RowWriter appends rows to a CSV file one at a time, flushing each row
// to disk as it lands. The N-body batch uses it so partial summaries
// survive a failed or interrupted run.
type RowWriter struct {
	f *os.File
}

// NewRowWriter truncates path and writes the header immediately.
func NewRowWriter(path string, header []string) (*RowWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if _, err := fmt.Fprintln(f, strings.Join(header, ",")); err != nil {
		f.Close()
		return nil, err
	}
	return &RowWriter{f: f}, nil
}

func (w *RowWriter) Append(row []string) error {
	_, err := fmt.Fprintln(w.f, strings.Join(row, ","))
	return err
}

func (w *RowWriter) Close() error {
	return w.f.Close()
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
