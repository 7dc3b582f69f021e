package plotting

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"parbench/internal/timing"
)

var (
	measuredBlue  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	measuredGreen = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	idealGray     = color.RGBA{R: 128, G: 128, B: 128, A: 255}
)

// threadTicks puts a tick on every measured thread count instead of
// letting the plotter pick round numbers.
type threadTicks struct {
	keys []int
}

func (t threadTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	for _, k := range t.keys {
		v := float64(k)
		if v >= min && v <= max {
			ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf("%d", k)})
		}
	}
	return ticks
}

// SpeedupChart renders measured speedup against thread count, with the
// ideal speedup=p line dashed for reference.
func SpeedupChart(rows []timing.MetricRow, path string) error {
	p := plot.New()
	p.Title.Text = "Mandelbrot: Speedup vs. number of threads"
	p.X.Label.Text = "Number of threads p"
	p.Y.Label.Text = "Speedup"
	p.Add(plotter.NewGrid())

	keys := make([]int, 0, len(rows))
	ideal := make(plotter.XYs, len(rows))
	measured := make(plotter.XYs, len(rows))
	for i, row := range rows {
		keys = append(keys, row.Key)
		ideal[i] = plotter.XY{X: float64(row.Key), Y: float64(row.Key)}
		measured[i] = plotter.XY{X: float64(row.Key), Y: row.Speedup}
	}
	p.X.Tick.Marker = threadTicks{keys: keys}

	idealLine, err := plotter.NewLine(ideal)
	if err != nil {
		return err
	}
	idealLine.LineStyle.Color = idealGray
	idealLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}

	line, scatter, err := measuredSeries(measured, measuredBlue)
	if err != nil {
		return err
	}

	p.Add(idealLine, line, scatter)
	p.Legend.Add("Ideal speedup = p", idealLine)
	p.Legend.Add("Measured speedup", line)
	p.Legend.Top = true
	p.Legend.Left = true

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// EfficiencyChart renders measured parallel efficiency against thread
// count. The y axis spans [0, 1.05] for readability, but the data
// itself is never clamped: super-linear points simply sit outside.
func EfficiencyChart(rows []timing.MetricRow, path string) error {
	p := plot.New()
	p.Title.Text = "Mandelbrot: Efficiency vs. number of threads"
	p.X.Label.Text = "Number of threads p"
	p.Y.Label.Text = "Efficiency"
	p.Add(plotter.NewGrid())

	keys := make([]int, 0, len(rows))
	measured := make(plotter.XYs, len(rows))
	for i, row := range rows {
		keys = append(keys, row.Key)
		measured[i] = plotter.XY{X: float64(row.Key), Y: row.Efficiency}
	}
	p.X.Tick.Marker = threadTicks{keys: keys}
	p.Y.Min = 0
	p.Y.Max = 1.05

	line, scatter, err := measuredSeries(measured, measuredGreen)
	if err != nil {
		return err
	}

	p.Add(line, scatter)
	p.Legend.Add("Measured efficiency", line)
	p.Legend.Top = true

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

func measuredSeries(pts plotter.XYs, c color.Color) (*plotter.Line, *plotter.Scatter, error) {
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, nil, err
	}
	line.LineStyle.Color = c
	line.LineStyle.Width = vg.Points(1)

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, nil, err
	}
	scatter.GlyphStyle.Color = c
	scatter.GlyphStyle.Radius = vg.Points(2.5)

	return line, scatter, nil
}
