package plotting

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// DefaultDensityBins matches the original rendering resolution.
const DefaultDensityBins = 512

// densityGrid is a 2D histogram implementing plotter.GridXYZ. Z values
// hold log10(count+1): the linear counts are dominated by a few dense
// bins and wash out the fractal boundary.
type densityGrid struct {
	nx, ny                 int
	xmin, xmax, ymin, ymax float64
	z                      []float64 // row-major, ny rows of nx columns
}

func (g *densityGrid) Dims() (c, r int)   { return g.nx, g.ny }
func (g *densityGrid) Z(c, r int) float64 { return g.z[r*g.nx+c] }

func (g *densityGrid) X(c int) float64 {
	w := (g.xmax - g.xmin) / float64(g.nx)
	return g.xmin + (float64(c)+0.5)*w
}

func (g *densityGrid) Y(r int) float64 {
	h := (g.ymax - g.ymin) / float64(g.ny)
	return g.ymin + (float64(r)+0.5)*h
}

// binPoints accumulates points into a bins×bins histogram over their
// bounding box.
func binPoints(points plotter.XYs, bins int) (*densityGrid, error) {
	if len(points) == 0 {
		return nil, errors.New("no points to bin")
	}

	xmin, xmax := points[0].X, points[0].X
	ymin, ymax := points[0].Y, points[0].Y
	for _, pt := range points[1:] {
		xmin = math.Min(xmin, pt.X)
		xmax = math.Max(xmax, pt.X)
		ymin = math.Min(ymin, pt.Y)
		ymax = math.Max(ymax, pt.Y)
	}
	// Degenerate extents still need a nonzero bin width.
	if xmax == xmin {
		xmax = xmin + 1
	}
	if ymax == ymin {
		ymax = ymin + 1
	}

	grid := &densityGrid{
		nx: bins, ny: bins,
		xmin: xmin, xmax: xmax,
		ymin: ymin, ymax: ymax,
		z: make([]float64, bins*bins),
	}

	xw := (xmax - xmin) / float64(bins)
	yw := (ymax - ymin) / float64(bins)
	for _, pt := range points {
		c := min(int((pt.X-xmin)/xw), bins-1)
		r := min(int((pt.Y-ymin)/yw), bins-1)
		grid.z[r*bins+c]++
	}

	for i, count := range grid.z {
		grid.z[i] = math.Log10(count + 1)
	}
	return grid, nil
}

// DensityChart renders the sampled points as a log-scaled 2D histogram
// heatmap. The original tooling drew a log image and then overdrew it
// with a linear one; only the log rendering is kept here, since it is
// the one that shows the fractal boundary.
func DensityChart(points plotter.XYs, bins int, path string) error {
	grid, err := binPoints(points, bins)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Mandelbrot: point density (%dx%d bins, log scale)", bins, bins)
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	heatMap := plotter.NewHeatMap(grid, moreland.Kindlmann().Palette(256))
	p.Add(heatMap)

	return p.Save(8*vg.Inch, 8*vg.Inch, path)
}
