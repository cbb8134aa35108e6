// Package plot draws the figures of an analysis: PNG line plots, 2-D density
// biplots and an HTML report.
package plot

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/kpotier/trajanalysis/pkg/kde"
)

// Size of the saved figures.
var (
	Width  = 8 * vg.Inch
	Height = 5 * vg.Inch
)

// gridSize is the number of nodes per axis of a biplot.
const gridSize = 60

// Series is one curve of a line plot.
type Series struct {
	Label string
	X     []float64
	Y     []float64
}

// TimeAxis returns n times evenly spread over [0, total].
func TimeAxis(n int, total float64) []float64 {
	t := make([]float64, n)
	if n == 1 {
		return t
	}
	for i := range t {
		t[i] = total * float64(i) / float64(n-1)
	}
	return t
}

func xys(x, y []float64) (plotter.XYs, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("%d x values, %d y values", len(x), len(y))
	}
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}
	return pts, nil
}

// Line saves a line plot of series into path. The format is given by the
// extension of path.
func Line(path, title, xlabel, ylabel string, series ...Series) error {
	p, err := line(title, xlabel, ylabel, series...)
	if err != nil {
		return err
	}
	return p.Save(Width, Height, path)
}

func line(title, xlabel, ylabel string, series ...Series) (*plot.Plot, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("nothing to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())

	var colors []color.Color
	if len(series) > 1 {
		colors = palette.Rainbow(len(series), palette.Blue, palette.Red, 1, 0.8, 1).Colors()
	}
	for i, s := range series {
		pts, err := xys(s.X, s.Y)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Label, err)
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Label, err)
		}
		l.Width = vg.Points(1)
		if colors != nil {
			l.Color = colors[i]
		}
		p.Add(l)
		if s.Label != "" {
			p.Legend.Add(s.Label, l)
		}
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// grid is a plotter.GridXYZ over a density evaluated by kde.Grid2D.
type grid struct {
	x, y []float64
	z    [][]float64
}

func (g grid) Dims() (c, r int)   { return len(g.x), len(g.y) }
func (g grid) Z(c, r int) float64 { return g.z[c][r] }
func (g grid) X(c int) float64    { return g.x[c] }
func (g grid) Y(r int) float64    { return g.y[r] }

func span(v []float64, pad float64, n int) []float64 {
	lo, hi := floats.Min(v)-pad, floats.Max(v)+pad
	out := make([]float64, n)
	floats.Span(out, lo, hi)
	return out
}

// Biplot saves the 2-D kernel density of the paired samples (x[i], y[i]) as
// a heat map with the samples on top. The bandwidth of each axis follows
// Silverman's rule.
func Biplot(path, xlabel, ylabel string, x, y []float64) error {
	p, err := biplot(xlabel, ylabel, x, y)
	if err != nil {
		return err
	}
	return p.Save(Width, Width, path)
}

func biplot(xlabel, ylabel string, x, y []float64) (*plot.Plot, error) {
	pts, err := xys(x, y)
	if err != nil {
		return nil, err
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("nothing to plot")
	}

	bx, by := kde.Silverman(x), kde.Silverman(y)
	g := grid{x: span(x, 3*bx, gridSize), y: span(y, 3*by, gridSize)}
	g.z, err = kde.Grid2D(x, y, bx, by, g.x, g.y)
	if err != nil {
		return nil, fmt.Errorf("Grid2D: %w", err)
	}

	p := plot.New()
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewHeatMap(g, palette.Heat(24, 1)))

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyle.Color = color.Black
	sc.GlyphStyle.Radius = vg.Points(1)
	p.Add(sc)

	return p, nil
}

// Probe draws a small PNG to w. It fails when no image backend is usable.
func Probe(w io.Writer) error {
	p, err := line("probe", "x", "y", Series{X: []float64{0, 1}, Y: []float64{0, 1}})
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(vg.Inch, vg.Inch, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
