// Package kde implements a one dimensional kernel density estimator with a
// Gaussian kernel and a fixed bandwidth.
package kde

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultBandwidth is the bandwidth used when none is given.
const DefaultBandwidth = 1.0

// Gaussian is a kernel density estimator. The zero value is not usable, use
// New.
type Gaussian struct {
	bandwidth float64
	samples   []float64
}

// New returns a Gaussian estimator with the given bandwidth.
func New(bandwidth float64) (*Gaussian, error) {
	if !(bandwidth > 0) || math.IsInf(bandwidth, 0) {
		return nil, fmt.Errorf("bandwidth must be a finite number greater than 0 (got %v)", bandwidth)
	}
	return &Gaussian{bandwidth: bandwidth}, nil
}

// Bandwidth returns the kernel bandwidth.
func (g *Gaussian) Bandwidth() float64 {
	return g.bandwidth
}

// Fit stores a copy of the samples. A later call replaces the previous fit.
func (g *Gaussian) Fit(samples []float64) error {
	if len(samples) == 0 {
		return fmt.Errorf("no samples to fit")
	}
	g.samples = append(g.samples[:0], samples...)
	return nil
}

// ScoreSamples returns the log of the estimated density at each point:
// log(1/n * sum_i N(x; s_i, h)).
func (g *Gaussian) ScoreSamples(points []float64) ([]float64, error) {
	if len(g.samples) == 0 {
		return nil, fmt.Errorf("estimator is not fitted")
	}

	logN := math.Log(float64(len(g.samples)))
	terms := make([]float64, len(g.samples))
	out := make([]float64, len(points))

	for p, x := range points {
		for i, s := range g.samples {
			terms[i] = distuv.Normal{Mu: s, Sigma: g.bandwidth}.LogProb(x)
		}
		out[p] = floats.LogSumExp(terms) - logN
	}

	return out, nil
}

// Density is exp(ScoreSamples(points)).
func (g *Gaussian) Density(points []float64) ([]float64, error) {
	d, err := g.ScoreSamples(points)
	if err != nil {
		return nil, err
	}
	for i := range d {
		d[i] = math.Exp(d[i])
	}
	return d, nil
}

// Grid2D evaluates a two dimensional product Gaussian estimator fitted on the
// paired samples (xs[i], ys[i]) at every node of the grid gx x gy. The result
// is indexed [ix][iy].
func Grid2D(xs, ys []float64, bx, by float64, gx, gy []float64) ([][]float64, error) {
	if len(xs) == 0 || len(xs) != len(ys) {
		return nil, fmt.Errorf("need paired samples (got %d and %d)", len(xs), len(ys))
	}
	if !(bx > 0) || !(by > 0) {
		return nil, fmt.Errorf("bandwidths must be greater than 0 (got %v and %v)", bx, by)
	}

	kx := make([][]float64, len(gx)) // kx[ix][i] = N(gx[ix]; xs[i], bx)
	for ix, x := range gx {
		kx[ix] = make([]float64, len(xs))
		for i, s := range xs {
			kx[ix][i] = distuv.Normal{Mu: s, Sigma: bx}.Prob(x)
		}
	}
	ky := make([][]float64, len(gy))
	for iy, y := range gy {
		ky[iy] = make([]float64, len(ys))
		for i, s := range ys {
			ky[iy][i] = distuv.Normal{Mu: s, Sigma: by}.Prob(y)
		}
	}

	n := float64(len(xs))
	out := make([][]float64, len(gx))
	for ix := range gx {
		out[ix] = make([]float64, len(gy))
		for iy := range gy {
			out[ix][iy] = floats.Dot(kx[ix], ky[iy]) / n
		}
	}
	return out, nil
}

// Silverman returns Silverman's rule of thumb bandwidth for v, or
// DefaultBandwidth when v has no spread.
func Silverman(v []float64) float64 {
	if len(v) < 2 {
		return DefaultBandwidth
	}
	sd := stat.PopStdDev(v, nil)
	if !(sd > 0) {
		return DefaultBandwidth
	}
	return 1.06 * sd * math.Pow(float64(len(v)), -0.2)
}
