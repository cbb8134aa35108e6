// Package rdf computes radial distribution functions g(r) between two atom
// selections, with the minimum image convention when the box is known.
package rdf

import (
	"fmt"
	"io"
	"math"
	"sort"

	v3 "github.com/rmera/gochem/v3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kpotier/trajanalysis/pkg/fsutil"
)

// RDF accumulates pair distances frame after frame.
type RDF struct {
	Sel1 []int
	Sel2 []int
	Bins int
	RMax float64

	dividers []float64
	count    []float64
	frames   int
	volume   float64 // sum over frames
	pairs    int
}

// New returns an RDF between sel1 and sel2 with bins shells up to rmax. An
// empty sel2 means sel1.
func New(sel1, sel2 []int, bins int, rmax float64) (*RDF, error) {
	if len(sel1) == 0 {
		return nil, fmt.Errorf("empty selection")
	}
	if len(sel2) == 0 {
		sel2 = sel1
	}
	if bins <= 0 || !(rmax > 0) {
		return nil, fmt.Errorf("bins (%d) and rmax (%v) must be greater than 0", bins, rmax)
	}

	r := &RDF{Sel1: sel1, Sel2: sel2, Bins: bins, RMax: rmax}
	r.dividers = make([]float64, bins+1)
	floats.Span(r.dividers, 0, rmax)
	r.count = make([]float64, bins)

	in1 := make(map[int]bool, len(sel1))
	for _, i := range sel1 {
		in1[i] = true
	}
	common := 0
	for _, j := range sel2 {
		if in1[j] {
			common++
		}
	}
	r.pairs = len(sel1)*len(sel2) - common
	if r.pairs <= 0 {
		return nil, fmt.Errorf("no pair of distinct atoms")
	}
	return r, nil
}

// Add adds the distances of one frame. box holds the lengths of an
// orthorhombic box and must be large enough to hold a sphere of radius RMax.
func (r *RDF) Add(c *v3.Matrix, box [3]float64) error {
	for k := 0; k < 3; k++ {
		if !(box[k] > 0) {
			return fmt.Errorf("the box is required")
		}
		if r.RMax > box[k]/2 {
			return fmt.Errorf("rmax (%v) greater than half the box (%v)", r.RMax, box[k])
		}
	}

	n := c.NVecs()
	var d []float64
	for _, i := range r.Sel1 {
		for _, j := range r.Sel2 {
			if i == j {
				continue
			}
			if i < 0 || j < 0 || i >= n || j >= n {
				return fmt.Errorf("atom index out of range: %d, %d (%d atoms)", i, j, n)
			}

			var sum float64
			for k := 0; k < 3; k++ {
				dk := c.At(i, k) - c.At(j, k)
				dk -= box[k] * math.Round(dk/box[k])
				sum += dk * dk
			}
			if dist := math.Sqrt(sum); dist < r.RMax {
				d = append(d, dist)
			}
		}
	}

	sort.Float64s(d)
	floats.Add(r.count, stat.Histogram(nil, r.dividers, d, nil))
	r.frames++
	r.volume += box[0] * box[1] * box[2]
	return nil
}

// Frames returns the number of frames added.
func (r *RDF) Frames() int {
	return r.frames
}

// Result returns the centers of the shells and g(r).
func (r *RDF) Result() (dist, g []float64, err error) {
	if r.frames == 0 {
		return nil, nil, fmt.Errorf("no frame added")
	}

	// Density of pairs, averaged over the frames
	rho := float64(r.pairs) / (r.volume / float64(r.frames))

	dist = make([]float64, r.Bins)
	g = make([]float64, r.Bins)
	for b := 0; b < r.Bins; b++ {
		lo, hi := r.dividers[b], r.dividers[b+1]
		dist[b] = (lo + hi) / 2
		shell := 4. / 3. * math.Pi * (hi*hi*hi - lo*lo*lo)
		g[b] = r.count[b] / (float64(r.frames) * rho * shell)
	}
	return dist, g, nil
}

// Write writes g(r) into path.
func (r *RDF) Write(path string) error {
	dist, g, err := r.Result()
	if err != nil {
		return err
	}
	return fsutil.WriteFile(path, func(w io.Writer) error {
		if _, err := fmt.Fprintln(w, "Distance(A) G(r)"); err != nil {
			return err
		}
		for i := range dist {
			if _, err := fmt.Fprintln(w, dist[i], g[i]); err != nil {
				return err
			}
		}
		return nil
	})
}
