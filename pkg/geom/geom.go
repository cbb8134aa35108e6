// Package geom implements the geometric descriptors computed on each frame:
// mass weighted center of mass, radius of gyration, RMSD, superposition and
// interatomic distances. Coordinates are goChem matrices (one atom per row).
package geom

import (
	"fmt"
	"math"

	v3 "github.com/rmera/gochem/v3"
	"gonum.org/v1/gonum/mat"
)

// all returns sel, or every atom index of c when sel is nil.
func all(c *v3.Matrix, sel []int) []int {
	if sel != nil {
		return sel
	}
	n := c.NVecs()
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func weight(w []float64, i int) float64 {
	if w == nil {
		return 1
	}
	return w[i]
}

// CenterOfMass returns the weighted center of the atoms sel of c. A nil sel
// selects every atom, nil weights are uniform.
func CenterOfMass(c *v3.Matrix, sel []int, w []float64) ([3]float64, error) {
	var com [3]float64
	var wTot float64
	for _, i := range all(c, sel) {
		wi := weight(w, i)
		for k := 0; k < 3; k++ {
			com[k] += c.At(i, k) * wi
		}
		wTot += wi
	}
	if wTot == 0 {
		return com, fmt.Errorf("total weight of the selection is 0")
	}
	for k := 0; k < 3; k++ {
		com[k] /= wTot
	}
	return com, nil
}

// RadiusOfGyration returns sqrt(sum w_i |r_i - com|^2 / sum w_i).
func RadiusOfGyration(c *v3.Matrix, sel []int, w []float64) (float64, error) {
	com, err := CenterOfMass(c, sel, w)
	if err != nil {
		return 0, err
	}

	var sum, wTot float64
	for _, i := range all(c, sel) {
		wi := weight(w, i)
		for k := 0; k < 3; k++ {
			d := c.At(i, k) - com[k]
			sum += wi * d * d
		}
		wTot += wi
	}
	return math.Sqrt(sum / wTot), nil
}

// RMSD returns the weighted root mean square deviation between c and ref over
// sel, without fitting. Call Superimpose first for the fitted value.
func RMSD(c, ref *v3.Matrix, sel []int, w []float64) (float64, error) {
	if c.NVecs() != ref.NVecs() {
		return 0, fmt.Errorf("number of atoms don't match: %d and %d", c.NVecs(), ref.NVecs())
	}

	var sum, wTot float64
	for _, i := range all(c, sel) {
		wi := weight(w, i)
		for k := 0; k < 3; k++ {
			d := c.At(i, k) - ref.At(i, k)
			sum += wi * d * d
		}
		wTot += wi
	}
	if wTot == 0 {
		return 0, fmt.Errorf("total weight of the selection is 0")
	}
	return math.Sqrt(sum / wTot), nil
}

// Superimpose moves every atom of c so that the atoms sel are optimally
// fitted onto ref (weighted Kabsch algorithm).
func Superimpose(c, ref *v3.Matrix, sel []int, w []float64) error {
	if c.NVecs() != ref.NVecs() {
		return fmt.Errorf("number of atoms don't match: %d and %d", c.NVecs(), ref.NVecs())
	}

	comC, err := CenterOfMass(c, sel, w)
	if err != nil {
		return err
	}
	comR, err := CenterOfMass(ref, sel, w)
	if err != nil {
		return err
	}

	// Weighted covariance H = sum w_i (x_i - comC)(y_i - comR)^T
	h := mat.NewDense(3, 3, nil)
	for _, i := range all(c, sel) {
		wi := weight(w, i)
		for a := 0; a < 3; a++ {
			xa := c.At(i, a) - comC[a]
			for b := 0; b < 3; b++ {
				yb := ref.At(i, b) - comR[b]
				h.Set(a, b, h.At(a, b)+wi*xa*yb)
			}
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(h, mat.SVDFull); !ok {
		return fmt.Errorf("SVD factorization failed")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// Proper rotation only
	d := 1.0
	if mat.Det(&u)*mat.Det(&v) < 0 {
		d = -1.0
	}
	corr := mat.NewDiagDense(3, []float64{1, 1, d})

	var vd, rot mat.Dense
	vd.Mul(&v, corr)
	rot.Mul(&vd, u.T())

	for i := 0; i < c.NVecs(); i++ {
		var x [3]float64
		for k := 0; k < 3; k++ {
			x[k] = c.At(i, k) - comC[k]
		}
		for a := 0; a < 3; a++ {
			var y float64
			for b := 0; b < 3; b++ {
				y += rot.At(a, b) * x[b]
			}
			c.Set(i, a, y+comR[a])
		}
	}

	return nil
}

// Distance returns the distance between the atoms i and j.
func Distance(c *v3.Matrix, i, j int) (float64, error) {
	n := c.NVecs()
	if i < 0 || j < 0 || i >= n || j >= n {
		return 0, fmt.Errorf("atom index out of range: %d, %d (%d atoms)", i, j, n)
	}
	var sum float64
	for k := 0; k < 3; k++ {
		d := c.At(i, k) - c.At(j, k)
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// Clone returns a deep copy of c.
func Clone(c *v3.Matrix) *v3.Matrix {
	out := v3.Zeros(c.NVecs())
	for i := 0; i < c.NVecs(); i++ {
		for k := 0; k < 3; k++ {
			out.Set(i, k, c.At(i, k))
		}
	}
	return out
}

// Average accumulates frames and returns their mean position.
type Average struct {
	sum    *v3.Matrix
	frames int
}

// Add adds one frame.
func (a *Average) Add(c *v3.Matrix) error {
	if a.sum == nil {
		a.sum = v3.Zeros(c.NVecs())
	}
	if c.NVecs() != a.sum.NVecs() {
		return fmt.Errorf("number of atoms don't match: %d and %d", c.NVecs(), a.sum.NVecs())
	}
	for i := 0; i < c.NVecs(); i++ {
		for k := 0; k < 3; k++ {
			a.sum.Set(i, k, a.sum.At(i, k)+c.At(i, k))
		}
	}
	a.frames++
	return nil
}

// Frames returns the number of frames added.
func (a *Average) Frames() int {
	return a.frames
}

// Mean returns the average position.
func (a *Average) Mean() (*v3.Matrix, error) {
	if a.frames == 0 {
		return nil, fmt.Errorf("no frame added")
	}
	out := Clone(a.sum)
	for i := 0; i < out.NVecs(); i++ {
		for k := 0; k < 3; k++ {
			out.Set(i, k, out.At(i, k)/float64(a.frames))
		}
	}
	return out, nil
}
