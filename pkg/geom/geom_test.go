package geom

import (
	"math"
	"testing"

	v3 "github.com/rmera/gochem/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matrix(rows [][3]float64) *v3.Matrix {
	m := v3.Zeros(len(rows))
	for i, r := range rows {
		for k := 0; k < 3; k++ {
			m.Set(i, k, r[k])
		}
	}
	return m
}

var tetra = [][3]float64{
	{0, 0, 0},
	{1.5, 0, 0},
	{0, 2.0, 0},
	{0, 0, 0.7},
	{1, 1, 1},
}

func TestRadiusOfGyration(t *testing.T) {
	c := matrix([][3]float64{{-1, 0, 0}, {1, 0, 0}})
	rg, err := RadiusOfGyration(c, nil, []float64{12, 12})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rg, 1e-12)

	// A heavy atom pulls the center of mass.
	rg, err = RadiusOfGyration(c, nil, []float64{3, 1})
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(0.75), rg, 1e-12)
}

func TestCenterOfMassZeroWeight(t *testing.T) {
	_, err := CenterOfMass(matrix(tetra), []int{0, 1}, make([]float64, len(tetra)))
	assert.Error(t, err)
}

func TestSuperimposeRecoversRigidMotion(t *testing.T) {
	ref := matrix(tetra)
	moved := Clone(ref)

	th := 0.7
	for i := 0; i < moved.NVecs(); i++ {
		x, y, z := moved.At(i, 0), moved.At(i, 1), moved.At(i, 2)
		moved.Set(i, 0, math.Cos(th)*x-math.Sin(th)*y+3)
		moved.Set(i, 1, math.Sin(th)*x+math.Cos(th)*y-1)
		moved.Set(i, 2, z+0.5)
	}

	before, err := RMSD(moved, ref, nil, nil)
	require.NoError(t, err)
	assert.Greater(t, before, 1.0)

	masses := []float64{12, 1, 16, 14, 1}
	require.NoError(t, Superimpose(moved, ref, nil, masses))

	after, err := RMSD(moved, ref, nil, masses)
	require.NoError(t, err)
	assert.InDelta(t, 0, after, 1e-9)
}

func TestSuperimposeSubsetMovesAllAtoms(t *testing.T) {
	ref := matrix(tetra)
	moved := Clone(ref)
	for i := 0; i < moved.NVecs(); i++ {
		moved.Set(i, 2, moved.At(i, 2)+10)
	}

	require.NoError(t, Superimpose(moved, ref, []int{0, 1, 2}, nil))
	for i := 0; i < ref.NVecs(); i++ {
		for k := 0; k < 3; k++ {
			assert.InDelta(t, ref.At(i, k), moved.At(i, k), 1e-9)
		}
	}
}

func TestSuperimposeSizeMismatch(t *testing.T) {
	assert.Error(t, Superimpose(matrix(tetra), matrix(tetra[:2]), nil, nil))
	_, err := RMSD(matrix(tetra), matrix(tetra[:2]), nil, nil)
	assert.Error(t, err)
}

func TestDistance(t *testing.T) {
	c := matrix(tetra)
	d, err := Distance(c, 1, 2)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, d, 1e-12)

	_, err = Distance(c, 0, 9)
	assert.Error(t, err)
}

func TestAverage(t *testing.T) {
	var a Average
	_, err := a.Mean()
	assert.Error(t, err)

	require.NoError(t, a.Add(matrix([][3]float64{{0, 0, 0}, {2, 2, 2}})))
	require.NoError(t, a.Add(matrix([][3]float64{{2, 0, 0}, {4, 2, 0}})))
	assert.Error(t, a.Add(matrix(tetra)))

	m, err := a.Mean()
	require.NoError(t, err)
	assert.Equal(t, 2, a.Frames())
	assert.InDelta(t, 1.0, m.At(0, 0), 1e-12)
	assert.InDelta(t, 3.0, m.At(1, 0), 1e-12)
	assert.InDelta(t, 1.0, m.At(1, 2), 1e-12)
}
