package kde

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadBandwidth(t *testing.T) {
	for _, bw := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := New(bw)
		assert.Error(t, err, "bandwidth %v", bw)
	}
}

func TestScoreSamplesSinglePoint(t *testing.T) {
	g, err := New(1.0)
	require.NoError(t, err)
	require.NoError(t, g.Fit([]float64{0}))

	d, err := g.Density([]float64{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 1/math.Sqrt(2*math.Pi), d[0], 1e-12)
	assert.InDelta(t, math.Exp(-0.5)/math.Sqrt(2*math.Pi), d[1], 1e-12)
}

func TestDensityIntegratesToOne(t *testing.T) {
	g, err := New(0.5)
	require.NoError(t, err)
	require.NoError(t, g.Fit([]float64{-1, 0.2, 0.3, 2.5}))

	const step = 0.01
	var xs []float64
	for x := -10.0; x <= 12; x += step {
		xs = append(xs, x)
	}
	d, err := g.Density(xs)
	require.NoError(t, err)

	var area float64
	for _, v := range d {
		area += v * step
	}
	assert.InDelta(t, 1.0, area, 1e-3)
}

func TestScoreSamplesNotFitted(t *testing.T) {
	g, err := New(DefaultBandwidth)
	require.NoError(t, err)
	_, err = g.ScoreSamples([]float64{1})
	assert.Error(t, err)
	assert.Error(t, g.Fit(nil))
}

func TestGrid2D(t *testing.T) {
	z, err := Grid2D([]float64{0}, []float64{0}, 1, 2, []float64{0, 1}, []float64{0, 2})
	require.NoError(t, err)
	require.Len(t, z, 2)
	require.Len(t, z[0], 2)

	norm := 1 / (2 * math.Pi * 1 * 2)
	assert.InDelta(t, norm, z[0][0], 1e-12)
	assert.InDelta(t, norm*math.Exp(-0.5), z[1][0], 1e-12)
	assert.InDelta(t, norm*math.Exp(-0.5), z[0][1], 1e-12)
	assert.InDelta(t, norm*math.Exp(-1), z[1][1], 1e-12)

	_, err = Grid2D([]float64{0, 1}, []float64{0}, 1, 1, nil, nil)
	assert.Error(t, err)
	_, err = Grid2D([]float64{0}, []float64{0}, 0, 1, nil, nil)
	assert.Error(t, err)
}

func TestSilverman(t *testing.T) {
	assert.Equal(t, DefaultBandwidth, Silverman([]float64{3}))
	assert.Equal(t, DefaultBandwidth, Silverman([]float64{2, 2, 2}))
	// sd = 1, n = 2
	assert.InDelta(t, 1.06*math.Pow(2, -0.2), Silverman([]float64{-1, 1}), 1e-12)
}
