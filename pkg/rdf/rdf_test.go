package rdf

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	v3 "github.com/rmera/gochem/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var box = [3]float64{10, 10, 10}

func pair(x1, x2 float64) *v3.Matrix {
	c := v3.Zeros(2)
	c.Set(0, 0, x1)
	c.Set(1, 0, x2)
	return c
}

func TestRDF(t *testing.T) {
	shell := 4. / 3. * math.Pi * (1.5*1.5*1.5 - 1)
	want := 1000 / shell

	tests := map[string]struct {
		sel1, sel2 []int
		c          *v3.Matrix
	}{
		"two selections": {[]int{0}, []int{1}, pair(0, 1)},
		"same selection": {[]int{0, 1}, nil, pair(0, 1)},
		"minimum image":  {[]int{0}, []int{1}, pair(0.5, 9.5)},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			r, err := New(tc.sel1, tc.sel2, 4, 2)
			require.NoError(t, err)
			require.NoError(t, r.Add(tc.c, box))
			require.NoError(t, r.Add(tc.c, box))
			assert.Equal(t, 2, r.Frames())

			dist, g, err := r.Result()
			require.NoError(t, err)
			assert.InDeltaSlice(t, []float64{0.25, 0.75, 1.25, 1.75}, dist, 1e-12)
			assert.InDeltaSlice(t, []float64{0, 0, want, 0}, g, 1e-9)
		})
	}
}

func TestRDFFarPairsIgnored(t *testing.T) {
	r, err := New([]int{0}, []int{1}, 4, 2)
	require.NoError(t, err)
	require.NoError(t, r.Add(pair(0, 4), box))

	_, g, err := r.Result()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0}, g)
}

func TestRDFErrors(t *testing.T) {
	_, err := New(nil, nil, 4, 2)
	assert.Error(t, err)
	_, err = New([]int{0}, nil, 4, 2)
	assert.Error(t, err, "a single atom has no pair")
	_, err = New([]int{0, 1}, nil, 0, 2)
	assert.Error(t, err)

	r, err := New([]int{0}, []int{5}, 4, 2)
	require.NoError(t, err)
	assert.Error(t, r.Add(pair(0, 1), box))
	assert.Error(t, r.Add(pair(0, 1), [3]float64{}))
	assert.Error(t, r.Add(pair(0, 1), [3]float64{3, 3, 3}))

	_, _, err = r.Result()
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	r, err := New([]int{0}, []int{1}, 2, 2)
	require.NoError(t, err)
	require.NoError(t, r.Add(pair(0, 1.5), box))

	path := filepath.Join(t.TempDir(), "run_OW_rdf.log")
	require.NoError(t, r.Write(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Distance(A) G(r)", lines[0])
	assert.Equal(t, "0.5 0", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "1.5 "))
}
