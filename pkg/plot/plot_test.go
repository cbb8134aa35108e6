package plot

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG")

func assertPNG(t *testing.T, path string) {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, pngMagic), "%s is not a PNG", path)
}

func TestTimeAxis(t *testing.T) {
	assert.Equal(t, []float64{0, 25, 50, 75, 100}, TimeAxis(5, 100))
	assert.Equal(t, []float64{0}, TimeAxis(1, 100))
	assert.Empty(t, TimeAxis(0, 100))
}

func TestLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis_mdRG.png")
	x := TimeAxis(4, 3)
	require.NoError(t, Line(path, "Radius of gyration", "Time (ps)", "RG (A)",
		Series{Label: "RG", X: x, Y: []float64{2, 2.1, 2, 2.2}}))
	assertPNG(t, path)

	path = filepath.Join(t.TempDir(), "DA.png")
	require.NoError(t, Line(path, "", "Time (ps)", "Distance (A)",
		Series{Label: "C1-O2", X: x, Y: []float64{1, 2, 3, 4}},
		Series{Label: "C1-H3", X: x, Y: []float64{4, 3, 2, 1}}))
	assertPNG(t, path)
}

func TestLineErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.png")
	assert.Error(t, Line(path, "", "", ""))
	assert.Error(t, Line(path, "", "", "", Series{X: []float64{0, 1}, Y: []float64{0}}))
	assert.NoFileExists(t, path)
}

func TestBiplot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rg_rmsd_biplot.png")
	require.NoError(t, Biplot(path, "RG (A)", "RMSD (A)",
		[]float64{2.0, 2.1, 2.0, 2.2, 2.0, 3.5},
		[]float64{0.1, 0.2, 0.1, 0.3, 0.1, 0.9}))
	assertPNG(t, path)

	assert.Error(t, Biplot(path, "", "", nil, nil))
	assert.Error(t, Biplot(path, "", "", []float64{1}, []float64{1, 2}))
}

func TestProbe(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Probe(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	x := TimeAxis(3, 2)
	require.NoError(t, SaveHTML(path, "run1",
		Chart{Title: "Radius of gyration", XLabel: "Time (ps)", YLabel: "RG (A)", Series: []Series{{Label: "RG", X: x, Y: []float64{1, 2, 3}}}},
		Chart{Title: "RMSD", Series: []Series{{Label: "RMSD", X: x, Y: []float64{0, 0.1, 0.2}}}},
	))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Radius of gyration")
	assert.Contains(t, string(b), "RMSD")

	err = HTML(io.Discard, "bad", Chart{Title: "mismatch", Series: []Series{
		{Label: "a", X: x, Y: []float64{1, 2, 3}},
		{Label: "b", X: x, Y: []float64{1}},
	}})
	assert.Error(t, err)
	assert.Error(t, HTML(io.Discard, "empty", Chart{Title: "none"}))
}
