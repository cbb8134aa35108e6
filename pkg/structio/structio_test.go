package structio

import (
	"os"
	"path/filepath"
	"testing"

	v3 "github.com/rmera/gochem/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpotier/trajanalysis/pkg/molsys"
)

func frame() *v3.Matrix {
	c := v3.Zeros(3)
	rows := [][3]float64{
		{0.1234567891, -12.000000321, 3.5},
		{1e-7, 123.456789012, -0.000001},
		{-98.7654321, 0, 42.4242424242},
	}
	for i, r := range rows {
		for k := 0; k < 3; k++ {
			c.Set(i, k, r[k])
		}
	}
	return c
}

func system(t *testing.T) *molsys.System {
	t.Helper()
	s, err := molsys.FromAtoms([]molsys.Atom{
		{Name: "O", Symbol: "O"}, {Name: "H1", Symbol: "H"}, {Name: "H2", Symbol: "H"},
	}, v3.Zeros(3))
	require.NoError(t, err)
	return s
}

func assertSame(t *testing.T, want, got *v3.Matrix) {
	t.Helper()
	require.Equal(t, want.NVecs(), got.NVecs())
	for i := 0; i < want.NVecs(); i++ {
		for k := 0; k < 3; k++ {
			assert.InDelta(t, want.At(i, k), got.At(i, k), 1e-6, "atom %d coord %d", i, k)
		}
	}
}

func TestExportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := frame()

	written, err := Export(dir, "mostFrequentRMS", system(t), 7, c)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "mostFrequentRMS.xyz"),
		filepath.Join(dir, "mostFrequentRMS.snap"),
	}, written)

	names, fromXYZ, err := ReadXYZ(written[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"O", "H", "H"}, names)
	assertSame(t, c, fromXYZ)

	snap, err := ReadSnapshot(written[1])
	require.NoError(t, err)
	assert.Equal(t, 7, snap.Frame)
	assert.Equal(t, []string{"O", "H", "H"}, snap.Names)
	assertSame(t, c, snap.Matrix())
}

func TestSnapshotVelocitiesAndBox(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame0.snap")
	s := NewSnapshot(0, frame())
	s.Velocities = [][3]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}
	s.Box = [3]float64{30, 31, 32}
	require.NoError(t, WriteSnapshot(path, s))

	got, err := ReadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, s.Velocities, got.Velocities)
	assert.Equal(t, s.Box, got.Box)
}

func TestReadXYZErrors(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"empty.xyz":     "",
		"count.xyz":     "three\ncomment\n",
		"short.xyz":     "2\ncomment\nO 0 0 0\n",
		"columns.xyz":   "1\ncomment\nO 0 0\n",
		"number.xyz":    "1\ncomment\nO 0 x 0\n",
		"nocomment.xyz": "1\n",
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		_, _, err := ReadXYZ(path)
		assert.Error(t, err, name)
	}
}

func TestWriteXYZMismatch(t *testing.T) {
	err := WriteXYZ(filepath.Join(t.TempDir(), "x.xyz"), []string{"O"}, frame(), "")
	assert.Error(t, err)
}

func TestWritePDBWithoutTopology(t *testing.T) {
	err := WritePDB(filepath.Join(t.TempDir(), "x.pdb"), nil, frame())
	assert.Error(t, err)
}

func TestExportPDB(t *testing.T) {
	s, err := molsys.Load("../molsys/testdata/dipeptide.pdb")
	require.NoError(t, err)

	dir := t.TempDir()
	written, err := Export(dir, "Average", s, 0, s.Coords())
	require.NoError(t, err)
	require.Len(t, written, 3)

	back, err := molsys.Load(written[2])
	require.NoError(t, err)
	assert.Equal(t, s.Len(), back.Len())
	for i := 0; i < s.Len(); i++ {
		for k := 0; k < 3; k++ {
			assert.InDelta(t, s.Coords().At(i, k), back.Coords().At(i, k), 1e-3)
		}
	}
}
