package traj

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpotier/trajanalysis/pkg/structio"
)

const lammps = `ITEM: TIMESTEP
0
ITEM: NUMBER OF ATOMS
2
ITEM: BOX BOUNDS pp pp pp
0 20
0 20
0 20
ITEM: ATOMS id type xu yu zu vx vy vz
1 1 0 0 0 1 0 0
2 1 1 0 0 0 1 0
ITEM: TIMESTEP
10
ITEM: NUMBER OF ATOMS
2
ITEM: BOX BOUNDS pp pp pp
0 20
0 20
0 20
ITEM: ATOMS id type xu yu zu vx vy vz
1 1 0.5 0 0 1 0 0
2 1 1.5 0 0 0 1 0
ITEM: TIMESTEP
20
ITEM: NUMBER OF ATOMS
2
ITEM: BOX BOUNDS pp pp pp
0 20
0 20
0 20
ITEM: ATOMS id type xu yu zu vx vy vz
1 1 1 0 0 1 0 0
2 1 2 0 0 0 1 0
`

func lammpsFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.lammpstrj")
	require.NoError(t, os.WriteFile(path, []byte(lammps), 0o644))
	return path
}

func TestTypeOf(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]struct {
		path string
		want Type
		err  bool
	}{
		"dcd":       {"md.DCD", TDCD, false},
		"lammpstrj": {"md.lammpstrj", TLammpstrj, false},
		"folder":    {dir, TFolder, false},
		"xtc":       {"md.xtc", "", true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := TypeOf(tc.path)
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFolderPath(t *testing.T) {
	assert.Equal(t, filepath.Join("md", "run.frames"), FolderPath(filepath.Join("md", "run.dcd")))
}

func TestPrepare(t *testing.T) {
	path := lammpsFile(t)

	f, err := Prepare(path, 2)
	require.NoError(t, err)
	assert.Equal(t, FolderPath(path), f.Dir)
	assert.Equal(t, 3, f.Len())

	s, err := f.Snapshot(1)
	require.NoError(t, err)
	assert.Equal(t, [][3]float64{{0.5, 0, 0}, {1.5, 0, 0}}, s.Coords)
	assert.Equal(t, [][3]float64{{1, 0, 0}, {0, 1, 0}}, s.Velocities)
	assert.Equal(t, [3]float64{20, 20, 20}, s.Box)

	var frames []int
	for f.Next() {
		frames = append(frames, f.Frame())
		assert.Equal(t, 2, f.Coords().NVecs())
	}
	require.NoError(t, f.Err())
	assert.Equal(t, []int{0, 1, 2}, frames)
	assert.Equal(t, 2., f.Coords().At(1, 0))

	// The folder is reused, even though the trajectory is gone.
	require.NoError(t, os.Remove(path))
	f, err = Prepare(path, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, f.Len())
}

func TestPrepareWrongAtoms(t *testing.T) {
	_, err := Prepare(lammpsFile(t), 5)
	assert.Error(t, err)
}

func TestFolderMissingFrame(t *testing.T) {
	dir := t.TempDir()
	f, err := Prepare(lammpsFile(t), 2)
	require.NoError(t, err)

	s, err := f.Snapshot(0)
	require.NoError(t, err)
	require.NoError(t, structio.WriteSnapshot(filepath.Join(dir, FrameName(0)), s))
	require.NoError(t, structio.WriteSnapshot(filepath.Join(dir, FrameName(2)), s))

	_, err = OpenFolder(dir)
	assert.Error(t, err)

	_, err = OpenFolder(t.TempDir())
	assert.Error(t, err)

	_, err = f.Snapshot(3)
	assert.Error(t, err)
}

func TestSaveDCD(t *testing.T) {
	f, err := Prepare(lammpsFile(t), 2)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "run.dcd")
	require.NoError(t, f.SaveDCD(out))

	d, err := Prepare(out, 2)
	require.NoError(t, err)
	require.Equal(t, f.Len(), d.Len())

	for i := 0; i < f.Len(); i++ {
		want, err := f.Snapshot(i)
		require.NoError(t, err)
		got, err := d.Snapshot(i)
		require.NoError(t, err)
		require.Len(t, got.Coords, len(want.Coords))
		for a := range want.Coords {
			assert.InDeltaSlice(t, want.Coords[a][:], got.Coords[a][:], 1e-4, "frame %d atom %d", i, a)
		}
		assert.Nil(t, got.Velocities)
	}

	c, err := OpenDCD(out, 3)
	require.NoError(t, err)
	defer c.Close()
	assert.Error(t, c.ReadHeader(), "wrong number of atoms")
}

func TestSaveDCDEmpty(t *testing.T) {
	out := filepath.Join(t.TempDir(), "run.dcd")
	assert.Error(t, (&Folder{Dir: t.TempDir()}).SaveDCD(out))
}

func TestPrepareBrokenFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lammpstrj")
	broken := strings.Replace(lammps, "1 1 1 0 0 1 0 0", "1 1 x 0 0 1 0 0", 1)
	require.NotEqual(t, lammps, broken)
	require.NoError(t, os.WriteFile(path, []byte(broken), 0o644))

	_, err := Prepare(path, 2)
	require.Error(t, err)
	assert.NoDirExists(t, FolderPath(path))
	assert.NoDirExists(t, FolderPath(path)+".tmp")

	// The partial frames are not picked up by the next run.
	_, err = Prepare(path, 2)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(lammps), 0o644))
	f, err := Prepare(path, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, f.Len())
}

func TestMolecules(t *testing.T) {
	f, err := Prepare(lammpsFile(t), 2)
	require.NoError(t, err)

	m := &Molecules{Folder: f, Atoms: []int{0, 1}, At: 2, Masses: []float64{1, 3}}
	assert.Equal(t, 1, m.Mol())
	require.NoError(t, m.Read(0, 3, 1))
	defer m.End()

	for c, want := range []float64{0.75, 1.25, 1.75} {
		xyz, err := m.GetCfg(c)
		require.NoError(t, err)
		require.Len(t, xyz, 1)
		assert.InDelta(t, want, xyz[0][0], 1e-12, "configuration %d", c)
	}
	_, err = m.GetCfg(3)
	assert.Error(t, err)

	v := &Molecules{Folder: f, Atoms: []int{0, 1}, At: 2, Masses: []float64{1, 3}, Velocities: true}
	require.NoError(t, v.Read(1, 3, 0))
	xyz, err := v.GetCfg(0)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.25, 0.75, 0}, xyz[0][:], 1e-12)
}

func TestMoleculesInvalid(t *testing.T) {
	f, err := Prepare(lammpsFile(t), 2)
	require.NoError(t, err)

	tests := map[string]struct {
		m          *Molecules
		start, end int
		mem        int
	}{
		"split":  {&Molecules{Folder: f, Atoms: []int{0, 1}, At: 3, Masses: []float64{1, 1}}, 0, 3, 0},
		"mass":   {&Molecules{Folder: f, Atoms: []int{0, 5}, At: 1, Masses: []float64{1, 1}}, 0, 3, 0},
		"window": {&Molecules{Folder: f, Atoms: []int{0, 1}, At: 1, Masses: []float64{1, 1}}, 0, 4, 0},
		"short":  {&Molecules{Folder: f, Atoms: []int{0, 1}, At: 1, Masses: []float64{1, 1}}, 2, 3, 0},
		"mem":    {&Molecules{Folder: f, Atoms: []int{0, 1}, At: 1, Masses: []float64{1, 1}}, 0, 3, 4},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, tc.m.Read(tc.start, tc.end, tc.mem))
		})
	}
}
