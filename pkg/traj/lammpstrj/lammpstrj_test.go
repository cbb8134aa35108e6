package lammpstrj

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoFrames = `ITEM: TIMESTEP
0
ITEM: NUMBER OF ATOMS
2
ITEM: BOX BOUNDS pp pp pp
0 10
0 10
0 10
ITEM: ATOMS id type x y z vx vy vz
1 1 1 5 5 -1 0 0
2 1 9.5 5 5 0.1 0.2 0.3
ITEM: TIMESTEP
100
ITEM: NUMBER OF ATOMS
2
ITEM: BOX BOUNDS pp pp pp
0 10
0 10
0 10
ITEM: ATOMS id type x y z vx vy vz
1 1 9.8 5 5 -1 0 0
2 1 9.6 5 5 0.1 0.2 0.3
`

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCursor(t *testing.T) {
	path := write(t, "water.lammpstrj", twoFrames)
	c, err := Open(path, 2)
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.ReadHeader())

	require.True(t, c.Next())
	assert.Equal(t, 0, c.Frame())
	assert.Equal(t, [3]float64{10, 10, 10}, c.Box())
	assert.Equal(t, 1., c.Coords().At(0, 0))
	assert.Equal(t, 9.5, c.Coords().At(1, 0))
	assert.Equal(t, [][3]float64{{-1, 0, 0}, {0.1, 0.2, 0.3}}, c.Velocities())

	require.True(t, c.Next())
	assert.Equal(t, 1, c.Frame())
	assert.Equal(t, 9.8, c.Coords().At(0, 0))

	assert.False(t, c.Next())
	assert.NoError(t, c.Err())

	// ReadHeader rewinds.
	require.NoError(t, c.ReadHeader())
	require.True(t, c.Next())
	assert.Equal(t, 0, c.Frame())
}

func TestCursorOrdersByID(t *testing.T) {
	swapped := strings.Replace(twoFrames, "1 1 1 5 5 -1 0 0\n2 1 9.5 5 5 0.1 0.2 0.3", "2 1 9.5 5 5 0.1 0.2 0.3\n1 1 1 5 5 -1 0 0", 1)
	c, err := Open(write(t, "water.lammpstrj", swapped), 0)
	require.NoError(t, err)
	defer c.Close()

	require.True(t, c.Next())
	assert.Equal(t, 1., c.Coords().At(0, 0))
	assert.Equal(t, 9.5, c.Coords().At(1, 0))
}

func TestCursorErrors(t *testing.T) {
	tests := map[string]struct {
		content string
		natoms  int
	}{
		"atoms":   {twoFrames, 3},
		"columns": {strings.ReplaceAll(twoFrames, "id type x y z", "id type a b c"), 2},
		"short":   {strings.Replace(twoFrames, "2 1 9.5 5 5 0.1 0.2 0.3", "2 1 9.5", 1), 2},
		"header":  {"ITEM: STEP\n" + twoFrames[len("ITEM: TIMESTEP\n"):], 2},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			c, err := Open(write(t, "bad.lammpstrj", tc.content), tc.natoms)
			require.NoError(t, err)
			defer c.Close()

			assert.False(t, c.Next())
			assert.Error(t, c.Err())
		})
	}
}

func TestUnwrap(t *testing.T) {
	in := write(t, "wrapped.lammpstrj", twoFrames)
	out := filepath.Join(filepath.Dir(in), "unwrapped.lammpstrj")

	u := &Unwrap{In: in, Out: out, At: 2, Mol: 1, Dist: [3]float64{5, 5, 5}}
	require.NoError(t, u.Perform())

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), "ITEM: ATOMS id type xu yu zu vx vy vz\n")

	c, err := Open(out, 2)
	require.NoError(t, err)
	defer c.Close()

	require.True(t, c.Next())
	assert.InDelta(t, 1., c.Coords().At(0, 0), 1e-12)
	assert.InDelta(t, -0.5, c.Coords().At(1, 0), 1e-12) // made whole

	require.True(t, c.Next())
	assert.InDelta(t, -0.2, c.Coords().At(0, 0), 1e-12)
	assert.InDelta(t, -0.4, c.Coords().At(1, 0), 1e-12)
	assert.InDelta(t, 5., c.Coords().At(1, 1), 1e-12)

	assert.False(t, c.Next())
	require.NoError(t, c.Err())
}

func TestUnwrapInvalid(t *testing.T) {
	u := &Unwrap{In: "missing", Out: filepath.Join(t.TempDir(), "out")}
	assert.Error(t, u.Perform())
}
