package energy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "energies.dat")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadTable(t *testing.T) {
	tests := map[string]string{
		"one column":  "# kJ/mol\n-100\n-98.5\n-101\n",
		"two columns": "Frame Energy\n0 -100\n1 -98.5\n\n2 -101\n",
		"unordered":   "2 -101\n0 -100\n1 -98.5\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			tab, err := ReadTable(write(t, content))
			require.NoError(t, err)
			assert.Equal(t, 3, tab.Len())

			d, err := Deltas(tab, 3)
			require.NoError(t, err)
			assert.InDeltaSlice(t, []float64{0, 1.5, -1}, d, 1e-12)
		})
	}
}

func TestReadTableErrors(t *testing.T) {
	tests := map[string]string{
		"empty":     "# nothing\n",
		"columns":   "0 1 2\n",
		"energy":    "0 abc\n",
		"duplicate": "0 1\n0 2\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadTable(write(t, content))
			assert.Error(t, err)
		})
	}

	_, err := ReadTable(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestDeltasMissingFrame(t *testing.T) {
	tab, err := ReadTable(write(t, "-1\n-2\n"))
	require.NoError(t, err)

	_, err = Deltas(tab, 3)
	assert.Error(t, err)

	d, err := Deltas(tab, 0)
	require.NoError(t, err)
	assert.Nil(t, d)
}
