package fsutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	err := WriteFile(path, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, "Frame RG RMS")
		return err
	})
	require.NoError(t, err)
	assert.True(t, Exists(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Frame RG RMS\n", string(b))
}

func TestWriteFileError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	boom := errors.New("boom")
	err := WriteFile(path, func(w io.Writer) error { return boom })
	assert.ErrorIs(t, err, boom)

	err = WriteFile(filepath.Join(t.TempDir(), "missing", "out.log"), func(io.Writer) error { return nil })
	assert.Error(t, err)
	assert.False(t, Exists(filepath.Join(t.TempDir(), "missing")))
}
