// Package fsutil holds the file helpers shared by the writers.
package fsutil

import (
	"bufio"
	"io"
	"os"
)

// WriteFile creates path, hands a buffered writer to write and closes the file
// on every path. The first error wins.
func WriteFile(path string, write func(w io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(f)
	if err = write(w); err != nil {
		return err
	}
	return w.Flush()
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
