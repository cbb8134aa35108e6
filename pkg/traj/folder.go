package traj

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rmera/gochem/traj/dcd"
	v3 "github.com/rmera/gochem/v3"

	"github.com/kpotier/trajanalysis/pkg/structio"
)

// FolderExt is the extension of frame folders.
const FolderExt = ".frames"

// FrameName returns the file name of frame i in a frame folder.
func FrameName(i int) string {
	return fmt.Sprint("frame", i, structio.ExtSnapshot)
}

// Folder is a directory holding one snapshot per frame, frame0 being the
// reference structure.
type Folder struct {
	Dir string

	frames []string
	cur    int
	snap   *structio.Snapshot
	coords *v3.Matrix
	err    error
}

// OpenFolder returns a Folder. Its header is already read.
func OpenFolder(dir string) (*Folder, error) {
	f := &Folder{Dir: dir, cur: -1}
	if err := f.ReadHeader(); err != nil {
		return nil, err
	}
	return f, nil
}

// ReadHeader lists the frames of the folder and rewinds the cursor.
func (f *Folder) ReadHeader() error {
	entries, err := os.ReadDir(f.Dir)
	if err != nil {
		return err
	}

	idx := make(map[int]string)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "frame") || !strings.HasSuffix(name, structio.ExtSnapshot) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "frame"), structio.ExtSnapshot))
		if err != nil || n < 0 {
			continue
		}
		idx[n] = name
	}

	if len(idx) == 0 {
		return fmt.Errorf("%s: no frame", f.Dir)
	}

	keys := make([]int, 0, len(idx))
	for k := range idx {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for i, k := range keys {
		if i != k {
			return fmt.Errorf("%s: frame %d is missing", f.Dir, i)
		}
	}

	f.frames = f.frames[:0]
	for _, k := range keys {
		f.frames = append(f.frames, filepath.Join(f.Dir, idx[k]))
	}
	f.cur = -1
	f.snap = nil
	f.err = nil
	return nil
}

// Len returns the number of frames.
func (f *Folder) Len() int {
	return len(f.frames)
}

// Snapshot reads frame i.
func (f *Folder) Snapshot(i int) (*structio.Snapshot, error) {
	if i < 0 || i >= len(f.frames) {
		return nil, fmt.Errorf("frame %d out of range (%d frames)", i, len(f.frames))
	}
	return structio.ReadSnapshot(f.frames[i])
}

// Next reads the next frame.
func (f *Folder) Next() bool {
	if f.err != nil || f.cur+1 >= len(f.frames) {
		return false
	}

	s, err := structio.ReadSnapshot(f.frames[f.cur+1])
	if err != nil {
		f.err = err
		return false
	}
	if f.coords == nil || f.coords.NVecs() != len(s.Coords) {
		f.coords = v3.Zeros(len(s.Coords))
	}
	for i, xyz := range s.Coords {
		for k := 0; k < 3; k++ {
			f.coords.Set(i, k, xyz[k])
		}
	}

	f.cur++
	f.snap = s
	return true
}

// Coords returns the coordinates of the current frame.
func (f *Folder) Coords() *v3.Matrix { return f.coords }

// Frame returns the index of the current frame.
func (f *Folder) Frame() int { return f.cur }

// Velocities returns the velocities of the current frame, if any.
func (f *Folder) Velocities() [][3]float64 {
	if f.snap == nil {
		return nil
	}
	return f.snap.Velocities
}

// Box returns the box of the current frame.
func (f *Folder) Box() [3]float64 {
	if f.snap == nil {
		return [3]float64{}
	}
	return f.snap.Box
}

// Err returns the error that stopped Next.
func (f *Folder) Err() error { return f.err }

// Close is a no-op; each frame file is closed after being read.
func (f *Folder) Close() error { return nil }

// Duplicate writes every frame of c into dir as frame snapshots and returns
// the number of frames written.
func Duplicate(c Cursor, dir string) (int, error) {
	if err := c.ReadHeader(); err != nil {
		return 0, fmt.Errorf("ReadHeader: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	n := 0
	for c.Next() {
		s := structio.NewSnapshot(c.Frame(), c.Coords())
		if v, ok := c.(Velocitier); ok {
			s.Velocities = v.Velocities()
		}
		if b, ok := c.(Boxer); ok {
			s.Box = b.Box()
		}
		if err := structio.WriteSnapshot(filepath.Join(dir, FrameName(n)), s); err != nil {
			return n, err
		}
		n++
	}
	if err := c.Err(); err != nil {
		return n, err
	}
	if n == 0 {
		return 0, fmt.Errorf("trajectory has no frame")
	}
	return n, nil
}

// SaveDCD writes every frame of the folder into a DCD file.
func (f *Folder) SaveDCD(path string) error {
	first, err := f.Snapshot(0)
	if err != nil {
		return err
	}

	w, err := dcd.NewWriter(path, len(first.Coords))
	if err != nil {
		return fmt.Errorf("NewWriter: %w", err)
	}
	defer w.Close()

	for i := range f.frames {
		s, err := f.Snapshot(i)
		if err != nil {
			return err
		}
		if len(s.Coords) != len(first.Coords) {
			return fmt.Errorf("frame %d: number of atoms don't match: %d and %d", i, len(s.Coords), len(first.Coords))
		}
		if err := w.WNext(s.Matrix()); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return nil
}
