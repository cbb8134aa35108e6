// Package traj reads molecular dynamics trajectories frame by frame.
//
// Every reader implements Cursor: ReadHeader is called once, then Next
// advances one frame and returns false when the trajectory is exhausted or
// broken (check Err). DCD and LAMMPS trajectories are duplicated into a frame
// folder, which is the only format with random access to frames.
package traj

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	v3 "github.com/rmera/gochem/v3"

	"github.com/kpotier/trajanalysis/pkg/logging"
	"github.com/kpotier/trajanalysis/pkg/traj/lammpstrj"
)

// Type is the format of a trajectory.
type Type string

// Accepted types. Folder is a directory of frame snapshots.
const (
	TDCD       Type = "dcd"
	TLammpstrj Type = "lammpstrj"
	TFolder    Type = "folder"
)

// Cursor is a trajectory read once from the first to the last frame.
type Cursor interface {
	ReadHeader() error
	Next() bool
	// Coords returns the coordinates of the current frame. The matrix is
	// reused by the next call to Next.
	Coords() *v3.Matrix
	// Frame returns the 0-based index of the current frame.
	Frame() int
	Err() error
	Close() error
}

// Velocitier is implemented by cursors that carry velocities.
type Velocitier interface {
	Velocities() [][3]float64
}

// Boxer is implemented by cursors that carry the simulation box.
type Boxer interface {
	Box() [3]float64
}

// TypeOf guesses the type of path from its extension.
func TypeOf(path string) (Type, error) {
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		return TFolder, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dcd":
		return TDCD, nil
	case ".lammpstrj":
		return TLammpstrj, nil
	}
	return "", fmt.Errorf("unsupported trajectory %q", path)
}

// Open returns a cursor over path. natoms is the number of atoms of the
// system; DCD and LAMMPS files are checked against it.
func Open(path string, natoms int) (Cursor, error) {
	t, err := TypeOf(path)
	if err != nil {
		return nil, err
	}

	switch t {
	case TDCD:
		return OpenDCD(path, natoms)
	case TLammpstrj:
		return lammpstrj.Open(path, natoms)
	default:
		return OpenFolder(path)
	}
}

// FolderPath is the frame folder a trajectory file is duplicated into.
func FolderPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + FolderExt
}

// Prepare returns the frame folder of path, duplicating the trajectory first
// when path is a DCD or LAMMPS file. An existing folder is reused.
func Prepare(path string, natoms int) (*Folder, error) {
	t, err := TypeOf(path)
	if err != nil {
		return nil, err
	}
	if t == TFolder {
		return OpenFolder(path)
	}

	dir := FolderPath(path)
	if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
		logging.Logf("reusing frame folder %s", dir)
		return OpenFolder(dir)
	}

	c, err := Open(path, natoms)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	// Frames go into a temporary folder so a failed run never leaves a
	// truncated folder behind to be reused.
	tmp := dir + ".tmp"
	if err := os.RemoveAll(tmp); err != nil {
		return nil, err
	}
	n, err := Duplicate(c, tmp)
	if err != nil {
		os.RemoveAll(tmp)
		return nil, fmt.Errorf("Duplicate: %w", err)
	}
	if err := os.Rename(tmp, dir); err != nil {
		os.RemoveAll(tmp)
		return nil, err
	}
	logging.Logf("duplicated %d frames of %s into %s", n, path, dir)

	return OpenFolder(dir)
}
