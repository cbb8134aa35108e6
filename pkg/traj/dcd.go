package traj

import (
	"fmt"

	chem "github.com/rmera/gochem"
	"github.com/rmera/gochem/traj/dcd"
	v3 "github.com/rmera/gochem/v3"
)

type dcdReader interface {
	Next(keep *v3.Matrix, box ...[]float64) error
	Len() int
	Close()
}

// DCD is a cursor over a CHARMM/NAMD binary trajectory.
type DCD struct {
	path   string
	natoms int

	r      dcdReader
	coords *v3.Matrix
	cur    int
	err    error
	done   bool
}

// OpenDCD opens a DCD trajectory of natoms atoms.
func OpenDCD(path string, natoms int) (*DCD, error) {
	r, err := dcd.New(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &DCD{path: path, natoms: natoms, r: r, cur: -1}, nil
}

// ReadHeader checks the number of atoms of the trajectory.
func (d *DCD) ReadHeader() error {
	if d.natoms > 0 && d.r.Len() != d.natoms {
		return fmt.Errorf("%s: %d atoms in the trajectory, %d in the system", d.path, d.r.Len(), d.natoms)
	}
	d.coords = v3.Zeros(d.r.Len())
	return nil
}

// Next reads the next frame.
func (d *DCD) Next() bool {
	if d.done || d.err != nil {
		return false
	}
	if d.coords == nil {
		d.coords = v3.Zeros(d.r.Len())
	}

	if err := d.r.Next(d.coords); err != nil {
		d.done = true
		if _, ok := err.(chem.LastFrameError); !ok {
			d.err = fmt.Errorf("%s: frame %d: %w", d.path, d.cur+1, err)
		}
		return false
	}
	d.cur++
	return true
}

// Coords returns the coordinates of the current frame.
func (d *DCD) Coords() *v3.Matrix { return d.coords }

// Frame returns the index of the current frame.
func (d *DCD) Frame() int { return d.cur }

// Err returns the error that stopped Next.
func (d *DCD) Err() error { return d.err }

// Close closes the file.
func (d *DCD) Close() error {
	d.r.Close()
	return nil
}
