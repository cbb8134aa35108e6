// Package lammpstrj reads LAMMPS trajectory (dump) files and removes the
// periodic boundary conditions from them.
package lammpstrj

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	v3 "github.com/rmera/gochem/v3"
)

// header holds the 9 lines preceding the atoms of a configuration.
type header struct {
	lines []string // raw lines, newline included
	atoms int
	box   [3]float64
	cols  []string // column names after "ITEM: ATOMS"
}

// readHeader reads the header of the next configuration. It returns io.EOF
// when there is no configuration left.
func readHeader(r *bufio.Reader) (*header, error) {
	h := &header{lines: make([]string, 0, 9)}

	for l := 0; l < 9; l++ {
		s, err := r.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				if l == 0 && s == "" {
					return nil, io.EOF
				}
				if s == "" {
					return nil, fmt.Errorf("truncated header")
				}
			} else {
				return nil, err
			}
		}
		h.lines = append(h.lines, s)
	}

	if !strings.HasPrefix(h.lines[0], "ITEM: TIMESTEP") {
		return nil, fmt.Errorf("expected ITEM: TIMESTEP, got %q", strings.TrimSpace(h.lines[0]))
	}

	atoms, err := strconv.Atoi(strings.TrimSpace(h.lines[3]))
	if err != nil {
		return nil, fmt.Errorf("number of atoms: %w", err)
	}
	h.atoms = atoms

	// Size of the box
	for k := 0; k < 3; k++ {
		fields := strings.Fields(h.lines[5+k])
		if len(fields) < 2 {
			return nil, fmt.Errorf("unable to get the size of the box")
		}
		lmin, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("box: %w", err)
		}
		lmax, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("box: %w", err)
		}
		h.box[k] = lmax - lmin
	}

	fields := strings.Fields(h.lines[8])
	if len(fields) <= 2 {
		return nil, fmt.Errorf("not enough columns")
	}
	h.cols = fields[2:] // Omission of ITEM: ATOMS

	return h, nil
}

// columns finds the position of the named columns. ok is false when one of
// them is missing.
func columns(cols []string, names ...string) (pos []int, ok bool) {
	pos = make([]int, len(names))
	for i, n := range names {
		pos[i] = -1
		for k, c := range cols {
			if c == n {
				pos[i] = k
				break
			}
		}
		if pos[i] < 0 {
			return nil, false
		}
	}
	return pos, true
}

// Cursor reads a LAMMPS trajectory frame by frame. Unwrapped coordinates
// (xu yu zu) are preferred over wrapped ones (x y z). Atoms are ordered by
// the id column when there is one, by file order otherwise.
type Cursor struct {
	path   string
	natoms int

	f *os.File
	r *bufio.Reader

	cols    [3]int
	vcols   []int
	idCol   int
	colsTot int
	colsRaw string

	coords *v3.Matrix
	vel    [][3]float64
	box    [3]float64
	cur    int
	err    error
}

// Open opens a LAMMPS trajectory of natoms atoms. natoms <= 0 disables the
// check.
func Open(path string, natoms int) (*Cursor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Cursor{path: path, natoms: natoms, f: f, r: bufio.NewReader(f), cur: -1, idCol: -1}, nil
}

// ReadHeader rewinds the file.
func (c *Cursor) ReadHeader() error {
	if _, err := c.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	c.r.Reset(c.f)
	c.cur = -1
	c.err = nil
	c.colsRaw = ""
	return nil
}

// Next reads the next configuration.
func (c *Cursor) Next() bool {
	if c.err != nil {
		return false
	}

	h, err := readHeader(c.r)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			c.err = fmt.Errorf("%s: configuration %d: %w", c.path, c.cur+1, err)
		}
		return false
	}

	if err := c.setColumns(h); err != nil {
		c.err = fmt.Errorf("%s: configuration %d: %w", c.path, c.cur+1, err)
		return false
	}
	if err := c.readAtoms(h.atoms); err != nil {
		c.err = fmt.Errorf("%s: configuration %d: %w", c.path, c.cur+1, err)
		return false
	}

	c.box = h.box
	c.cur++
	return true
}

func (c *Cursor) setColumns(h *header) error {
	if c.natoms > 0 && h.atoms != c.natoms {
		return fmt.Errorf("%d atoms in the trajectory, %d in the system", h.atoms, c.natoms)
	}

	raw := strings.Join(h.cols, " ")
	if raw == c.colsRaw {
		return nil
	}

	pos, ok := columns(h.cols, "xu", "yu", "zu")
	if !ok {
		pos, ok = columns(h.cols, "x", "y", "z")
	}
	if !ok {
		return fmt.Errorf("cannot find the columns xu yu zu or x y z")
	}
	copy(c.cols[:], pos)

	c.vcols, _ = columns(h.cols, "vx", "vy", "vz")
	c.idCol = -1
	if id, ok := columns(h.cols, "id"); ok {
		c.idCol = id[0]
	}
	c.colsTot = len(h.cols)
	c.colsRaw = raw
	return nil
}

func (c *Cursor) readAtoms(n int) error {
	if c.coords == nil || c.coords.NVecs() != n {
		c.coords = v3.Zeros(n)
	}
	if c.vcols != nil {
		if len(c.vel) != n {
			c.vel = make([][3]float64, n)
		}
	} else {
		c.vel = nil
	}

	for a := 0; a < n; a++ {
		l, err := c.r.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && l != "") {
			return fmt.Errorf("atom %d: %w", a, err)
		}

		fields := strings.Fields(l)
		if len(fields) != c.colsTot {
			return fmt.Errorf("number of columns don't match")
		}

		row := a
		if c.idCol >= 0 {
			id, err := strconv.Atoi(fields[c.idCol])
			if err != nil {
				return fmt.Errorf("atom %d: id: %w", a, err)
			}
			if id < 1 || id > n {
				return fmt.Errorf("atom id %d out of range", id)
			}
			row = id - 1
		}

		for k := 0; k < 3; k++ {
			pos, err := strconv.ParseFloat(fields[c.cols[k]], 64)
			if err != nil {
				return fmt.Errorf("atom %d: %w", a, err)
			}
			c.coords.Set(row, k, pos)

			if c.vcols != nil {
				v, err := strconv.ParseFloat(fields[c.vcols[k]], 64)
				if err != nil {
					return fmt.Errorf("atom %d: %w", a, err)
				}
				c.vel[row][k] = v
			}
		}
	}

	return nil
}

// Coords returns the coordinates of the current configuration.
func (c *Cursor) Coords() *v3.Matrix { return c.coords }

// Frame returns the index of the current configuration.
func (c *Cursor) Frame() int { return c.cur }

// Velocities returns the velocities (vx vy vz) of the current configuration,
// nil when the trajectory has none.
func (c *Cursor) Velocities() [][3]float64 {
	if c.vel == nil {
		return nil
	}
	out := make([][3]float64, len(c.vel))
	copy(out, c.vel)
	return out
}

// Box returns the size of the box of the current configuration.
func (c *Cursor) Box() [3]float64 { return c.box }

// Err returns the error that stopped Next.
func (c *Cursor) Err() error { return c.err }

// Close closes the file.
func (c *Cursor) Close() error {
	return c.f.Close()
}
