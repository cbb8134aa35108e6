// Package energy provides the potential energy of trajectory frames.
//
// Energies are not computed here: they come from a table written by the
// program that ran the simulation.
package energy

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Provider returns the potential energy of a frame.
type Provider interface {
	Energy(frame int) (float64, error)
}

// Table is a Provider backed by a per-frame energy table. Each non empty
// line holds either "energy" or "frame energy"; lines starting with # are
// comments.
type Table struct {
	values map[int]float64
	n      int
}

// ReadTable reads the table stored in path.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t := &Table{values: make(map[int]float64)}
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		l := strings.TrimSpace(sc.Text())
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}

		fields := strings.Fields(l)
		frame := t.n
		var v string
		switch len(fields) {
		case 1:
			v = fields[0]
		case 2:
			frame, err = strconv.Atoi(fields[0])
			if err != nil {
				// Header row such as "Frame Energy".
				if t.n == 0 && len(t.values) == 0 {
					continue
				}
				return nil, fmt.Errorf("%s:%d: frame: %w", path, line, err)
			}
			v = fields[1]
		default:
			return nil, fmt.Errorf("%s:%d: expected 1 or 2 columns, got %d", path, line, len(fields))
		}

		e, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: energy: %w", path, line, err)
		}
		if _, ok := t.values[frame]; ok {
			return nil, fmt.Errorf("%s:%d: frame %d given twice", path, line, frame)
		}
		t.values[frame] = e
		t.n++
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if t.n == 0 {
		return nil, fmt.Errorf("%s: no energy", path)
	}
	return t, nil
}

// Len returns the number of frames in the table.
func (t *Table) Len() int {
	return t.n
}

// Energy returns the energy of frame.
func (t *Table) Energy(frame int) (float64, error) {
	e, ok := t.values[frame]
	if !ok {
		return 0, fmt.Errorf("no energy for frame %d", frame)
	}
	return e, nil
}

// Deltas returns the energy of frames 0 to n-1 relative to frame 0.
func Deltas(p Provider, n int) ([]float64, error) {
	if n <= 0 {
		return nil, nil
	}

	e0, err := p.Energy(0)
	if err != nil {
		return nil, err
	}

	out := make([]float64, n)
	for i := 1; i < n; i++ {
		e, err := p.Energy(i)
		if err != nil {
			return nil, err
		}
		out[i] = e - e0
	}
	return out, nil
}
