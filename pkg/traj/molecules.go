package traj

import (
	"fmt"
)

// Molecules reads the center of mass of molecules from a Folder, one
// configuration at a time. Each molecule is made of At consecutive atoms of
// Atoms. With Velocities set, the mass-weighted mean velocity is read instead
// of the position.
//
// The last Mem configurations of the window are kept in memory, the others
// are read again from the folder on every GetCfg.
type Molecules struct {
	Folder     *Folder
	Atoms      []int
	At         int
	Masses     []float64 // masses of every atom of the system
	Velocities bool

	start  int
	tot    int
	memPos int
	mem    [][][3]float64
}

// Mol returns the number of molecules.
func (m *Molecules) Mol() int {
	if m.At <= 0 {
		return 0
	}
	return len(m.Atoms) / m.At
}

// Read sets the window [start, end) of configurations and puts the last mem
// ones into memory.
func (m *Molecules) Read(start, end, mem int) error {
	if m.At <= 0 || len(m.Atoms) == 0 || len(m.Atoms)%m.At != 0 {
		return fmt.Errorf("%d atoms cannot be split into molecules of %d atoms", len(m.Atoms), m.At)
	}
	for _, a := range m.Atoms {
		if a < 0 || a >= len(m.Masses) {
			return fmt.Errorf("atom %d has no mass", a)
		}
	}
	if start < 0 || end > m.Folder.Len() || end-start < 2 {
		return fmt.Errorf("invalid window [%d, %d) for %d frames", start, end, m.Folder.Len())
	}
	if mem < 0 || mem > end-start {
		return fmt.Errorf("mem cannot be lower than 0 or greater than %d", end-start)
	}

	m.start = start
	m.tot = end - start
	m.memPos = m.tot - mem
	m.mem = m.mem[:0]

	for c := m.memPos; c < m.tot; c++ {
		xyz, err := m.read(c)
		if err != nil {
			return err
		}
		m.mem = append(m.mem, xyz)
	}
	return nil
}

// GetCfg returns the centers of configuration c of the window.
func (m *Molecules) GetCfg(c int) ([][3]float64, error) {
	if c < 0 || c >= m.tot {
		return nil, fmt.Errorf("configuration %d out of range (%d)", c, m.tot)
	}
	if c >= m.memPos {
		return m.mem[c-m.memPos], nil
	}
	return m.read(c)
}

// End releases the configurations in memory.
func (m *Molecules) End() error {
	m.mem = nil
	return nil
}

func (m *Molecules) read(c int) ([][3]float64, error) {
	s, err := m.Folder.Snapshot(m.start + c)
	if err != nil {
		return nil, err
	}

	src := s.Coords
	if m.Velocities {
		if s.Velocities == nil {
			return nil, fmt.Errorf("frame %d has no velocities", m.start+c)
		}
		src = s.Velocities
	}

	xyz := make([][3]float64, m.Mol())
	for mol := range xyz {
		var mTot float64
		for a := 0; a < m.At; a++ { // Each atom of the molecule
			at := m.Atoms[mol*m.At+a]
			if at >= len(src) {
				return nil, fmt.Errorf("frame %d: atom %d out of range", m.start+c, at)
			}
			for k := 0; k < 3; k++ {
				xyz[mol][k] += src[at][k] * m.Masses[at]
			}
			mTot += m.Masses[at]
		}

		if mTot <= 0 {
			return nil, fmt.Errorf("molecule %d has no mass", mol)
		}

		// Center of mass
		for k := 0; k < 3; k++ {
			xyz[mol][k] /= mTot
		}
	}
	return xyz, nil
}
