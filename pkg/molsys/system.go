// Package molsys describes the molecular system analysed along a trajectory:
// its atoms, masses, reference coordinates and atom selections.
package molsys

import (
	"fmt"
	"path/filepath"
	"strings"

	chem "github.com/rmera/gochem"
	v3 "github.com/rmera/gochem/v3"
)

// Atom is the part of an atom that doesn't change along a trajectory.
type Atom struct {
	Index   int
	Name    string
	Residue string
	ResID   int
	Chain   string
	Symbol  string
	Mass    float64
}

// System is a molecular system read from a structure file.
type System struct {
	Atoms []Atom

	mol    *chem.Molecule
	coords *v3.Matrix
}

// standard atomic masses (g/mol) used when the structure reader leaves the
// mass unset.
var masses = map[string]float64{
	"H": 1.008, "C": 12.011, "N": 14.007, "O": 15.999, "F": 18.998,
	"NA": 22.990, "MG": 24.305, "P": 30.974, "S": 32.06, "CL": 35.45,
	"K": 39.098, "CA": 40.078, "MN": 54.938, "FE": 55.845, "CO": 58.933,
	"NI": 58.693, "CU": 63.546, "ZN": 65.38, "BR": 79.904, "I": 126.90,
}

// Load reads a PDB or XYZ structure. The first model gives the reference
// coordinates.
func Load(path string) (*System, error) {
	var (
		mol *chem.Molecule
		err error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdb":
		mol, err = chem.PDBFileRead(path, false)
	case ".xyz":
		mol, err = chem.XYZFileRead(path)
	default:
		return nil, fmt.Errorf("unsupported structure format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(mol.Coords) == 0 {
		return nil, fmt.Errorf("%s contains no coordinates", path)
	}

	return New(mol, mol.Coords[0])
}

// New builds a System from a goChem molecule and its coordinates.
func New(mol *chem.Molecule, coords *v3.Matrix) (*System, error) {
	if mol.Len() != coords.NVecs() {
		return nil, fmt.Errorf("number of atoms don't match: %d in the topology, %d in the coordinates", mol.Len(), coords.NVecs())
	}

	s := &System{mol: mol, coords: coords, Atoms: make([]Atom, mol.Len())}
	for i := 0; i < mol.Len(); i++ {
		at := mol.Atom(i)
		a := Atom{
			Index:   i,
			Name:    strings.TrimSpace(at.Name),
			Residue: strings.TrimSpace(at.MolName),
			ResID:   at.MolID,
			Chain:   strings.TrimSpace(at.Chain),
			Symbol:  strings.TrimSpace(at.Symbol),
			Mass:    at.Mass,
		}

		if a.Mass <= 0 {
			m, ok := masses[strings.ToUpper(a.Symbol)]
			if !ok {
				return nil, fmt.Errorf("no mass for atom %d (%s, symbol %q)", i, a.Name, a.Symbol)
			}
			a.Mass = m
		}
		s.Atoms[i] = a
	}

	return s, nil
}

// Len returns the number of atoms.
func (s *System) Len() int {
	return len(s.Atoms)
}

// Masses returns the atomic masses in atom order.
func (s *System) Masses() []float64 {
	m := make([]float64, len(s.Atoms))
	for i, a := range s.Atoms {
		m[i] = a.Mass
	}
	return m
}

// Coords returns the coordinates read with the structure.
func (s *System) Coords() *v3.Matrix {
	return s.coords
}

// Molecule returns the goChem topology, used by the PDB writer.
func (s *System) Molecule() *chem.Molecule {
	return s.mol
}

// FromAtoms builds a System without a goChem topology. Such a System can't
// be exported as PDB.
func FromAtoms(atoms []Atom, coords *v3.Matrix) (*System, error) {
	if len(atoms) != coords.NVecs() {
		return nil, fmt.Errorf("number of atoms don't match: %d atoms, %d coordinates", len(atoms), coords.NVecs())
	}
	s := &System{coords: coords, Atoms: make([]Atom, len(atoms))}
	for i, a := range atoms {
		a.Index = i
		if a.Mass <= 0 {
			m, ok := masses[strings.ToUpper(a.Symbol)]
			if !ok {
				return nil, fmt.Errorf("no mass for atom %d (%s, symbol %q)", i, a.Name, a.Symbol)
			}
			a.Mass = m
		}
		s.Atoms[i] = a
	}
	return s, nil
}

// Names returns the element symbols, or the atom names when a symbol is
// missing.
func (s *System) Names() []string {
	n := make([]string, len(s.Atoms))
	for i, a := range s.Atoms {
		n[i] = a.Symbol
		if n[i] == "" {
			n[i] = a.Name
		}
	}
	return n
}
