// Package structio reads and writes single structures: a human readable XYZ
// file, a CBOR snapshot and, for molecular viewers, a PDB file.
//
// XYZ and snapshot files round-trip coordinates; PDB files hold 3 decimals.
package structio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	chem "github.com/rmera/gochem"
	v3 "github.com/rmera/gochem/v3"

	"github.com/kpotier/trajanalysis/pkg/fsutil"
)

// Extensions of the exported files.
const (
	ExtXYZ      = ".xyz"
	ExtSnapshot = ".snap"
	ExtPDB      = ".pdb"
)

// Snapshot is the serialized state of one frame.
type Snapshot struct {
	Frame      int          `cbor:"frame"`
	Names      []string     `cbor:"names,omitempty"`
	Coords     [][3]float64 `cbor:"coords"`
	Velocities [][3]float64 `cbor:"velocities,omitempty"`
	Box        [3]float64   `cbor:"box"`
}

// NewSnapshot copies the coordinates of c into a Snapshot.
func NewSnapshot(frame int, c *v3.Matrix) *Snapshot {
	s := &Snapshot{Frame: frame, Coords: make([][3]float64, c.NVecs())}
	for i := range s.Coords {
		for k := 0; k < 3; k++ {
			s.Coords[i][k] = c.At(i, k)
		}
	}
	return s
}

// Matrix returns the coordinates as a goChem matrix.
func (s *Snapshot) Matrix() *v3.Matrix {
	c := v3.Zeros(len(s.Coords))
	for i, xyz := range s.Coords {
		for k := 0; k < 3; k++ {
			c.Set(i, k, xyz[k])
		}
	}
	return c
}

// WriteSnapshot encodes s into path.
func WriteSnapshot(path string, s *Snapshot) error {
	return fsutil.WriteFile(path, func(w io.Writer) error {
		return cbor.NewEncoder(w).Encode(s)
	})
}

// ReadSnapshot decodes the snapshot stored in path.
func ReadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var s Snapshot
	if err := cbor.NewDecoder(bufio.NewReader(f)).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &s, nil
}

// WriteXYZ writes names and c into an XYZ file. Coordinates keep 10 decimals.
func WriteXYZ(path string, names []string, c *v3.Matrix, comment string) error {
	if len(names) != c.NVecs() {
		return fmt.Errorf("number of atoms don't match: %d names, %d coordinates", len(names), c.NVecs())
	}

	return fsutil.WriteFile(path, func(w io.Writer) error {
		fmt.Fprintln(w, c.NVecs())
		fmt.Fprintln(w, strings.ReplaceAll(comment, "\n", " "))

		var b []byte
		for i := 0; i < c.NVecs(); i++ {
			b = append(b[:0], names[i]...)
			for k := 0; k < 3; k++ {
				b = append(b, ' ')
				b = strconv.AppendFloat(b, c.At(i, k), 'f', 10, 64)
			}
			b = append(b, '\n')
			if _, err := w.Write(b); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadXYZ reads the first structure of an XYZ file.
func ReadXYZ(path string) ([]string, *v3.Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return nil, nil, fmt.Errorf("%s: missing number of atoms", path)
	}
	n, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: number of atoms: %w", path, err)
	}
	if !sc.Scan() {
		return nil, nil, fmt.Errorf("%s: missing comment line", path)
	}

	names := make([]string, n)
	c := v3.Zeros(n)
	for i := 0; i < n; i++ {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return nil, nil, err
			}
			return nil, nil, fmt.Errorf("%s: expected %d atoms, got %d", path, n, i)
		}

		fields := strings.Fields(sc.Text())
		if len(fields) < 4 {
			return nil, nil, fmt.Errorf("%s: line %d: not enough columns", path, i+3)
		}
		names[i] = fields[0]
		for k := 0; k < 3; k++ {
			v, err := strconv.ParseFloat(fields[k+1], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: line %d: %w", path, i+3, err)
			}
			c.Set(i, k, v)
		}
	}

	return names, c, nil
}

// WritePDB writes c with the topology of mol.
func WritePDB(path string, mol *chem.Molecule, c *v3.Matrix) error {
	if mol == nil {
		return fmt.Errorf("no topology to write a PDB file")
	}
	if mol.Len() != c.NVecs() {
		return fmt.Errorf("number of atoms don't match: %d in the topology, %d coordinates", mol.Len(), c.NVecs())
	}
	return chem.PDBFileWrite(path, c, mol, nil)
}

// Structure is what Export needs to know about the system.
type Structure interface {
	Names() []string
	Molecule() *chem.Molecule
}

// Export writes dir/base.xyz and dir/base.snap and, when the structure has a
// topology, dir/base.pdb. It returns the files written.
func Export(dir, base string, st Structure, frame int, c *v3.Matrix) ([]string, error) {
	var written []string

	xyz := filepath.Join(dir, base+ExtXYZ)
	if err := WriteXYZ(xyz, st.Names(), c, fmt.Sprintf("%s frame %d", base, frame)); err != nil {
		return written, fmt.Errorf("WriteXYZ: %w", err)
	}
	written = append(written, xyz)

	snap := NewSnapshot(frame, c)
	snap.Names = st.Names()
	snapPath := filepath.Join(dir, base+ExtSnapshot)
	if err := WriteSnapshot(snapPath, snap); err != nil {
		return written, fmt.Errorf("WriteSnapshot: %w", err)
	}
	written = append(written, snapPath)

	if mol := st.Molecule(); mol != nil {
		pdb := filepath.Join(dir, base+ExtPDB)
		if err := WritePDB(pdb, mol, c); err != nil {
			return written, fmt.Errorf("WritePDB: %w", err)
		}
		written = append(written, pdb)
	}

	return written, nil
}
