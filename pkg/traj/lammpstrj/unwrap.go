package lammpstrj

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kpotier/trajanalysis/pkg/fsutil"
)

// Unwrap converts x y z into xu yu zu. See the LAMMPS documentation for the
// meaning of xu yu and zu.
//
// The first configuration is made whole molecule by molecule: an atom further
// than Dist from the previous atom of its molecule is moved by one box
// length. The following configurations are unwrapped atom by atom against the
// previous one.
type Unwrap struct {
	In  string
	Out string

	At   int // atoms per molecule
	Mol  int // molecules
	Dist [3]float64
}

// Perform writes the unwrapped trajectory into Out.
func (u *Unwrap) Perform() error {
	if u.At <= 0 || u.Mol <= 0 {
		return fmt.Errorf("invalid number of atoms (%d) or molecules (%d)", u.At, u.Mol)
	}

	f, err := os.Open(u.In)
	if err != nil {
		return err
	}
	defer f.Close()
	r := bufio.NewReader(f)

	return fsutil.WriteFile(u.Out, func(w io.Writer) error {
		return u.convert(r, w)
	})
}

func (u *Unwrap) convert(r *bufio.Reader, w io.Writer) error {
	atTot := u.At * u.Mol
	corr := make([][3]float64, atTot)    // Correction (incrementation)
	lastXYZ := make([][3]float64, atTot) // Last configuration

	var cols [3]int
	for cfg := 0; ; cfg++ {
		h, err := readHeader(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				if cfg == 0 {
					return fmt.Errorf("%s: empty trajectory", u.In)
				}
				return nil
			}
			return fmt.Errorf("configuration %d: %w", cfg, err)
		}
		if h.atoms != atTot {
			return fmt.Errorf("configuration %d: %d atoms, expected %d", cfg, h.atoms, atTot)
		}

		pos, ok := columns(h.cols, "x", "y", "z")
		if !ok {
			return fmt.Errorf("configuration %d: cannot find the columns x, y, and z", cfg)
		}
		copy(cols[:], pos)

		for _, l := range h.lines[:8] {
			if _, err := io.WriteString(w, l); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, unwrappedColumns(h.cols)); err != nil {
			return err
		}

		var box2 [3]float64
		for k := range box2 {
			box2[k] = h.box[k] / 2.
		}

		var lastXYZMol [3]float64
		for a := 0; a < atTot; a++ {
			l, err := r.ReadString('\n')
			if err != nil && !(errors.Is(err, io.EOF) && l != "") {
				return fmt.Errorf("configuration %d: atom %d: %w", cfg, a, err)
			}
			fields := strings.Fields(l)
			if len(fields) != len(h.cols) {
				return fmt.Errorf("configuration %d: number of columns don't match", cfg)
			}

			for k := 0; k < 3; k++ {
				xyz, err := strconv.ParseFloat(fields[cols[k]], 64)
				if err != nil {
					return fmt.Errorf("configuration %d: atom %d: %w", cfg, a, err)
				}

				if cfg == 0 {
					// Check PBC for each atom in each molecule
					if a%u.At != 0 {
						dist := lastXYZMol[k] - xyz
						if dist > u.Dist[k] {
							xyz += h.box[k]
						} else if dist < -u.Dist[k] {
							xyz -= h.box[k]
						}
					}
					lastXYZMol[k] = xyz
					lastXYZ[a][k] = xyz
					continue
				}

				xyz += corr[a][k]
				dist := lastXYZ[a][k] - xyz
				if dist > box2[k] {
					corr[a][k] += h.box[k]
					xyz += h.box[k]
				} else if dist < -box2[k] {
					corr[a][k] -= h.box[k]
					xyz -= h.box[k]
				}
				lastXYZ[a][k] = xyz
			}

			if _, err := w.Write(appendAtom(nil, fields, cols, lastXYZ[a])); err != nil {
				return err
			}
		}
	}
}

func unwrappedColumns(cols []string) string {
	var b strings.Builder
	b.WriteString("ITEM: ATOMS")
	for _, c := range cols {
		b.WriteByte(' ')
		switch c {
		case "x", "y", "z":
			b.WriteString(c + "u") // unwrapped (see LAMMPS doc)
		default:
			b.WriteString(c)
		}
	}
	b.WriteByte('\n')
	return b.String()
}

func appendAtom(b []byte, fields []string, cols [3]int, xyz [3]float64) []byte {
	for k, v := range fields {
		if k > 0 {
			b = append(b, ' ')
		}
		switch k {
		case cols[0]:
			b = strconv.AppendFloat(b, xyz[0], 'g', -1, 64)
		case cols[1]:
			b = strconv.AppendFloat(b, xyz[1], 'g', -1, 64)
		case cols[2]:
			b = strconv.AppendFloat(b, xyz[2], 'g', -1, 64)
		default:
			b = append(b, v...)
		}
	}
	return append(b, '\n')
}
