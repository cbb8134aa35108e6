// Package accum accumulates per-frame descriptors while a trajectory is read.
package accum

import (
	"fmt"

	v3 "github.com/rmera/gochem/v3"

	"github.com/kpotier/trajanalysis/pkg/geom"
)

// RC is a reaction coordinate: the distance between two atoms. Label is only
// used to annotate outputs.
type RC struct {
	Label string
	Atom1 int
	Atom2 int
}

// Record is a reaction coordinate and its values, one per frame.
type Record struct {
	RC     RC
	Values []float64
}

// Series is a frozen copy of what an Accumulator collected.
type Series struct {
	RG     []float64
	RMS    []float64
	Energy []float64
	RCs    []Record
}

// Record returns the record at position i.
func (s Series) Record(i int) (Record, error) {
	if i < 0 || i >= len(s.RCs) {
		return Record{}, fmt.Errorf("reaction coordinate %d out of range (%d)", i, len(s.RCs))
	}
	return s.RCs[i], nil
}

// Labels returns the labels of the reaction coordinates in order.
func (s Series) Labels() []string {
	l := make([]string, len(s.RCs))
	for i, r := range s.RCs {
		l[i] = r.RC.Label
	}
	return l
}

// Accumulator appends descriptors frame after frame. It is not safe for
// concurrent use.
type Accumulator struct {
	rg     []float64
	rms    []float64
	energy []float64
	rcs    []Record
}

// New returns an Accumulator tracking the given reaction coordinates.
func New(rcs []RC) (*Accumulator, error) {
	a := &Accumulator{rcs: make([]Record, len(rcs))}
	for i, rc := range rcs {
		if rc.Atom1 < 0 || rc.Atom2 < 0 {
			return nil, fmt.Errorf("reaction coordinate %q: negative atom index", rc.Label)
		}
		a.rcs[i] = Record{RC: rc}
	}
	return a, nil
}

// AddGeometry appends the radius of gyration and the RMSD of one frame.
func (a *Accumulator) AddGeometry(rg, rms float64) {
	a.rg = append(a.rg, rg)
	a.rms = append(a.rms, rms)
}

// AddEnergy appends the energy of one frame.
func (a *Accumulator) AddEnergy(e float64) {
	a.energy = append(a.energy, e)
}

// AddDistances appends, for every reaction coordinate, the distance between
// its two atoms in c.
func (a *Accumulator) AddDistances(c *v3.Matrix) error {
	d := make([]float64, len(a.rcs))
	for i, r := range a.rcs {
		v, err := geom.Distance(c, r.RC.Atom1, r.RC.Atom2)
		if err != nil {
			return fmt.Errorf("%s: %w", r.RC.Label, err)
		}
		d[i] = v
	}
	for i := range a.rcs {
		a.rcs[i].Values = append(a.rcs[i].Values, d[i])
	}
	return nil
}

// Frames returns the number of frames with geometry descriptors.
func (a *Accumulator) Frames() int {
	return len(a.rg)
}

// Snapshot returns a copy of the accumulated series. Later additions do not
// change it.
func (a *Accumulator) Snapshot() Series {
	s := Series{
		RG:     clone(a.rg),
		RMS:    clone(a.rms),
		Energy: clone(a.energy),
		RCs:    make([]Record, len(a.rcs)),
	}
	for i, r := range a.rcs {
		s.RCs[i] = Record{RC: r.RC, Values: clone(r.Values)}
	}
	return s
}

func clone(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
