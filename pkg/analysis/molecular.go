package analysis

import (
	"fmt"
	"path/filepath"

	v3 "github.com/rmera/gochem/v3"

	"github.com/kpotier/trajanalysis/pkg/cfg"
	"github.com/kpotier/trajanalysis/pkg/msd"
	"github.com/kpotier/trajanalysis/pkg/plot"
	"github.com/kpotier/trajanalysis/pkg/rdf"
	"github.com/kpotier/trajanalysis/pkg/traj"
	"github.com/kpotier/trajanalysis/pkg/vac"
)

// RDF accumulates the radial distribution function between two selections
// over the trajectory. It writes <prefix>_<name>_rdf.log and its plot.
func (a *Analysis) RDF(c cfg.RDF) error {
	sel1, err := a.System.Select(c.Selection1)
	if err != nil {
		return fmt.Errorf("rdf %s: %w", c.Name, err)
	}
	var sel2 []int
	if c.Selection2 != "" {
		if sel2, err = a.System.Select(c.Selection2); err != nil {
			return fmt.Errorf("rdf %s: %w", c.Name, err)
		}
	}

	r, err := rdf.New(sel1, sel2, c.Bins, c.RMax)
	if err != nil {
		return fmt.Errorf("rdf %s: %w", c.Name, err)
	}

	err = a.each(func(_ int, m *v3.Matrix) error {
		box := a.Folder.Box()
		if box == ([3]float64{}) {
			box = a.Opts.Box
		}
		return r.Add(m, box)
	})
	if err != nil {
		return fmt.Errorf("rdf %s: %w", c.Name, err)
	}

	path := fmt.Sprint(a.Prefix(), "_", c.Name, "_rdf.log")
	if err := r.Write(path); err != nil {
		return ioError("rdf "+c.Name, err)
	}
	a.written(path)

	dist, g, err := r.Result()
	if err != nil {
		return fmt.Errorf("rdf %s: %w", c.Name, err)
	}
	return a.image(fmt.Sprint(a.Prefix(), "_", c.Name, "_rdf.png"), func(path string) error {
		return plot.Line(path, c.Name, "Distance (A)", "g(r)", plot.Series{X: dist, Y: g})
	})
}

// molecules returns the molecules of c over the frame folder.
func (a *Analysis) molecules(c cfg.Molecular, velocities bool) (*traj.Molecules, int, error) {
	sel, err := a.System.Select(c.Selection)
	if err != nil {
		return nil, 0, err
	}
	m := &traj.Molecules{
		Folder:     a.Folder,
		Atoms:      sel,
		At:         c.AtomsPerMolecule,
		Masses:     a.System.Masses(),
		Velocities: velocities,
	}

	end := c.End
	if end == 0 {
		end = a.Folder.Len()
	}
	return m, end, nil
}

// SDF computes the self diffusion function of the molecules of c. It writes
// <prefix>_<name>_sdf.log and its plot.
func (a *Analysis) SDF(c cfg.Molecular) error {
	m, end, err := a.molecules(c, false)
	if err != nil {
		return fmt.Errorf("sdf %s: %w", c.Name, err)
	}

	s := &msd.MSD{
		Method: m,
		Start:  c.Start,
		End:    end,
		Mem:    c.Mem,
		Mol:    m.Mol(),
		Dt:     a.Dt(),
	}
	if err := s.Perform(); err != nil {
		return fmt.Errorf("sdf %s: %w", c.Name, err)
	}

	path := fmt.Sprint(a.Prefix(), "_", c.Name, "_sdf.log")
	if err := s.Write(path); err != nil {
		return ioError("sdf "+c.Name, err)
	}
	a.written(path)

	return a.image(fmt.Sprint(a.Prefix(), "_", c.Name, "_sdf.png"), func(path string) error {
		return plot.Line(path, c.Name, timeLabel, "SDF (A^2)", plot.Series{X: s.Times(), Y: s.Res})
	})
}

// VAC computes the velocity autocorrelation function of the molecules of c.
// The frames must carry velocities. It writes <prefix>_<name>_vac.log.
func (a *Analysis) VAC(c cfg.Molecular) error {
	path := fmt.Sprint(a.Prefix(), "_", c.Name, "_vac.log")
	s, err := a.Folder.Snapshot(c.Start)
	if err != nil {
		return fmt.Errorf("vac %s: %w", c.Name, err)
	}
	if s.Velocities == nil {
		a.skip(filepath.Base(path), "no velocity in the trajectory")
		return nil
	}

	m, end, err := a.molecules(c, true)
	if err != nil {
		return fmt.Errorf("vac %s: %w", c.Name, err)
	}

	v := &vac.VAC{
		Method: m,
		Start:  c.Start,
		End:    end,
		Mem:    c.Mem,
		Mol:    m.Mol(),
		Dt:     a.Dt(),
	}
	if err := v.Perform(); err != nil {
		return fmt.Errorf("vac %s: %w", c.Name, err)
	}

	if err := v.Write(path); err != nil {
		return ioError("vac "+c.Name, err)
	}
	a.written(path)
	return nil
}
