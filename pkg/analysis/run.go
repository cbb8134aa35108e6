package analysis

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kpotier/trajanalysis/pkg/capability"
	"github.com/kpotier/trajanalysis/pkg/cfg"
	"github.com/kpotier/trajanalysis/pkg/energy"
	"github.com/kpotier/trajanalysis/pkg/logging"
	"github.com/kpotier/trajanalysis/pkg/molsys"
	"github.com/kpotier/trajanalysis/pkg/store"
	"github.com/kpotier/trajanalysis/pkg/traj"
)

// Open loads the system and the trajectory of c, converting a PBC LAMMPS
// trajectory first, and returns the Analysis of its frame folder.
func Open(c *cfg.Cfg) (*Analysis, error) {
	sys, err := molsys.Load(c.Topology)
	if err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}

	if c.PBC {
		logging.Logf("converting the PBC trajectory %s into a non PBC one", c.Traj)
		if err := c.Conv(sys.Len()); err != nil {
			return nil, fmt.Errorf("Conv: %w", err)
		}
	}

	f, err := traj.Prepare(c.Traj, sys.Len())
	if err != nil {
		return nil, fmt.Errorf("Prepare: %w", err)
	}

	caps := capability.Detect(capability.Options{
		KDE:       c.KDE,
		Bandwidth: c.Bandwidth,
		Plots:     c.Plots,
		HTML:      c.HTML,
		Database:  c.Database,
	})
	caps.Log()

	a, err := New(f, sys, Options{
		TotalTime:         c.TotalTime,
		Selection:         c.Selection,
		FallbackSelection: c.FallbackSelection,
		QCAtoms:           c.QCAtoms,
		Bandwidth:         c.Bandwidth,
		Dt:                c.Dt,
		Box:               c.Box,
		RCs:               c.RCs(),
	}, caps)
	if err != nil {
		return nil, err
	}

	if c.Energies != "" {
		t, err := energy.ReadTable(c.Energies)
		if err != nil {
			return nil, fmt.Errorf("ReadTable: %w", err)
		}
		if t.Len() < f.Len() {
			return nil, fmt.Errorf("%d energies for %d frames", t.Len(), f.Len())
		}
		a.Energy = t
	}

	return a, nil
}

type task struct {
	name string
	fn   func() error
}

// step runs one output step. Output failures are logged and the run goes
// on; any other error stops it.
func step(name string, fn func() error) error {
	logging.Logf("%s", name)
	err := fn()
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrIO) {
		logging.Logf("%s: %v", name, err)
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

// Run performs every analysis asked by c, then writes the manifest and,
// when a database is available, stores the results.
func Run(c *cfg.Cfg) (*Analysis, error) {
	a, err := Open(c)
	if err != nil {
		return nil, err
	}

	var sels []Selection
	keep := func(s *Selection) {
		if s != nil {
			sels = append(sels, *s)
		}
	}

	steps := []task{
		{"radius of gyration and RMSD", a.CalculateRGRMSD},
		{"distance analysis", a.DistanceAnalysis},
		{"RG and RMSD plots", a.PlotRGRMS},
		{"representative frames", func() error {
			s, err := a.ExtractFrames()
			keep(s)
			return err
		}},
	}
	if len(c.ReactionCoordinates) > 0 {
		steps = append(steps, task{"distance plot", a.PlotDistances})
	}
	if len(c.ReactionCoordinates) > 1 {
		steps = append(steps, task{"reaction coordinates biplot", func() error {
			s, err := a.ExtractFramesBiplot(0, 1)
			keep(s)
			return err
		}})
	}

	for _, s := range steps {
		if err := step(s.name, s.fn); err != nil {
			return a, err
		}
	}

	for _, r := range c.RDF {
		if err := step("rdf "+r.Name, func() error { return a.RDF(r) }); err != nil {
			return a, err
		}
	}
	for _, m := range c.SDF {
		if err := step("sdf "+m.Name, func() error { return a.SDF(m) }); err != nil {
			return a, err
		}
	}
	for _, m := range c.VAC {
		if err := step("vac "+m.Name, func() error { return a.VAC(m) }); err != nil {
			return a, err
		}
	}
	if c.SaveDCD {
		if err := step("DCD", a.SaveDCD); err != nil {
			return a, err
		}
	}
	if err := step("report", a.Report); err != nil {
		return a, err
	}

	runID := uuid.New().String()
	if a.Caps.Has(capability.Store) {
		err := step("store", func() error { return a.persist(c.Database, runID, sels) })
		if err != nil {
			return a, err
		}
	} else {
		a.skip("store", a.reason(capability.Store))
	}

	return a, step("manifest", func() error {
		return a.WriteManifest(a.Manifest(runID, sels))
	})
}

func (a *Analysis) persist(path, runID string, sels []Selection) error {
	s, err := store.Open(path)
	if err != nil {
		return ioError("store", err)
	}
	defer s.Close()

	if err := a.Persist(s, runID, sels); err != nil {
		return ioError("store", err)
	}
	return nil
}
