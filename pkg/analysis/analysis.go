// Package analysis runs the post-processing of a molecular dynamics
// trajectory: radius of gyration and RMSD, reaction coordinates,
// representative frames, radial distribution and self diffusion functions.
//
// Every output file is written by a step of its own. A step that fails to
// write returns an error wrapping ErrIO and leaves the other steps usable.
package analysis

import (
	"errors"
	"fmt"
	"io"
	"strings"

	v3 "github.com/rmera/gochem/v3"

	"github.com/kpotier/trajanalysis/pkg/accum"
	"github.com/kpotier/trajanalysis/pkg/capability"
	"github.com/kpotier/trajanalysis/pkg/energy"
	"github.com/kpotier/trajanalysis/pkg/fsutil"
	"github.com/kpotier/trajanalysis/pkg/geom"
	"github.com/kpotier/trajanalysis/pkg/kde"
	"github.com/kpotier/trajanalysis/pkg/logging"
	"github.com/kpotier/trajanalysis/pkg/molsys"
	"github.com/kpotier/trajanalysis/pkg/selector"
	"github.com/kpotier/trajanalysis/pkg/stats"
	"github.com/kpotier/trajanalysis/pkg/traj"
)

// ErrIO is wrapped by the errors of output files.
var ErrIO = errors.New("output failure")

func ioError(step string, err error) error {
	return fmt.Errorf("%s: %w: %w", step, ErrIO, err)
}

// Options are the parameters of an Analysis.
type Options struct {
	// TotalTime is the length of the trajectory in ps
	TotalTime float64

	// Selection and FallbackSelection are chain:residue:atom patterns
	Selection         string
	FallbackSelection string

	// QCAtoms replaces Selection when it is not empty
	QCAtoms []int

	Bandwidth float64

	// Dt is the time between two frames. 0 means TotalTime/(frames-1)
	Dt float64

	// Box is used for the frames that don't carry one
	Box [3]float64

	RCs []accum.RC
}

// Analysis holds a trajectory, its system and everything computed on them.
type Analysis struct {
	Folder *traj.Folder
	System *molsys.System
	Caps   capability.Set
	Opts   Options

	// Energy is optional
	Energy energy.Provider

	selector *selector.Selector
	sel      []int
	selUsed  string

	// Series is the last snapshot of the accumulated descriptors.
	Series accum.Series
	RG0    float64

	// Mode densities of the representative frame selections.
	RGMF  float64
	RMSMF float64
	RC1MF float64
	RC2MF float64

	outputs []string
	skipped []string
}

// New returns an Analysis of the frame folder f. The density estimator is
// only set up when caps has KDE.
func New(f *traj.Folder, sys *molsys.System, opts Options, caps capability.Set) (*Analysis, error) {
	if opts.Bandwidth == 0 {
		opts.Bandwidth = kde.DefaultBandwidth
	}

	if _, err := accum.New(opts.RCs); err != nil {
		return nil, err
	}

	a := &Analysis{Folder: f, System: sys, Caps: caps, Opts: opts}

	var est selector.Estimator
	if caps.Has(capability.KDE) {
		g, err := kde.New(opts.Bandwidth)
		if err != nil {
			return nil, err
		}
		est = g
	}
	a.selector = selector.New(est)

	return a, nil
}

// Prefix is the path every output file of the trajectory starts with.
func (a *Analysis) Prefix() string {
	return strings.TrimSuffix(a.Folder.Dir, traj.FolderExt)
}

// Outputs returns the files written so far.
func (a *Analysis) Outputs() []string {
	return append([]string(nil), a.outputs...)
}

// Skipped returns the outputs skipped so far, with the reason.
func (a *Analysis) Skipped() []string {
	return append([]string(nil), a.skipped...)
}

func (a *Analysis) written(paths ...string) {
	a.outputs = append(a.outputs, paths...)
}

func (a *Analysis) skip(what, why string) {
	logging.Logf("skipped %s: %s", what, why)
	a.skipped = append(a.skipped, fmt.Sprint(what, ": ", why))
}

func (a *Analysis) reason(f capability.Feature) string {
	if r, ok := a.Caps.Reasons[f]; ok {
		return fmt.Sprint(f, " ", r)
	}
	return fmt.Sprint(f, " unavailable")
}

// Dt returns the time between two frames.
func (a *Analysis) Dt() float64 {
	if a.Opts.Dt > 0 {
		return a.Opts.Dt
	}
	if n := a.Folder.Len(); n > 1 {
		return a.Opts.TotalTime / float64(n-1)
	}
	return 0
}

// each reads every frame of the folder from the first one.
func (a *Analysis) each(fn func(frame int, c *v3.Matrix) error) error {
	if err := a.Folder.ReadHeader(); err != nil {
		return fmt.Errorf("ReadHeader: %w", err)
	}
	for a.Folder.Next() {
		if err := fn(a.Folder.Frame(), a.Folder.Coords()); err != nil {
			return fmt.Errorf("frame %d: %w", a.Folder.Frame(), err)
		}
	}
	return a.Folder.Err()
}

// selection returns the atoms used for the radius of gyration and the RMSD.
func (a *Analysis) selection() ([]int, error) {
	if a.sel != nil {
		return a.sel, nil
	}

	var err error
	if len(a.Opts.QCAtoms) > 0 {
		a.sel, err = a.System.Indices(a.Opts.QCAtoms)
		a.selUsed = "qc_atoms"
	} else {
		a.sel, a.selUsed, err = a.System.SelectWithFallback(a.Opts.Selection, a.Opts.FallbackSelection)
	}
	if err != nil {
		return nil, err
	}
	return a.sel, nil
}

// reference returns the coordinates of frame 0.
func (a *Analysis) reference() (*v3.Matrix, error) {
	s, err := a.Folder.Snapshot(0)
	if err != nil {
		return nil, err
	}
	ref := s.Matrix()
	if ref.NVecs() != a.System.Len() {
		return nil, fmt.Errorf("%d atoms in the trajectory, %d in the system", ref.NVecs(), a.System.Len())
	}
	return ref, nil
}

// CalculateRGRMSD superimposes every frame on frame 0 and accumulates the
// radius of gyration and the RMSD of the selection, and the energy relative
// to frame 0 when an energy provider is set. It writes <prefix>_MDanalysis.
// Every call replaces the RG, RMS and energy series; they are left untouched
// when the pass fails.
func (a *Analysis) CalculateRGRMSD() error {
	sel, err := a.selection()
	if err != nil {
		return err
	}
	ref, err := a.reference()
	if err != nil {
		return err
	}
	w := a.System.Masses()

	rg0, err := geom.RadiusOfGyration(ref, sel, w)
	if err != nil {
		return err
	}

	var deltas []float64
	if a.Energy != nil {
		if deltas, err = energy.Deltas(a.Energy, a.Folder.Len()); err != nil {
			return fmt.Errorf("energy: %w", err)
		}
	} else {
		a.skip("energies", "no energy provider")
	}

	acc, err := accum.New(nil)
	if err != nil {
		return err
	}
	err = a.each(func(frame int, c *v3.Matrix) error {
		if deltas != nil {
			acc.AddEnergy(deltas[frame])
		}

		if err := geom.Superimpose(c, ref, sel, w); err != nil {
			return fmt.Errorf("Superimpose: %w", err)
		}
		rg, err := geom.RadiusOfGyration(c, sel, w)
		if err != nil {
			return err
		}
		rms, err := geom.RMSD(c, ref, sel, w)
		if err != nil {
			return err
		}
		acc.AddGeometry(rg, rms)
		return nil
	})
	if err != nil {
		return err
	}
	if acc.Frames() != a.Folder.Len() {
		return fmt.Errorf("%d frames read, %d in the folder", acc.Frames(), a.Folder.Len())
	}
	s := acc.Snapshot()
	a.RG0 = rg0
	a.Series.RG, a.Series.RMS, a.Series.Energy = s.RG, s.RMS, s.Energy

	path := a.Prefix() + "_MDanalysis"
	if err := a.writeMDAnalysis(path); err != nil {
		return ioError("MDanalysis", err)
	}
	a.written(path)
	return nil
}

func (a *Analysis) writeMDAnalysis(path string) error {
	rg, err := stats.Summarize(a.Series.RG)
	if err != nil {
		return fmt.Errorf("rg: %w", err)
	}
	rms, err := stats.Summarize(a.Series.RMS)
	if err != nil {
		return fmt.Errorf("rms: %w", err)
	}

	return fsutil.WriteFile(path, func(w io.Writer) error {
		fmt.Fprintln(w, "rg0 rgMean rgSD rgMax rgMin")
		fmt.Fprintln(w, a.RG0, rg.Mean, rg.SD, rg.Max, rg.Min)
		fmt.Fprintln(w, "rmsMean rmsSD rmsMax rmsMin")
		fmt.Fprintln(w, rms.Mean, rms.SD, rms.Max, rms.Min)
		fmt.Fprintln(w, "Frame RG RMS")
		for i := range a.Series.RG {
			if _, err := fmt.Fprintln(w, i, a.Series.RG[i], a.Series.RMS[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// DistanceAnalysis accumulates the distance of every reaction coordinate
// along the trajectory and writes <prefix>_DA.log. Every call replaces the
// reaction coordinate series.
func (a *Analysis) DistanceAnalysis() error {
	if len(a.Opts.RCs) == 0 {
		a.skip("distance analysis", "no reaction coordinate")
		return nil
	}

	acc, err := accum.New(a.Opts.RCs)
	if err != nil {
		return err
	}
	err = a.each(func(_ int, c *v3.Matrix) error {
		return acc.AddDistances(c)
	})
	if err != nil {
		return err
	}
	a.Series.RCs = acc.Snapshot().RCs

	path := a.Prefix() + "_DA.log"
	err = fsutil.WriteFile(path, func(w io.Writer) error {
		fmt.Fprintln(w, "Frame", strings.Join(a.Series.Labels(), " "))
		n := len(a.Series.RCs[0].Values)
		for j := 0; j < n; j++ {
			row := []interface{}{j}
			for _, r := range a.Series.RCs {
				row = append(row, r.Values[j])
			}
			if _, err := fmt.Fprintln(w, row...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ioError("DA", err)
	}
	a.written(path)
	return nil
}
