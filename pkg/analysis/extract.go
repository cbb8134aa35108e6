package analysis

import (
	"errors"
	"fmt"
	"path/filepath"

	v3 "github.com/rmera/gochem/v3"

	"github.com/kpotier/trajanalysis/pkg/capability"
	"github.com/kpotier/trajanalysis/pkg/geom"
	"github.com/kpotier/trajanalysis/pkg/logging"
	"github.com/kpotier/trajanalysis/pkg/selector"
	"github.com/kpotier/trajanalysis/pkg/structio"
)

// Base names of the exported structures, written in the frame folder.
const (
	MostFrequentRMS    = "mostFrequentRMS"
	MostFrequentRC1RC2 = "mostFrequentRC1RC2"
	Average            = "Average"
)

// Selection is a representative frame.
type Selection struct {
	Kind  string
	Frame int
	Mode  float64
}

func (a *Analysis) export(name string, frame int) error {
	s, err := a.Folder.Snapshot(frame)
	if err != nil {
		return err
	}
	return a.exportCoords(name, frame, s.Matrix())
}

func (a *Analysis) exportCoords(name string, frame int, c *v3.Matrix) error {
	written, err := structio.Export(a.Folder.Dir, name, a.System, frame, c)
	a.written(written...)
	if err != nil {
		return ioError(name, err)
	}
	return nil
}

// ExtractFrames exports the frame whose RMSD is the most frequent one, then
// the average structure. Without density estimation the first export is
// skipped and logged; the average structure is always exported.
func (a *Analysis) ExtractFrames() (*Selection, error) {
	var (
		sel  *Selection
		errs []error
	)

	rms, err := a.selector.MostFrequent(a.Series.RMS)
	switch {
	case errors.Is(err, selector.ErrUnavailableBackend):
		a.skip(MostFrequentRMS, a.reason(capability.KDE))
	case err != nil:
		return nil, fmt.Errorf("rms: %w", err)
	default:
		rg, err := a.selector.MostFrequent(a.Series.RG)
		if err != nil {
			return nil, fmt.Errorf("rg: %w", err)
		}
		a.RMSMF, a.RGMF = rms.Mode, rg.Mode

		logging.Logf("most frequent RMSD: frame %d", rms.Frame)
		sel = &Selection{Kind: "rms", Frame: rms.Frame, Mode: rms.Mode}
		if err := a.export(MostFrequentRMS, rms.Frame); err != nil {
			errs = append(errs, err)
		}
	}

	if err := a.ExportAverage(); err != nil {
		errs = append(errs, err)
	}
	return sel, errors.Join(errs...)
}

// ExportAverage exports the average structure of the trajectory, each frame
// being superimposed on frame 0 first.
func (a *Analysis) ExportAverage() error {
	sel, err := a.selection()
	if err != nil {
		return err
	}
	ref, err := a.reference()
	if err != nil {
		return err
	}
	w := a.System.Masses()

	var avg geom.Average
	err = a.each(func(_ int, c *v3.Matrix) error {
		if err := geom.Superimpose(c, ref, sel, w); err != nil {
			return err
		}
		return avg.Add(c)
	})
	if err != nil {
		return err
	}

	mean, err := avg.Mean()
	if err != nil {
		return err
	}
	return a.exportCoords(Average, -1, mean)
}

// ExtractFramesBiplot exports the frame representative of the joint
// distribution of the reaction coordinates rc1 and rc2 (positions in
// Opts.RCs) and plots that distribution.
func (a *Analysis) ExtractFramesBiplot(rc1, rc2 int) (*Selection, error) {
	r1, err := a.Series.Record(rc1)
	if err != nil {
		return nil, err
	}
	r2, err := a.Series.Record(rc2)
	if err != nil {
		return nil, err
	}

	joint, err := a.selector.MostFrequentJoint(r1.Values, r2.Values)
	if errors.Is(err, selector.ErrUnavailableBackend) {
		a.skip(MostFrequentRC1RC2, a.reason(capability.KDE))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s and %s: %w", r1.RC.Label, r2.RC.Label, err)
	}
	a.RC1MF, a.RC2MF = joint.ModeA, joint.ModeB
	logging.Logf("most frequent %s/%s: frame %d", r1.RC.Label, r2.RC.Label, joint.Frame)

	var errs []error
	if err := a.export(MostFrequentRC1RC2, joint.Frame); err != nil {
		errs = append(errs, err)
	}

	path := filepath.Join(a.Folder.Dir, r1.RC.Label+"_"+r2.RC.Label+"_Biplot.png")
	if err := a.biplot(path, r1.RC.Label, r2.RC.Label, r1.Values, r2.Values); err != nil {
		errs = append(errs, err)
	}

	sel := &Selection{Kind: "rc1rc2", Frame: joint.Frame, Mode: joint.ModeA}
	return sel, errors.Join(errs...)
}
