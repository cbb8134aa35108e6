package analysis

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/kpotier/trajanalysis/pkg/capability"
	"github.com/kpotier/trajanalysis/pkg/fsutil"
	"github.com/kpotier/trajanalysis/pkg/plot"
	"github.com/kpotier/trajanalysis/pkg/store"
)

const timeLabel = "Time (ps)"

// image saves one figure, or logs why it is skipped.
func (a *Analysis) image(path string, draw func(path string) error) error {
	if !a.Caps.Has(capability.Plot) {
		a.skip(filepath.Base(path), a.reason(capability.Plot))
		return nil
	}
	if err := draw(path); err != nil {
		return ioError(filepath.Base(path), err)
	}
	a.written(path)
	return nil
}

func (a *Analysis) line(path, ylabel string, series ...plot.Series) error {
	return a.image(path, func(path string) error {
		return plot.Line(path, "", timeLabel, ylabel, series...)
	})
}

func (a *Analysis) biplot(path, xlabel, ylabel string, x, y []float64) error {
	return a.image(path, func(path string) error {
		return plot.Biplot(path, xlabel, ylabel, x, y)
	})
}

func (a *Analysis) axis(n int) []float64 {
	return plot.TimeAxis(n, a.Opts.TotalTime)
}

// PlotRGRMS plots the radius of gyration, the RMSD, their joint density and
// the energy along the trajectory.
func (a *Analysis) PlotRGRMS() error {
	s := a.Series
	if len(s.RG) == 0 {
		return fmt.Errorf("no radius of gyration, run CalculateRGRMSD first")
	}
	n := a.axis(len(s.RG))

	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	add(a.line(filepath.Join(a.Folder.Dir, "analysis_mdRG.png"), "Radius of Gyration (A)", plot.Series{X: n, Y: s.RG}))
	add(a.line(filepath.Join(a.Folder.Dir, "analysis_mdRMSD.png"), "RMSD (A)", plot.Series{X: n, Y: s.RMS}))
	add(a.biplot(filepath.Join(a.Folder.Dir, "rg_rmsd_biplot.png"), "Radius of Gyration (A)", "RMSD (A)", s.RG, s.RMS))

	if len(s.Energy) > 0 {
		add(a.line(a.Prefix()+"_MDenergy.png", "Energy (kJ/mol)", plot.Series{X: n, Y: s.Energy}))
	} else {
		a.skip(filepath.Base(a.Prefix()+"_MDenergy.png"), "no energy")
	}

	return errors.Join(errs...)
}

// PlotDistances plots the reaction coordinates along the trajectory.
func (a *Analysis) PlotDistances() error {
	if len(a.Series.RCs) == 0 || len(a.Series.RCs[0].Values) == 0 {
		return fmt.Errorf("no distance, run DistanceAnalysis first")
	}

	n := a.axis(len(a.Series.RCs[0].Values))
	series := make([]plot.Series, len(a.Series.RCs))
	for i, r := range a.Series.RCs {
		series[i] = plot.Series{Label: r.RC.Label, X: n, Y: r.Values}
	}
	return a.line(a.Prefix()+"_DA.png", "Distances (A)", series...)
}

// Report writes <prefix>_report.html, an interactive page of every series.
func (a *Analysis) Report() error {
	path := a.Prefix() + "_report.html"
	if !a.Caps.Has(capability.HTML) {
		a.skip(filepath.Base(path), a.reason(capability.HTML))
		return nil
	}

	s := a.Series
	var charts []plot.Chart
	if len(s.RG) > 0 {
		n := a.axis(len(s.RG))
		charts = append(charts,
			plot.Chart{Title: "Radius of gyration", XLabel: timeLabel, YLabel: "RG (A)", Series: []plot.Series{{Label: "RG", X: n, Y: s.RG}}},
			plot.Chart{Title: "RMSD", XLabel: timeLabel, YLabel: "RMSD (A)", Series: []plot.Series{{Label: "RMSD", X: n, Y: s.RMS}}},
		)
	}
	if len(s.Energy) > 0 {
		n := a.axis(len(s.Energy))
		charts = append(charts, plot.Chart{Title: "Energy", XLabel: timeLabel, YLabel: "Energy (kJ/mol)", Series: []plot.Series{{Label: "Energy", X: n, Y: s.Energy}}})
	}
	if len(s.RCs) > 0 && len(s.RCs[0].Values) > 0 {
		n := a.axis(len(s.RCs[0].Values))
		c := plot.Chart{Title: "Reaction coordinates", XLabel: timeLabel, YLabel: "Distance (A)"}
		for _, r := range s.RCs {
			c.Series = append(c.Series, plot.Series{Label: r.RC.Label, X: n, Y: r.Values})
		}
		charts = append(charts, c)
	}
	if len(charts) == 0 {
		a.skip(filepath.Base(path), "nothing to report")
		return nil
	}

	if err := plot.SaveHTML(path, filepath.Base(a.Prefix()), charts...); err != nil {
		return ioError(filepath.Base(path), err)
	}
	a.written(path)
	return nil
}

// SaveDCD writes the frame folder into <prefix>_frames.dcd.
func (a *Analysis) SaveDCD() error {
	path := a.Prefix() + "_frames.dcd"
	if err := a.Folder.SaveDCD(path); err != nil {
		return ioError("SaveDCD", err)
	}
	a.written(path)
	return nil
}

// Print writes a summary of the analysis and a histogram of the RMSD.
func (a *Analysis) Print(w io.Writer) error {
	fmt.Fprintln(w, "Trajectory folder:", a.Folder.Dir)
	fmt.Fprintln(w, "Selection:", a.selUsed)
	fmt.Fprintln(w, "RG length:", len(a.Series.RG))
	fmt.Fprintln(w, "RMS length:", len(a.Series.RMS))
	fmt.Fprintln(w, "RC1 most frequent:", a.RC1MF)
	fmt.Fprintln(w, "RC2 most frequent:", a.RC2MF)
	fmt.Fprintln(w, "RG most frequent:", a.RGMF)
	fmt.Fprintln(w, "RMS most frequent:", a.RMSMF)

	if len(a.Series.RMS) == 0 {
		return nil
	}
	fmt.Fprintln(w, "RMSD distribution:")
	hist := histogram.Hist(25, a.Series.RMS)
	return histogram.Fprint(w, hist, histogram.Linear(5))
}

// Manifest is the summary of a run written next to its outputs.
type Manifest struct {
	RunID      string      `yaml:"run_id"`
	Folder     string      `yaml:"folder"`
	Frames     int         `yaml:"frames"`
	Selection  string      `yaml:"selection"`
	Date       time.Time   `yaml:"date"`
	Modes      Modes       `yaml:"modes"`
	Selections []Selection `yaml:"selections,omitempty"`
	Outputs    []string    `yaml:"outputs"`
	Skipped    []string    `yaml:"skipped,omitempty"`
}

// Modes are the mode densities of the representative frame selections.
type Modes struct {
	RG  float64 `yaml:"rg"`
	RMS float64 `yaml:"rms"`
	RC1 float64 `yaml:"rc1"`
	RC2 float64 `yaml:"rc2"`
}

// Manifest returns the manifest of the run. An empty runID gets a new UUID.
func (a *Analysis) Manifest(runID string, sels []Selection) Manifest {
	if runID == "" {
		runID = uuid.New().String()
	}
	return Manifest{
		RunID:      runID,
		Folder:     a.Folder.Dir,
		Frames:     a.Folder.Len(),
		Selection:  a.selUsed,
		Date:       time.Now().UTC(),
		Modes:      Modes{RG: a.RGMF, RMS: a.RMSMF, RC1: a.RC1MF, RC2: a.RC2MF},
		Selections: sels,
		Outputs:    a.Outputs(),
		Skipped:    a.Skipped(),
	}
}

// WriteManifest writes m into <prefix>_manifest.yaml.
func (a *Analysis) WriteManifest(m Manifest) error {
	path := a.Prefix() + "_manifest.yaml"
	err := fsutil.WriteFile(path, func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	})
	if err != nil {
		return ioError("manifest", err)
	}
	return nil
}

// Persist stores the series and the representative frames of the run.
func (a *Analysis) Persist(s *store.Store, runID string, sels []Selection) error {
	r := &store.Run{RunID: runID, Traj: a.Folder.Dir, Frames: a.Folder.Len()}
	if err := s.InsertRun(r); err != nil {
		return err
	}

	series := map[string][]float64{"rg": a.Series.RG, "rms": a.Series.RMS, "energy": a.Series.Energy}
	for _, rc := range a.Series.RCs {
		series["rc:"+rc.RC.Label] = rc.Values
	}
	for name, v := range series {
		if len(v) == 0 {
			continue
		}
		if err := s.InsertSeries(r.RunID, name, v); err != nil {
			return err
		}
	}

	for _, sel := range sels {
		if err := s.InsertSelection(store.Selection{RunID: r.RunID, Kind: sel.Kind, Frame: sel.Frame, Mode: sel.Mode}); err != nil {
			return err
		}
	}
	return nil
}
