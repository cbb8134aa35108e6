// Package capability checks once, at startup, which optional features of an
// analysis can run.
package capability

import (
	"fmt"
	"io"
	"sort"

	"github.com/kpotier/trajanalysis/pkg/kde"
	"github.com/kpotier/trajanalysis/pkg/logging"
	"github.com/kpotier/trajanalysis/pkg/plot"
	"github.com/kpotier/trajanalysis/pkg/store"
)

// Feature is an optional feature.
type Feature string

// Optional features.
const (
	KDE   Feature = "kde"
	Plot  Feature = "plot"
	HTML  Feature = "html"
	Store Feature = "store"
)

// Options says which features are wanted.
type Options struct {
	KDE       bool
	Bandwidth float64
	Plots     bool
	HTML      bool
	Database  string
}

// Set holds the available features and, for the others, why they are not.
type Set struct {
	KDE   bool
	Plot  bool
	HTML  bool
	Store bool

	Reasons map[Feature]string
}

// Has reports whether f is available.
func (s Set) Has(f Feature) bool {
	switch f {
	case KDE:
		return s.KDE
	case Plot:
		return s.Plot
	case HTML:
		return s.HTML
	case Store:
		return s.Store
	}
	return false
}

// Log reports every unavailable feature.
func (s Set) Log() {
	fs := make([]string, 0, len(s.Reasons))
	for f := range s.Reasons {
		fs = append(fs, string(f))
	}
	sort.Strings(fs)
	for _, f := range fs {
		logging.Logf("%s disabled: %s", f, s.Reasons[Feature(f)])
	}
}

// Probes used by Detect, replaced in tests.
var (
	probeKDE   = kdeProbe
	probePlot  = func() error { return plot.Probe(io.Discard) }
	probeHTML  = func() error { return plot.HTML(io.Discard, "probe") }
	probeStore = storeProbe
)

func kdeProbe(bandwidth float64) error {
	g, err := kde.New(bandwidth)
	if err != nil {
		return err
	}
	if err := g.Fit([]float64{0, 1}); err != nil {
		return err
	}
	d, err := g.Density([]float64{0.5})
	if err != nil {
		return err
	}
	if !(d[0] > 0) {
		return fmt.Errorf("density %g between two samples", d[0])
	}
	return nil
}

func storeProbe() error {
	s, err := store.Open(":memory:")
	if err != nil {
		return err
	}
	return s.Close()
}

// Detect probes every wanted feature.
func Detect(o Options) Set {
	s := Set{Reasons: make(map[Feature]string)}

	check := func(f Feature, wanted bool, probe func() error) bool {
		if !wanted {
			s.Reasons[f] = "disabled in the configuration"
			return false
		}
		if err := probe(); err != nil {
			s.Reasons[f] = fmt.Sprint("unavailable: ", err)
			return false
		}
		return true
	}

	s.KDE = check(KDE, o.KDE, func() error { return probeKDE(o.Bandwidth) })
	s.Plot = check(Plot, o.Plots, probePlot)
	s.HTML = check(HTML, o.HTML, probeHTML)
	s.Store = check(Store, o.Database != "", probeStore)
	if !s.Store && o.Database == "" {
		s.Reasons[Store] = "no database in the configuration"
	}

	return s
}
