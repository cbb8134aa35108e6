// Package msd computes the self diffusion function of molecules: their mean
// squared displacement averaged over every time origin.
package msd

import (
	"fmt"
	"io"

	"github.com/kpotier/trajanalysis/pkg/fsutil"
	"github.com/kpotier/trajanalysis/pkg/logging"
)

// Method gives the center of mass of every molecule, configuration after
// configuration.
type Method interface {
	Read(start, end, mem int) error
	GetCfg(int) ([][3]float64, error)
	End() error
}

// MSD holds the parameters and the result of a mean squared displacement
// calculation over the configurations [Start, End).
type MSD struct {
	Method Method

	Start int
	End   int
	Mem   int

	Tot int
	Mol int
	Dt  float64

	// Res[i] is the mean squared displacement per dimension after (i+1)*Dt.
	Res []float64
}

// Perform performs the mean squared displacement.
func (m *MSD) Perform() (err error) {
	m.Tot = m.End - m.Start
	if m.Tot < 2 {
		return fmt.Errorf("at least 2 configurations are needed (got %d)", m.Tot)
	}
	if m.Mol <= 0 {
		return fmt.Errorf("no molecule")
	}
	m.Res = make([]float64, m.Tot-1)

	err = m.Method.Read(m.Start, m.End, m.Mem)
	if err != nil {
		return fmt.Errorf("Read: %w", err)
	}
	defer func() {
		if errEnd := m.Method.End(); err == nil {
			err = errEnd
		}
	}()

	for i := 0; i < m.Tot-1; i++ {
		var icfg [][3]float64
		icfg, err = m.Method.GetCfg(i)
		if err != nil {
			return
		}

		for j := i + 1; j < m.Tot; j++ {
			var tcfg [][3]float64

			tcfg, err = m.Method.GetCfg(j)
			if err != nil {
				return
			}
			if len(tcfg) != m.Mol || len(icfg) != m.Mol {
				return fmt.Errorf("configurations %d and %d: expected %d molecules", i, j, m.Mol)
			}

			for mol := 0; mol < m.Mol; mol++ {
				for k := 0; k < 3; k++ {
					pow := icfg[mol][k] - tcfg[mol][k]
					m.Res[j-i-1] += pow * pow
				}
			}
		}
	}

	for i := range m.Res {
		m.Res[i] /= float64((m.Tot - 1 - i) * m.Mol * 3)
	}

	logging.Logf("msd: %d configurations, %d molecules", m.Tot, m.Mol)
	return
}

// Times returns the time of each value of Res.
func (m *MSD) Times() []float64 {
	t := make([]float64, len(m.Res))
	for i := range t {
		t[i] = float64(i+1) * m.Dt
	}
	return t
}

// Write writes the results into path.
func (m *MSD) Write(path string) error {
	return fsutil.WriteFile(path, func(w io.Writer) error {
		if _, err := fmt.Fprintln(w, "Time(ps) SDF"); err != nil {
			return err
		}
		for i, t := range m.Times() {
			if _, err := fmt.Fprintln(w, t, m.Res[i]); err != nil {
				return err
			}
		}
		return nil
	})
}
