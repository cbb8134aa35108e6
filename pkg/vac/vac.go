// Package vac computes the velocity autocorrelation function of molecules.
package vac

import (
	"fmt"
	"io"

	"github.com/kpotier/trajanalysis/pkg/fsutil"
	"github.com/kpotier/trajanalysis/pkg/logging"
)

// Method gives the center of mass velocity of every molecule, configuration
// after configuration.
type Method interface {
	Read(start, end, mem int) error
	GetCfg(int) ([][3]float64, error)
	End() error
}

// VAC holds the parameters and the result of a velocity autocorrelation
// calculation over the configurations [Start, End).
type VAC struct {
	Method Method

	Start int
	End   int
	Mem   int

	Tot int
	Mol int
	Dt  float64

	// Res[i] is <v(0).v((i+1)*Dt)> per dimension, times 2.
	Res []float64
	// ResDiv is <v(0).v(0)> per dimension, times 2.
	ResDiv float64
	// Int is the sum of Res.
	Int float64
}

// Perform performs the velocity autocorrelation.
func (m *VAC) Perform() (err error) {
	m.Tot = m.End - m.Start
	if m.Tot < 2 {
		return fmt.Errorf("at least 2 configurations are needed (got %d)", m.Tot)
	}
	if m.Mol <= 0 {
		return fmt.Errorf("no molecule")
	}
	m.Res = make([]float64, m.Tot-1)
	m.ResDiv, m.Int = 0, 0

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
		if len(icfg) != m.Mol {
			return fmt.Errorf("configuration %d: expected %d molecules", i, m.Mol)
		}

		for mol := 0; mol < m.Mol; mol++ {
			for k := 0; k < 3; k++ {
				m.ResDiv += icfg[mol][k] * icfg[mol][k]
			}
		}

		for j := i + 1; j < m.Tot; j++ {
			var tcfg [][3]float64

			tcfg, err = m.Method.GetCfg(j)
			if err != nil {
				return
			}
			if len(tcfg) != m.Mol {
				return fmt.Errorf("configuration %d: expected %d molecules", j, m.Mol)
			}

			for mol := 0; mol < m.Mol; mol++ {
				for k := 0; k < 3; k++ {
					m.Res[j-i-1] += icfg[mol][k] * tcfg[mol][k]
				}
			}
		}
	}

	m.ResDiv /= float64((m.Tot-1)*m.Mol*3) / 2.
	for i := 0; i < m.Tot-1; i++ {
		m.Res[i] /= float64((m.Tot-1-i)*m.Mol*3) / 2.
		m.Int += m.Res[i]
	}

	logging.Logf("vac: %d configurations, %d molecules", m.Tot, m.Mol)
	return
}

// Write writes the results into path.
func (m *VAC) Write(path string) error {
	return fsutil.WriteFile(path, func(w io.Writer) error {
		if _, err := fmt.Fprintln(w, "Integral", m.Int); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, "Time(ps) VAC VAC0"); err != nil {
			return err
		}
		for i := 0; i < m.Tot-1; i++ {
			if _, err := fmt.Fprintln(w, float64(i+1)*m.Dt, m.Res[i], m.ResDiv); err != nil {
				return err
			}
		}
		return nil
	})
}
