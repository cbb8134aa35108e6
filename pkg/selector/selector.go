// Package selector picks the representative frame of a trajectory: the frame
// whose descriptor value sits closest to the peak of the estimated density of
// the descriptor series.
package selector

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidInput is returned for empty or mismatched series.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnavailableBackend is returned when no density estimator is set.
	ErrUnavailableBackend = errors.New("density estimation backend unavailable")
)

// Estimator is a one dimensional density estimator. ScoreSamples returns the
// log-density at each point.
type Estimator interface {
	Fit(samples []float64) error
	ScoreSamples(points []float64) ([]float64, error)
}

// Result is the outcome of a single series selection. Mode is the maximal
// density over the samples.
type Result struct {
	Frame int
	Mode  float64
}

// JointResult is the outcome of a two series selection.
type JointResult struct {
	Frame int
	ModeA float64
	ModeB float64
}

// Selector selects representative frames. It refits its estimator on every
// call and must not be shared between goroutines.
type Selector struct {
	est Estimator
}

// New returns a Selector. A nil estimator gives a Selector whose calls fail
// with ErrUnavailableBackend.
func New(est Estimator) *Selector {
	return &Selector{est: est}
}

// SelectMostFrequentFrame returns the index of the frame whose density is the
// closest to the maximal density of the series.
func (s *Selector) SelectMostFrequentFrame(series []float64) (int, error) {
	r, err := s.MostFrequent(series)
	return r.Frame, err
}

// SelectMostFrequentFrameJoint returns the frame minimizing the joint
// deviation of two paired series.
func (s *Selector) SelectMostFrequentFrameJoint(a, b []float64) (int, error) {
	r, err := s.MostFrequentJoint(a, b)
	return r.Frame, err
}

// MostFrequent is SelectMostFrequentFrame with the mode density. A series of
// one sample has a degenerate density and always yields frame 0.
func (s *Selector) MostFrequent(series []float64) (Result, error) {
	if len(series) == 0 {
		return Result{}, fmt.Errorf("empty series: %w", ErrInvalidInput)
	}

	dens, err := s.density(series)
	if err != nil {
		return Result{}, err
	}

	mode := maxOf(dens)
	dev := make([]float64, len(dens))
	for i, d := range dens {
		dev[i] = math.Abs(d - mode)
	}

	return Result{Frame: argmin(dev), Mode: mode}, nil
}

// MostFrequentJoint is SelectMostFrequentFrameJoint with both mode densities.
// The joint deviation of frame i is | |dA_i - MA| - |dB_i - MB| |.
func (s *Selector) MostFrequentJoint(a, b []float64) (JointResult, error) {
	if len(a) == 0 || len(b) == 0 {
		return JointResult{}, fmt.Errorf("empty series: %w", ErrInvalidInput)
	}
	if len(a) != len(b) {
		return JointResult{}, fmt.Errorf("series lengths differ (%d and %d): %w", len(a), len(b), ErrInvalidInput)
	}

	densA, err := s.density(a)
	if err != nil {
		return JointResult{}, fmt.Errorf("first series: %w", err)
	}
	densB, err := s.density(b)
	if err != nil {
		return JointResult{}, fmt.Errorf("second series: %w", err)
	}

	modeA, modeB := maxOf(densA), maxOf(densB)
	dev := jointDeviations(densA, densB, modeA, modeB)

	return JointResult{Frame: argmin(dev), ModeA: modeA, ModeB: modeB}, nil
}

// density fits the estimator on series and evaluates it at every sample.
func (s *Selector) density(series []float64) ([]float64, error) {
	if s == nil || s.est == nil {
		return nil, ErrUnavailableBackend
	}

	if err := s.est.Fit(series); err != nil {
		return nil, fmt.Errorf("Fit: %w", err)
	}

	dens, err := s.est.ScoreSamples(series)
	if err != nil {
		return nil, fmt.Errorf("ScoreSamples: %w", err)
	}
	if len(dens) != len(series) {
		return nil, fmt.Errorf("estimator returned %d densities for %d samples", len(dens), len(series))
	}

	for i := range dens {
		dens[i] = math.Exp(dens[i])
	}
	return dens, nil
}

func jointDeviations(densA, densB []float64, modeA, modeB float64) []float64 {
	dev := make([]float64, len(densA))
	for i := range densA {
		dev[i] = math.Abs(math.Abs(densA[i]-modeA) - math.Abs(densB[i]-modeB))
	}
	return dev
}

func maxOf(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

// argmin returns the first index of the smallest value.
func argmin(v []float64) int {
	idx := 0
	for i, x := range v {
		if x < v[idx] {
			idx = i
		}
	}
	return idx
}
