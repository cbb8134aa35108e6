// Package stats summarizes descriptor series.
package stats

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// Summary holds the mean, the population standard deviation, the maximum and
// the minimum of a series.
type Summary struct {
	Mean float64
	SD   float64
	Max  float64
	Min  float64
}

// Summarize computes the Summary of v.
func Summarize(v []float64) (Summary, error) {
	data := stats.LoadRawData(v)
	if data.Len() < 1 {
		return Summary{}, fmt.Errorf("empty series")
	}

	var (
		s   Summary
		err error
	)
	if s.Mean, err = data.Mean(); err != nil {
		return Summary{}, fmt.Errorf("Mean: %w", err)
	}
	if s.SD, err = data.StandardDeviationPopulation(); err != nil {
		return Summary{}, fmt.Errorf("StandardDeviation: %w", err)
	}
	if s.Max, err = data.Max(); err != nil {
		return Summary{}, fmt.Errorf("Max: %w", err)
	}
	if s.Min, err = data.Min(); err != nil {
		return Summary{}, fmt.Errorf("Min: %w", err)
	}
	return s, nil
}

// Fields returns the summary in the order mean, sd, max, min.
func (s Summary) Fields() []float64 {
	return []float64{s.Mean, s.SD, s.Max, s.Min}
}
