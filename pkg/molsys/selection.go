package molsys

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/kpotier/trajanalysis/pkg/logging"
)

var (
	// ErrEmptySelection is returned when a pattern matches no atom.
	ErrEmptySelection = errors.New("selection matches no atom")

	// ErrBadPattern is returned for malformed patterns.
	ErrBadPattern = errors.New("malformed selection pattern")
)

// Pattern is an atom pattern "chain:residue:atom". Each field is a comma
// separated list of shell globs. A residue glob is matched against the
// residue name, the residue number and "NAME.NUMBER", e.g. "*:ALA.12,GLY:CA".
type Pattern struct {
	Chain   []string
	Residue []string
	Atom    []string
}

// ParsePattern parses a "chain:residue:atom" pattern.
func ParsePattern(s string) (Pattern, error) {
	fields := strings.Split(strings.TrimSpace(s), ":")
	if len(fields) != 3 {
		return Pattern{}, fmt.Errorf("%q: want chain:residue:atom: %w", s, ErrBadPattern)
	}

	var p Pattern
	for k, f := range fields {
		var globs []string
		for _, g := range strings.Split(f, ",") {
			g = strings.TrimSpace(g)
			if g == "" {
				return Pattern{}, fmt.Errorf("%q: empty field: %w", s, ErrBadPattern)
			}
			if _, err := path.Match(g, ""); err != nil {
				return Pattern{}, fmt.Errorf("%q: %v: %w", s, err, ErrBadPattern)
			}
			globs = append(globs, g)
		}

		switch k {
		case 0:
			p.Chain = globs
		case 1:
			p.Residue = globs
		case 2:
			p.Atom = globs
		}
	}

	return p, nil
}

// Match reports whether the atom matches the pattern.
func (p Pattern) Match(a Atom) bool {
	resID := strconv.Itoa(a.ResID)
	return matchAny(p.Chain, a.Chain) &&
		(matchAny(p.Residue, a.Residue) || matchAny(p.Residue, resID) || matchAny(p.Residue, a.Residue+"."+resID)) &&
		matchAny(p.Atom, a.Name)
}

func matchAny(globs []string, s string) bool {
	for _, g := range globs {
		if ok, _ := path.Match(g, s); ok {
			return true
		}
	}
	return false
}

// Select returns the indices of the atoms matching pattern, in atom order.
func (s *System) Select(pattern string) ([]int, error) {
	p, err := ParsePattern(pattern)
	if err != nil {
		return nil, err
	}

	var sel []int
	for i, a := range s.Atoms {
		if p.Match(a) {
			sel = append(sel, i)
		}
	}
	if len(sel) == 0 {
		return nil, fmt.Errorf("%q: %w", pattern, ErrEmptySelection)
	}
	return sel, nil
}

// SelectWithFallback is Select with an explicit second pattern tried when the
// first one matches nothing. An empty fallback disables it. The pattern that
// was used is returned and a fallback is always logged.
func (s *System) SelectWithFallback(pattern, fallback string) ([]int, string, error) {
	sel, err := s.Select(pattern)
	if err == nil {
		return sel, pattern, nil
	}
	if fallback == "" || !errors.Is(err, ErrEmptySelection) {
		return nil, "", err
	}

	logging.Logf("selection %q matches no atom, falling back to %q", pattern, fallback)
	sel, err = s.Select(fallback)
	if err != nil {
		return nil, "", fmt.Errorf("fallback: %w", err)
	}
	return sel, fallback, nil
}

// Indices checks a list of atom indices, e.g. the QC atoms of a QC/MM run.
func (s *System) Indices(idx []int) ([]int, error) {
	if len(idx) == 0 {
		return nil, fmt.Errorf("no atom index: %w", ErrEmptySelection)
	}
	out := make([]int, len(idx))
	for i, v := range idx {
		if v < 0 || v >= len(s.Atoms) {
			return nil, fmt.Errorf("atom index %d out of range (%d atoms)", v, len(s.Atoms))
		}
		out[i] = v
	}
	return out, nil
}
