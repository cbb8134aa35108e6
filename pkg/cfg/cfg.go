// Package cfg reads the configuration file of an analysis.
package cfg

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kpotier/trajanalysis/pkg/accum"
	"github.com/kpotier/trajanalysis/pkg/fsutil"
	"github.com/kpotier/trajanalysis/pkg/kde"
	"github.com/kpotier/trajanalysis/pkg/logging"
	"github.com/kpotier/trajanalysis/pkg/molsys"
	"github.com/kpotier/trajanalysis/pkg/traj"
	"github.com/kpotier/trajanalysis/pkg/traj/lammpstrj"
)

// RC is a reaction coordinate: the distance between two atoms (0-based).
type RC struct {
	Label string `yaml:"label"`
	Atoms [2]int `yaml:"atoms"`
}

// RDF is a radial distribution function between two selections.
type RDF struct {
	Name       string  `yaml:"name"`
	Selection1 string  `yaml:"selection1"`
	Selection2 string  `yaml:"selection2"`
	Bins       int     `yaml:"bins"`
	RMax       float64 `yaml:"rmax"`
}

// Molecular is a calculation over molecules (self diffusion, velocity
// autocorrelation). The selected atoms are split into molecules of
// AtomsPerMolecule consecutive atoms.
type Molecular struct {
	Name             string `yaml:"name"`
	Selection        string `yaml:"selection"`
	AtomsPerMolecule int    `yaml:"atoms_per_molecule"`

	// Start is the first configuration that will be read. It must be
	// greater or equal to 0
	Start int `yaml:"start"`

	// End is the configuration after the last one read. 0 means the last
	// configuration of the trajectory
	End int `yaml:"end"`

	// Mem is the number of configurations that will be put in memory. If it
	// is set to 3, the last 3 configurations will be put in memory (the most used)
	Mem int `yaml:"mem"`
}

// Unwrap holds the parameters of the PBC removal of a LAMMPS trajectory.
type Unwrap struct {
	// AtomsPerMolecule is the number of atoms in one molecule
	AtomsPerMolecule int `yaml:"atoms_per_molecule"`

	// Dist is the largest distance between two atoms in one molecule
	Dist [3]float64 `yaml:"dist"`
}

// Cfg is a structure containing the parameters specified in the configuration
// file. It can be instanced through the New method or by "hand". If it is
// instanced by hand, please use the Default and Check methods.
type Cfg struct {
	// Traj is the trajectory: a DCD file, a LAMMPS trajectory or a frame folder
	Traj string `yaml:"traj"`

	// Topology is a PDB or XYZ file. Its atom order matches the trajectory
	Topology string `yaml:"topology"`

	// TotalTime is the length of the trajectory in ps
	TotalTime float64 `yaml:"total_time"`

	// Selection is the chain:residue:atom pattern of the atoms used for the
	// radius of gyration and the RMSD
	Selection string `yaml:"selection"`

	// FallbackSelection is used, and logged, when Selection matches nothing
	FallbackSelection string `yaml:"fallback_selection"`

	// QCAtoms replaces Selection by a list of atom indices (QC/MM systems)
	QCAtoms []int `yaml:"qc_atoms"`

	// Bandwidth of the kernel density estimator
	Bandwidth float64 `yaml:"bandwidth"`

	KDE      bool   `yaml:"kde"`
	Plots    bool   `yaml:"plots"`
	HTML     bool   `yaml:"html"`
	Database string `yaml:"database"`

	// Energies is a per-frame energy table
	Energies string `yaml:"energies"`

	ReactionCoordinates []RC        `yaml:"reaction_coordinates"`
	RDF                 []RDF       `yaml:"rdf"`
	SDF                 []Molecular `yaml:"sdf"`
	VAC                 []Molecular `yaml:"vac"`

	// Box is used when the trajectory does not carry one
	Box [3]float64 `yaml:"box"`

	// PBC specifies if the periodic boundary conditions are used in the
	// LAMMPS trajectory
	PBC    bool   `yaml:"pbc"`
	Unwrap Unwrap `yaml:"unwrap"`

	// Dt is the time between two frames in ps. 0 means TotalTime/(frames-1)
	Dt float64 `yaml:"dt"`

	// SaveDCD writes the frame folder back into a DCD file
	SaveDCD bool `yaml:"save_dcd"`
}

// Default returns a Cfg holding the default values.
func Default() *Cfg {
	return &Cfg{
		Selection: "*:*:CA",
		Bandwidth: kde.DefaultBandwidth,
		KDE:       true,
		Plots:     true,
	}
}

// New opens and decodes the specified configuration file. The file must be
// a YAML file. This method automatically calls the Check method to check the
// integrity of Cfg.
func New(path string) (*Cfg, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c := Default()
	r := bufio.NewReader(f)
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err = dec.Decode(c)
	if err != nil {
		return nil, err
	}

	// Relative paths are relative to the configuration file
	dir := filepath.Dir(path)
	for _, p := range []*string{&c.Traj, &c.Topology, &c.Energies, &c.Database} {
		if *p != "" && *p != ":memory:" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}

	err = c.Check()
	if err != nil {
		return nil, fmt.Errorf("Check: %w", err)
	}

	return c, nil
}

// Check checks if Cfg is correct. It returns an error if a field doesn't meet
// the requirements.
func (c *Cfg) Check() error {
	if c.Traj == "" {
		return fmt.Errorf("traj is required")
	}
	if c.Topology == "" {
		return fmt.Errorf("topology is required")
	}
	if c.TotalTime < 0 || c.Dt < 0 {
		return fmt.Errorf("total_time and dt cannot be lower than 0")
	}
	if len(c.QCAtoms) == 0 {
		if _, err := molsys.ParsePattern(c.Selection); err != nil {
			return fmt.Errorf("selection: %w", err)
		}
	}
	if c.FallbackSelection != "" {
		if _, err := molsys.ParsePattern(c.FallbackSelection); err != nil {
			return fmt.Errorf("fallback_selection: %w", err)
		}
	}
	if c.KDE {
		if _, err := kde.New(c.Bandwidth); err != nil {
			return err
		}
	}

	labels := make(map[string]bool)
	for i, rc := range c.ReactionCoordinates {
		if rc.Label == "" {
			return fmt.Errorf("reaction coordinate %d: label is required", i)
		}
		if labels[rc.Label] {
			return fmt.Errorf("reaction coordinate %q given twice", rc.Label)
		}
		labels[rc.Label] = true
		if rc.Atoms[0] < 0 || rc.Atoms[1] < 0 || rc.Atoms[0] == rc.Atoms[1] {
			return fmt.Errorf("reaction coordinate %q: two distinct atoms are required", rc.Label)
		}
	}

	for _, r := range c.RDF {
		if r.Name == "" || r.Selection1 == "" {
			return fmt.Errorf("rdf: name and selection1 are required")
		}
		if r.Bins <= 0 || r.RMax <= 0 {
			return fmt.Errorf("rdf %s: bins and rmax must be greater than 0", r.Name)
		}
	}

	for _, m := range append(append([]Molecular{}, c.SDF...), c.VAC...) {
		if m.Name == "" || m.Selection == "" {
			return fmt.Errorf("sdf/vac: name and selection are required")
		}
		if m.AtomsPerMolecule <= 0 {
			return fmt.Errorf("%s: atoms_per_molecule must be greater than 0", m.Name)
		}
		if m.Start < 0 || (m.End != 0 && m.End-m.Start < 2) {
			return fmt.Errorf("%s: End-Start must be greater than 1", m.Name)
		}
		if m.Mem < 0 {
			return fmt.Errorf("%s: Mem cannot be lower than 0", m.Name)
		}
	}

	if c.PBC {
		if t, _ := traj.TypeOf(c.Traj); t != traj.TLammpstrj {
			return fmt.Errorf("pbc is only supported for LAMMPS trajectories")
		}
		if c.Unwrap.AtomsPerMolecule <= 0 {
			return fmt.Errorf("unwrap: atoms_per_molecule must be greater than 0")
		}
	}

	return nil
}

// RCs returns the reaction coordinates to accumulate.
func (c *Cfg) RCs() []accum.RC {
	out := make([]accum.RC, len(c.ReactionCoordinates))
	for i, rc := range c.ReactionCoordinates {
		out[i] = accum.RC{Label: rc.Label, Atom1: rc.Atoms[0], Atom2: rc.Atoms[1]}
	}
	return out
}

// Conv converts a PBC LAMMPS trajectory into a non PBC one and makes Traj
// point to it. natoms is the number of atoms of the system. A trajectory
// converted by a previous run is reused.
func (c *Cfg) Conv(natoms int) error {
	if !c.PBC {
		return fmt.Errorf("pbc set to false")
	}
	if natoms%c.Unwrap.AtomsPerMolecule != 0 {
		return fmt.Errorf("%d atoms cannot be split into molecules of %d atoms", natoms, c.Unwrap.AtomsPerMolecule)
	}

	ext := filepath.Ext(c.Traj)
	filename := strings.TrimSuffix(c.Traj, ext)
	newTraj := fmt.Sprint(filename, "_nopbc", ext)

	if fsutil.Exists(newTraj) {
		logging.Logf("reusing unwrapped trajectory %s", newTraj)
		c.PBC = false
		c.Traj = newTraj
		return nil
	}

	// The trajectory is renamed once complete, so that a partial file is
	// never reused.
	tmp := newTraj + ".tmp"
	u := &lammpstrj.Unwrap{
		In:   c.Traj,
		Out:  tmp,
		At:   c.Unwrap.AtomsPerMolecule,
		Mol:  natoms / c.Unwrap.AtomsPerMolecule,
		Dist: c.Unwrap.Dist,
	}
	if err := u.Perform(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, newTraj); err != nil {
		os.Remove(tmp)
		return err
	}

	c.PBC = false
	c.Traj = newTraj

	return nil
}
