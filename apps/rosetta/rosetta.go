package rosetta

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// DefaultRgReweight is passed to -rg_reweight when Config.RgReweight is
// empty.
const DefaultRgReweight = "0.5"

// DefaultConfig runs 'AbinitioRelax' from PATH. The input files still need
// to be filled in.
var DefaultConfig = Config{
	Exec:         "AbinitioRelax",
	MembraneExec: "membrane_abinitio2",
	Version:      3.6,
}

// Config describes an ab initio folding run with Rosetta. Each worker runs
// the same Config with its own output directory, structure count and seed.
type Config struct {
	// Exec is the AbinitioRelax executable.
	Exec string `yaml:"exec"`

	// MembraneExec is used instead of Exec when Transmembrane is set.
	MembraneExec string `yaml:"membrane_exec"`

	// Database is the Rosetta database directory.
	Database string `yaml:"database"`

	Fasta  string `yaml:"fasta"`
	Frags3 string `yaml:"frags_3mers"`
	Frags9 string `yaml:"frags_9mers"`

	// Version selects version dependent flags. Versions from 3.4 on get
	// the recommended helix and loop weights. See DetectVersion.
	Version float64 `yaml:"version"`

	// AllAtom makes Rosetta return full atom models.
	AllAtom bool `yaml:"all_atom"`

	// PsipredSS2 is an optional secondary structure prediction. It is only
	// used with Rosetta 3.4 or later.
	PsipredSS2 string `yaml:"psipred_ss2"`

	// ConstraintsFile is used for both centroid and full atom constraints.
	// Prepare fills it in when DomainTerminiDistance is set.
	ConstraintsFile string `yaml:"constraints_file"`

	// DomainTerminiDistance, when positive, restrains the distance between
	// the first and last alpha carbons. See WriteDomainConstraints.
	DomainTerminiDistance float64 `yaml:"domain_termini_distance"`

	// RgReweight is the radius of gyration weight. It defaults to
	// DefaultRgReweight.
	RgReweight string `yaml:"rg_reweight"`

	// ImproveTemplate is a PDB file used as the starting structure, from
	// which fragments are also stolen.
	ImproveTemplate string `yaml:"improve_template"`

	// Native is a reference structure. When set, Rosetta scores every model
	// against it (see ReadScores).
	Native string `yaml:"native"`

	Transmembrane bool   `yaml:"transmembrane"`
	SpanFile      string `yaml:"span_file"`
	LipoFile      string `yaml:"lipo_file"`
}

// Prepare writes any files that every worker shares into workDir. It must
// be called once before Command when DomainTerminiDistance is set.
func (conf *Config) Prepare(workDir string) error {
	if conf.DomainTerminiDistance <= 0 {
		return nil
	}
	path, err := WriteDomainConstraints(
		conf.Fasta, workDir, conf.DomainTerminiDistance)
	if err != nil {
		return err
	}
	conf.ConstraintsFile = path
	return nil
}

// Command returns the full command line that generates nstruct models into
// dir using the given random seed.
func (conf Config) Command(dir string, nstruct, seed int) ([]string, error) {
	exe := conf.Exec
	if conf.Transmembrane {
		exe = conf.MembraneExec
		if conf.SpanFile == "" || conf.LipoFile == "" {
			return nil, errors.New("Transmembrane modelling needs both a " +
				"span file and a lipophilicity file.")
		}
	}
	if exe == "" {
		return nil, errors.New("No Rosetta executable has been set.")
	}
	if nstruct <= 0 {
		return nil, fmt.Errorf("Cannot generate %d models.", nstruct)
	}

	cmd := []string{exe,
		"-database", conf.Database,
		"-in::file::fasta", conf.Fasta,
		"-in:file:frag3", conf.Frags3,
		"-in:file:frag9", conf.Frags9,
		"-out:path", dir,
		"-out:pdb",
		"-out:nstruct", strconv.Itoa(nstruct),
		"-out:file:silent", filepath.Join(dir, "silent.out"),
		"-run:constant_seed",
		"-run:jran", strconv.Itoa(seed),
		"-abinitio:relax",
		"-relax::fast",
	}

	if conf.Version >= 3.4 {
		cmd = append(cmd,
			"-abinitio::rsd_wt_helix", "0.5",
			"-abinitio::rsd_wt_loop", "0.5",
			"-use_filters", "true")
		if conf.PsipredSS2 != "" {
			cmd = append(cmd, "-psipred_ss2", conf.PsipredSS2)
		}
	}
	cmd = append(cmd, "-return_full_atom", strconv.FormatBool(conf.AllAtom))

	if conf.Transmembrane {
		cmd = append(cmd,
			"-in:file:spanfile", conf.SpanFile,
			"-in:file:lipofile", conf.LipoFile,
			"-abinitio:membrane",
			"-membrane:no_interpolate_Mpair",
			"-membrane:Menv_penalties",
			"-score:find_neighbors_3dgrid",
			"-membrane:normal_cycles", "40",
			"-membrane:normal_mag", "15",
			"-membrane:center_mag", "2",
			"-mute", "core.io.database",
			"-mute", "core.scoring.MembranePotential")
	}

	if conf.ConstraintsFile != "" {
		if _, err := os.Stat(conf.ConstraintsFile); err != nil {
			return nil, fmt.Errorf("Cannot find constraints file: %w", err)
		}
		cmd = append(cmd,
			"-constraints:cst_file", conf.ConstraintsFile,
			"-constraints:cst_fa_file", conf.ConstraintsFile)
	} else if conf.DomainTerminiDistance > 0 {
		return nil, errors.New("Domain constraints have not been written. " +
			"Call Prepare first.")
	}

	rg := conf.RgReweight
	if rg == "" {
		rg = DefaultRgReweight
	}
	cmd = append(cmd, "-rg_reweight", rg)

	if conf.ImproveTemplate != "" {
		cmd = append(cmd,
			"-in:file:native", conf.ImproveTemplate,
			"-abinitio:steal_3mers", "True",
			"-abinitio:steal9mers", "True",
			"-abinitio:start_native", "True",
			"-templates:force_native_topology", "True")
	}
	if conf.Native != "" {
		cmd = append(cmd, "-in:file:native", conf.Native)
	}
	return cmd, nil
}
