package spicker

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/TuftsBCB/decoys/pdb"
)

// Names of the files Spicker reads from and writes to its working directory.
const (
	TrajectoryFile = "rep1.tra1"
	ManifestFile   = "file_list"
	CutoffFile     = "rmsinp"
	TrajectoryList = "tra.in"
	SequenceFile   = "seq.dat"
	ReportFile     = "str.txt"
	LogFile        = "spicker.log"
	SummaryFile    = "summary.txt"
)

// energy is written in every trajectory record header. Spicker requires the
// field but does not use it for clustering.
const energy = "926.917"

// ErrNoModels is returned by WriteInput when there is nothing to cluster.
var ErrNoModels = errors.New("There are no models to cluster")

// LengthError is returned when a model does not have the same number of
// alpha carbons as the first model. Spicker compares models residue by
// residue, so every model must have the same length.
type LengthError struct {
	Path  string
	Len   int
	First string
	Want  int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("Model '%s' has %d residues, but '%s' has %d. "+
		"All models must have the same number of residues.",
		e.Path, e.Len, e.First, e.Want)
}

// Input describes the Spicker input files written to Dir.
type Input struct {
	Dir string

	// Manifest is the list of model paths in trajectory order. The model
	// with trajectory index i is Manifest[i-1].
	Manifest []string

	// Length is the number of residues in every model.
	Length int
}

// WriteInput writes the Spicker input files for models into dir, which must
// already exist. Models are written in the order given, and paths are
// stored in the manifest exactly as given.
func WriteInput(dir string, models []string) (*Input, error) {
	if len(models) == 0 {
		return nil, ErrNoModels
	}

	traj, err := newFileWriter(filepath.Join(dir, TrajectoryFile))
	if err != nil {
		return nil, err
	}
	defer traj.abort()
	list, err := newFileWriter(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	defer list.abort()

	var first *pdb.Entry
	for i, model := range models {
		entry, err := pdb.Read(model)
		if err != nil {
			return nil, err
		}
		if entry.Len() == 0 {
			return nil, fmt.Errorf("Model '%s' has no alpha carbons.", model)
		}
		if first == nil {
			first = entry
		} else if entry.Len() != first.Len() {
			return nil, &LengthError{
				Path: model, Len: entry.Len(),
				First: first.Path, Want: first.Len(),
			}
		}

		fmt.Fprintf(traj, "\t%d\t%s       %d       %d\n",
			entry.Len(), energy, i+1, i+1)
		for _, ca := range entry.CaAtoms {
			fmt.Fprintf(traj, "     %.3f     %.3f     %.3f\n", ca.X, ca.Y, ca.Z)
		}
		fmt.Fprintln(list, model)
	}
	if err := traj.close(); err != nil {
		return nil, err
	}
	if err := list.close(); err != nil {
		return nil, err
	}

	length := first.Len()
	cutoff := fmt.Sprintf("1  %d\n\n%d\n", length, length)
	if err := writeFile(filepath.Join(dir, CutoffFile), cutoff); err != nil {
		return nil, err
	}
	if err := writeFile(filepath.Join(dir, TrajectoryList),
		"1 -1 1 \n"+TrajectoryFile+"\n"); err != nil {
		return nil, err
	}

	var seq strings.Builder
	for _, ca := range first.CaAtoms {
		fmt.Fprintf(&seq, "\t%d\t%s\n", ca.ResidueInd, ca.ResidueName)
	}
	if err := writeFile(filepath.Join(dir, SequenceFile), seq.String()); err != nil {
		return nil, err
	}

	return &Input{
		Dir:      dir,
		Manifest: append([]string(nil), models...),
		Length:   length,
	}, nil
}

// ReadManifest reads a manifest written by WriteInput.
func ReadManifest(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var manifest []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		manifest = append(manifest, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("Could not read manifest '%s': %w", path, err)
	}
	return manifest, nil
}

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0644)
}

// fileWriter is a buffered file that is removed unless it is closed
// successfully.
type fileWriter struct {
	*bufio.Writer
	f      *os.File
	closed bool
}

func newFileWriter(path string) (*fileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &fileWriter{Writer: bufio.NewWriter(f), f: f}, nil
}

func (w *fileWriter) close() error {
	w.closed = true
	if err := w.Flush(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

func (w *fileWriter) abort() {
	if !w.closed {
		w.f.Close()
		os.Remove(w.f.Name())
	}
}
