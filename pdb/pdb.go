package pdb

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"
)

// Coords is a point in 3-space, in Angstroms.
type Coords struct {
	X, Y, Z float64
}

// Atom is a single ATOM record from a PDB file. Only the fields needed to
// reduce a model to its alpha-carbon trace are kept.
type Atom struct {
	Name        string
	ResidueName string
	Chain       byte
	ResidueInd  int
	Coords
}

// Entry represents the coordinates read from a single PDB file.
//
// Atoms holds every ATOM record in file order. CaAtoms holds only the
// carbon-alpha atoms, also in file order. For files with several MODEL
// sections, only the first model is read.
type Entry struct {
	Path    string
	Atoms   []Atom
	CaAtoms []Atom
}

// Read creates a new PDB Entry from a file. If the file cannot be read, or
// there is an error parsing the PDB file, an error is returned.
//
// If the file name ends with ".gz", gzip decompression will be used.
func Read(fileName string) (*Entry, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var reader io.Reader = f
	if path.Ext(fileName) == ".gz" {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("Could not decompress '%s': %w", fileName, err)
		}
		defer gz.Close()
		reader = gz
	}
	return ReadFrom(reader, fileName)
}

// ReadFrom is like Read, but reads the PDB records from r. The name is used
// as the entry's Path and in error messages.
func ReadFrom(r io.Reader, name string) (*Entry, error) {
	entry := &Entry{Path: name}

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		// The record name is always in the first six columns.
		switch strings.TrimSpace(field(line, 0, 6)) {
		case "ATOM":
			atom, keep, err := parseAtom(line)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", name, lineNum, err)
			}
			if !keep {
				continue
			}
			entry.Atoms = append(entry.Atoms, atom)
			if atom.Name == "CA" {
				entry.CaAtoms = append(entry.CaAtoms, atom)
			}
		case "ENDMDL":
			return entry, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("Could not read '%s': %w", name, err)
	}
	return entry, nil
}

// Name returns the base name of the entry's file without its extensions.
func (e *Entry) Name() string {
	base := path.Base(e.Path)
	base = strings.TrimSuffix(base, ".gz")
	return strings.TrimSuffix(base, path.Ext(base))
}

// Len returns the number of residues in the entry, as counted by its
// carbon-alpha atoms.
func (e *Entry) Len() int {
	return len(e.CaAtoms)
}

// parseAtom reads the fixed columns of an ATOM record. Alternate locations
// other than the first ('A') are skipped, which is reported by returning
// keep as false.
func parseAtom(line string) (atom Atom, keep bool, err error) {
	if len(line) < 54 {
		return atom, false, fmt.Errorf("ATOM record has %d columns, but "+
			"coordinates end at column 54", len(line))
	}
	if alt := line[16]; alt != ' ' && alt != 'A' {
		return atom, false, nil
	}

	atom.Name = strings.TrimSpace(line[12:16])
	atom.ResidueName = strings.TrimSpace(line[17:20])
	atom.Chain = line[21]

	snum := strings.TrimSpace(line[22:26])
	num, err := strconv.Atoi(snum)
	if err != nil {
		return atom, false, fmt.Errorf("Invalid residue sequence number '%s'",
			snum)
	}
	atom.ResidueInd = num

	coords := [3]*float64{&atom.X, &atom.Y, &atom.Z}
	for i, dst := range coords {
		s := strings.TrimSpace(line[30+i*8 : 38+i*8])
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return atom, false, fmt.Errorf("Invalid coordinate '%s'", s)
		}
		*dst = v
	}
	return atom, true, nil
}

// field returns line[start:end], truncated to the length of the line.
func field(line string, start, end int) string {
	if start >= len(line) {
		return ""
	}
	if end > len(line) {
		end = len(line)
	}
	return line[start:end]
}
