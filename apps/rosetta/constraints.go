package rosetta

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// ConstraintsName is the file name WriteDomainConstraints writes to.
const ConstraintsName = "constraints"

// WriteDomainConstraints writes a constraints file to dir that restrains the
// first and last alpha carbons of the sequence in fasta to be about dist
// Angstroms apart. It returns the path of the file.
func WriteDomainConstraints(fasta, dir string, dist float64) (string, error) {
	length, err := sequenceLength(fasta)
	if err != nil {
		return "", err
	}
	if length == 0 {
		return "", fmt.Errorf("No sequence found in '%s'.", fasta)
	}

	path := filepath.Join(dir, ConstraintsName)
	line := fmt.Sprintf("AtomPair CA 1 CA %d GAUSSIANFUNC %s 5.0 TAG\n",
		length, formatFloat(dist))
	if err := os.WriteFile(path, []byte(line), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// sequenceLength counts the residues in a single sequence FASTA file. Every
// letter, digit or underscore outside of header lines counts as a residue.
func sequenceLength(fasta string) (int, error) {
	f, err := os.Open(fasta)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, ">") {
			continue
		}
		for _, r := range line {
			if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
				n++
			}
		}
	}
	return n, scanner.Err()
}

func formatFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
