package rosetta

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// bundles from 3.6 on are named after their release date.
var bundleName = regexp.MustCompile(`rosetta_\d{4}\.\d{2}\.\d{5}_bundle`)

// DetectVersion returns the major and minor version of the Rosetta
// installation in dir, such as 3.4.
//
// The version is read from dir/README.version when it exists. Releases
// without that file are recognized by their directory name: a name ending
// in "3.5" is 3.5 and a weekly bundle name is 3.6.
func DetectVersion(dir string) (float64, error) {
	versionFile := filepath.Join(dir, "README.version")
	f, err := os.Open(versionFile)
	if err == nil {
		defer f.Close()
		return readVersion(f.Name(), bufio.NewScanner(f))
	}
	if !os.IsNotExist(err) {
		return 0, err
	}

	name := filepath.Base(filepath.Clean(dir))
	switch {
	case strings.HasSuffix(name, "3.5"):
		return 3.5, nil
	case bundleName.MatchString(name):
		return 3.6, nil
	}
	return 0, fmt.Errorf("Cannot determine the Rosetta version in '%s'.", dir)
}

func readVersion(name string, scanner *bufio.Scanner) (float64, error) {
	var version float64
	found := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "Rosetta") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		parts := strings.Split(fields[1], ".")
		if len(parts) > 2 {
			parts = parts[:2]
		}
		v, err := strconv.ParseFloat(strings.Join(parts, "."), 64)
		if err != nil {
			return 0, fmt.Errorf("Invalid Rosetta version '%s' in '%s'.",
				fields[1], name)
		}
		version, found = v, true
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("No Rosetta version found in '%s'.", name)
	}
	return version, nil
}
