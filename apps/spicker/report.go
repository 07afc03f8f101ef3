package spicker

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Member is one model in a cluster.
type Member struct {
	// Path is the model's path, as listed in the manifest.
	Path string

	// Index is the model's 1-based position in the trajectory.
	Index int

	// Rank is the member's position in its cluster after sorting by
	// distance from the cluster center. Rank 0 is the centroid.
	Rank int

	// Distance is the RMSD from the cluster center (R_cen in the report).
	Distance float64
}

// Cluster is one section of a Spicker report.
type Cluster struct {
	// Number is the cluster number given in the section header.
	Number int

	// Size is the number of models Spicker assigned to the cluster (Nstr).
	Size int

	// Members are sorted by increasing distance from the cluster center.
	Members []Member
}

// Centroid returns the path of the cluster's centroid, or "" if the cluster
// has no members.
func (c Cluster) Centroid() string {
	if len(c.Members) == 0 {
		return ""
	}
	return c.Members[0].Path
}

// ParseError reports a malformed or truncated Spicker report.
type ParseError struct {
	File string
	Line int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	file := e.File
	if file == "" {
		file = ReportFile
	}
	s := fmt.Sprintf("%s:%d: %s", file, e.Line, e.Msg)
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseReport opens a Spicker report and reads it with ReadReport.
func ParseReport(path string, manifest []string) ([]Cluster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	clusters, err := ReadReport(f, manifest)
	if perr, ok := err.(*ParseError); ok {
		perr.File = path
	}
	return clusters, err
}

// ReadReport reads every cluster section from a Spicker report (str.txt) in
// report order. Trajectory indices in the report are resolved against
// manifest.
//
// A section looks like this:
//
//	#Cluster   1
//	<ignored>
//	<ignored>
//	Nstr=   3
//	  i_cl   i_str  R_nat   R_cen  E    #str     traj
//	     1      1   7.10    1.20   0.0     3  rep1.tra1
//	     1      2   6.30    0.40   0.0     1  rep1.tra1
//	------------------------------------------------
//
// A column header row starting with "i_cl" is skipped. Any other row that
// does not start with a number, a section without its separator, or a
// section whose row count differs from Nstr is a *ParseError.
func ReadReport(r io.Reader, manifest []string) ([]Cluster, error) {
	rd := &reportReader{scanner: bufio.NewScanner(r)}

	var clusters []Cluster
	for {
		line, ok := rd.next()
		if !ok {
			break
		}
		if !strings.HasPrefix(line, "#Cluster") {
			continue
		}
		c, err := rd.cluster(line, manifest)
		if err != nil {
			return nil, err
		}
		clusters = append(clusters, c)
	}
	if err := rd.scanner.Err(); err != nil {
		return nil, &ParseError{Line: rd.line, Msg: "could not read", Err: err}
	}
	return clusters, nil
}

type reportReader struct {
	scanner *bufio.Scanner
	line    int
}

func (rd *reportReader) next() (string, bool) {
	if !rd.scanner.Scan() {
		return "", false
	}
	rd.line++
	return strings.TrimSpace(rd.scanner.Text()), true
}

func (rd *reportReader) errorf(format string, v ...any) *ParseError {
	return &ParseError{Line: rd.line, Msg: fmt.Sprintf(format, v...)}
}

// cluster reads the rest of a section whose header has just been read.
func (rd *reportReader) cluster(header string, manifest []string) (Cluster, error) {
	var c Cluster

	fields := strings.Fields(header)
	if len(fields) < 2 {
		return c, rd.errorf("cluster header has no cluster number")
	}
	num, err := strconv.Atoi(fields[1])
	if err != nil {
		return c, rd.errorf("invalid cluster number '%s'", fields[1])
	}
	c.Number = num

	for range 2 {
		if _, ok := rd.next(); !ok {
			return c, rd.errorf("report ends inside cluster %d", num)
		}
	}
	line, ok := rd.next()
	if !ok {
		return c, rd.errorf("report ends inside cluster %d", num)
	}
	if !strings.HasPrefix(line, "Nstr=") {
		return c, rd.errorf("expected 'Nstr=' in cluster %d but got '%s'",
			num, line)
	}
	fields = strings.Fields(line)
	if len(fields) < 2 {
		return c, rd.errorf("'Nstr=' line has no cluster size")
	}
	if c.Size, err = strconv.Atoi(fields[1]); err != nil {
		return c, rd.errorf("invalid cluster size '%s'", fields[1])
	}

	for {
		line, ok := rd.next()
		if !ok {
			return c, rd.errorf("report ends before the end of cluster %d", num)
		}
		if strings.HasPrefix(line, "------") {
			break
		}
		if strings.HasPrefix(line, "#Cluster") || strings.HasPrefix(line, "Nstr=") {
			return c, rd.errorf("cluster %d has no '------' separator", num)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] == "i_cl" {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			return c, rd.errorf("invalid row '%s' in cluster %d", line, num)
		}
		if len(fields) < 6 {
			return c, rd.errorf("expected at least 6 columns but got %d",
				len(fields))
		}
		index, err := strconv.Atoi(fields[5])
		if err != nil {
			return c, rd.errorf("invalid structure index '%s'", fields[5])
		}
		if index < 1 || index > len(manifest) {
			return c, rd.errorf("structure index %d is not in the manifest "+
				"of %d models", index, len(manifest))
		}
		dist, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return c, rd.errorf("invalid centroid distance '%s'", fields[3])
		}
		c.Members = append(c.Members, Member{
			Path:     manifest[index-1],
			Index:    index,
			Distance: dist,
		})
	}

	if len(c.Members) != c.Size {
		return c, rd.errorf("cluster %d has Nstr= %d but lists %d structures",
			num, c.Size, len(c.Members))
	}

	slices.SortStableFunc(c.Members, func(a, b Member) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	for i := range c.Members {
		c.Members[i].Rank = i
	}
	return c, nil
}
