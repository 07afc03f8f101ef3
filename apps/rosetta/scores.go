package rosetta

import (
	"bufio"
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// ScoreFile is the name of the score file Rosetta writes next to its models.
const ScoreFile = "score.fsc"

// Score is one row of a Rosetta score file.
type Score struct {
	Score       float64
	Rms         float64
	Maxsub      float64
	Description string

	// Model is the path of the model this row scores.
	Model string
}

// Scores are all of the rows in a score file with some summary values.
// Lower scores and RMSDs are better; higher maxsub values are better.
type Scores struct {
	Dir  string
	Data []Score

	TopScore, AvgScore   float64
	TopRms, AvgRms       float64
	TopMaxsub, AvgMaxsub float64
}

// ReadScores reads dir/score.fsc. The file only has rms and maxsub columns
// when Rosetta was given a native structure.
func ReadScores(dir string) (*Scores, error) {
	path := filepath.Join(dir, ScoreFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scores := &Scores{Dir: dir}
	cols := map[string]int{"score": -1, "rms": -1, "maxsub": -1, "description": -1}
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if lineNum == 1 {
			for i, name := range fields {
				if _, ok := cols[name]; ok {
					cols[name] = i
				}
			}
			for name, i := range cols {
				if i < 0 {
					return nil, fmt.Errorf("Missing '%s' column in '%s'.",
						name, path)
				}
			}
			continue
		}
		if len(fields) == 0 {
			continue
		}

		var s Score
		nums := []struct {
			col string
			dst *float64
		}{
			{"score", &s.Score}, {"rms", &s.Rms}, {"maxsub", &s.Maxsub},
		}
		for _, num := range nums {
			v, err := strconv.ParseFloat(column(fields, cols[num.col]), 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: invalid %s: %w",
					path, lineNum, num.col, err)
			}
			*num.dst = v
		}
		s.Description = column(fields, cols["description"])
		if s.Description == "" {
			return nil, fmt.Errorf("%s:%d: missing description", path, lineNum)
		}
		s.Model = filepath.Join(dir, s.Description+".pdb")
		scores.Data = append(scores.Data, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(scores.Data) == 0 {
		return nil, fmt.Errorf("No scores found in '%s'.", path)
	}
	scores.summarize()
	return scores, nil
}

func column(fields []string, i int) string {
	if i >= len(fields) {
		return ""
	}
	return fields[i]
}

func (s *Scores) summarize() {
	first := s.Data[0]
	s.TopScore, s.TopRms, s.TopMaxsub = first.Score, first.Rms, first.Maxsub
	var score, rms, maxsub float64
	for _, d := range s.Data {
		score += d.Score
		rms += d.Rms
		maxsub += d.Maxsub
		s.TopScore = min(s.TopScore, d.Score)
		s.TopRms = min(s.TopRms, d.Rms)
		s.TopMaxsub = max(s.TopMaxsub, d.Maxsub)
	}
	n := float64(len(s.Data))
	s.AvgScore, s.AvgRms, s.AvgMaxsub = score/n, rms/n, maxsub/n
}

// ByMaxsub returns the scores sorted from best (highest) to worst maxsub.
func (s *Scores) ByMaxsub() []Score {
	sorted := slices.Clone(s.Data)
	slices.SortStableFunc(sorted, func(a, b Score) int {
		return cmp.Compare(b.Maxsub, a.Maxsub)
	})
	return sorted
}

// ByRms returns the scores sorted from best (lowest) to worst RMSD.
func (s *Scores) ByRms() []Score {
	sorted := slices.Clone(s.Data)
	slices.SortStableFunc(sorted, func(a, b Score) int {
		return cmp.Compare(a.Rms, b.Rms)
	})
	return sorted
}

// Lookup finds the score of the model with the given description.
func (s *Scores) Lookup(description string) (Score, bool) {
	for _, d := range s.Data {
		if d.Description == description {
			return d, true
		}
	}
	return Score{}, false
}

func (s *Scores) String() string {
	return fmt.Sprintf("Results for: %s\n"+
		"Top score : %g\nAvg score : %g\n"+
		"Top rms   : %g\nAvg rms   : %g\n"+
		"Top maxsub: %g\nAvg maxsub: %g\n",
		s.Dir, s.TopScore, s.AvgScore, s.TopRms, s.AvgRms,
		s.TopMaxsub, s.AvgMaxsub)
}
