package spicker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(clusters int) Config {
	conf := DefaultConfig
	conf.Clusters = clusters
	conf.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return conf
}

func TestResults(t *testing.T) {
	clusters, err := ReadReport(strings.NewReader(twoClusters), abc)
	require.NoError(t, err)

	dir := t.TempDir()
	results, err := testConfig(2).Results(dir, clusters)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 1, results[0].Index)
	assert.Equal(t, []string{"a.pdb", "c.pdb"}, paths(results[0].Members))
	assert.Equal(t, "a.pdb", results[0].Centroid)
	assert.False(t, results[0].Capped)
	assert.Equal(t, filepath.Join(dir, "spicker_cluster_1.list"), results[0].ListFile)
	assert.Equal(t, "a.pdb\nc.pdb\n", readString(t, results[0].ListFile))

	assert.Equal(t, "b.pdb", results[1].Centroid)
	assert.Equal(t, "b.pdb\n", readString(t, results[1].ListFile))
}

func TestResultsKeepsReportOrder(t *testing.T) {
	clusters, err := ReadReport(strings.NewReader(twoClusters), abc)
	require.NoError(t, err)

	results, err := testConfig(1).Results(t.TempDir(), clusters)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a.pdb", results[0].Centroid)
}

func TestResultsInsufficientClusters(t *testing.T) {
	clusters, err := ReadReport(strings.NewReader(twoClusters), abc)
	require.NoError(t, err)

	dir := t.TempDir()
	_, err = testConfig(3).Results(dir, clusters)
	var ierr *InsufficientClustersError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, 2, ierr.Got)
	assert.Equal(t, 3, ierr.Want)

	lists, _ := filepath.Glob(filepath.Join(dir, "*.list"))
	assert.Empty(t, lists)
}

func TestResultsCapped(t *testing.T) {
	clusters, err := ReadReport(strings.NewReader(twoClusters), abc)
	require.NoError(t, err)

	conf := testConfig(1)
	conf.MaxClusterSize = 1
	results, err := conf.Results(t.TempDir(), clusters)
	require.NoError(t, err)

	r := results[0]
	assert.True(t, r.Capped)
	assert.Equal(t, 2, r.Size)
	assert.Equal(t, []string{"a.pdb"}, paths(r.Members))
	assert.Equal(t, "a.pdb\n", readString(t, r.ListFile))
	assert.Contains(t, Summary(results, nil), "* models kept: 1")
}

func TestSummary(t *testing.T) {
	results := []Result{{
		Index: 1, Size: 2, Centroid: "a.pdb", ListFile: "/w/spicker_cluster_1.list",
	}}
	assert.Equal(t, "---- Spicker Results ----\n\n"+
		"Cluster: 1\n"+
		"* number of models: 2\n"+
		"* files are listed in file: /w/spicker_cluster_1.list\n"+
		"* centroid model is: a.pdb\n\n", Summary(results, nil))
}

func TestSummaryListsRemainingClusters(t *testing.T) {
	clusters := []Cluster{
		{Number: 1, Size: 5, Members: []Member{{Path: "a.pdb"}}},
		{Number: 2, Size: 3, Members: []Member{{Path: "b.pdb"}}},
		{Number: 3, Size: 1, Members: []Member{{Path: "c.pdb"}}},
	}
	results := []Result{{
		Index: 1, Size: 5, Centroid: "a.pdb", ListFile: "/w/spicker_cluster_1.list",
	}}
	assert.Equal(t, "---- Spicker Results ----\n\n"+
		"Cluster: 1\n"+
		"* number of models: 5\n"+
		"* files are listed in file: /w/spicker_cluster_1.list\n"+
		"* centroid model is: a.pdb\n\n"+
		"Cluster: 2\n"+
		"* number of models: 3\n\n"+
		"Cluster: 3\n"+
		"* number of models: 1\n\n", Summary(results, clusters))
}

// fakeSpicker writes an executable that checks its input files exist and
// then writes a report with one cluster holding models 2 and 1.
func fakeSpicker(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh is not available")
	}
	script := `#!/bin/sh
for f in rep1.tra1 file_list rmsinp tra.in seq.dat; do
  test -f $f || { echo "missing $f"; exit 1; }
done
echo "clustering"
cat > str.txt <<EOF
#Cluster 1
x
x
Nstr= 2
1 1 0 0.9 0 1 rep1.tra1
1 2 0 0.3 0 2 rep1.tra1
------
EOF
`
	path := filepath.Join(t.TempDir(), "spicker")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func TestRun(t *testing.T) {
	exe := fakeSpicker(t)
	models := t.TempDir()
	a := writeModel(t, models, "a.pdb", 0, residues...)
	b := writeModel(t, models, "b.pdb", 1, residues...)

	conf := testConfig(1)
	conf.Exec = exe
	dir := filepath.Join(t.TempDir(), "spicker")
	results, err := conf.Run(context.Background(), dir, []string{a, b})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{b, a}, paths(results[0].Members))
	assert.Equal(t, b, results[0].Centroid)
	assert.Equal(t, "clustering\n", readString(t, filepath.Join(dir, LogFile)))
	assert.Contains(t, readString(t, filepath.Join(dir, SummaryFile)),
		"* centroid model is: "+b+"\n")
}

func TestRunTooFewClusters(t *testing.T) {
	exe := fakeSpicker(t)
	models := t.TempDir()
	a := writeModel(t, models, "a.pdb", 0, residues...)

	conf := testConfig(2)
	conf.Exec = exe
	_, err := conf.Run(context.Background(), t.TempDir(), []string{a, a})
	var ierr *InsufficientClustersError
	assert.True(t, errors.As(err, &ierr))
}

func TestRunFailure(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh is not available")
	}
	exe := filepath.Join(t.TempDir(), "spicker")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\necho broken\nexit 2\n"), 0755))

	models := t.TempDir()
	a := writeModel(t, models, "a.pdb", 0, residues...)
	conf := testConfig(1)
	conf.Exec = exe
	dir := t.TempDir()
	_, err := conf.Run(context.Background(), dir, []string{a})
	require.Error(t, err)
	assert.Contains(t, err.Error(), filepath.Join(dir, LogFile))
	assert.Equal(t, "broken\n", readString(t, filepath.Join(dir, LogFile)))
}
