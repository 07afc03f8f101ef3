package rosetta

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	conf := DefaultConfig
	conf.Database = "/rosetta/database"
	conf.Fasta = "/in/1abc.fasta"
	conf.Frags3 = "/in/aat000_03_05.200_v1_3"
	conf.Frags9 = "/in/aat000_09_05.200_v1_3"
	return conf
}

// flag returns the value following name in cmd, or "" if there is none.
func flag(cmd []string, name string) string {
	i := slices.Index(cmd, name)
	if i < 0 || i+1 >= len(cmd) {
		return ""
	}
	return cmd[i+1]
}

func TestCommand(t *testing.T) {
	cmd, err := testConfig().Command("/work/worker_2", 25, 1234567)
	require.NoError(t, err)

	assert.Equal(t, []string{"AbinitioRelax",
		"-database", "/rosetta/database",
		"-in::file::fasta", "/in/1abc.fasta",
		"-in:file:frag3", "/in/aat000_03_05.200_v1_3",
		"-in:file:frag9", "/in/aat000_09_05.200_v1_3",
		"-out:path", "/work/worker_2",
		"-out:pdb",
		"-out:nstruct", "25",
		"-out:file:silent", "/work/worker_2/silent.out",
		"-run:constant_seed",
		"-run:jran", "1234567",
		"-abinitio:relax",
		"-relax::fast",
		"-abinitio::rsd_wt_helix", "0.5",
		"-abinitio::rsd_wt_loop", "0.5",
		"-use_filters", "true",
		"-return_full_atom", "false",
		"-rg_reweight", "0.5",
	}, cmd)
}

func TestCommandOldVersion(t *testing.T) {
	conf := testConfig()
	conf.Version = 3.3
	conf.PsipredSS2 = "/in/1abc.ss2"
	cmd, err := conf.Command("/w", 1, 1000000)
	require.NoError(t, err)
	assert.NotContains(t, cmd, "-use_filters")
	assert.NotContains(t, cmd, "-psipred_ss2")
}

func TestCommandOptions(t *testing.T) {
	conf := testConfig()
	conf.AllAtom = true
	conf.PsipredSS2 = "/in/1abc.ss2"
	conf.RgReweight = "0"
	conf.ImproveTemplate = "/in/template.pdb"
	cmd, err := conf.Command("/w", 1, 1000000)
	require.NoError(t, err)

	assert.Equal(t, "true", flag(cmd, "-return_full_atom"))
	assert.Equal(t, "/in/1abc.ss2", flag(cmd, "-psipred_ss2"))
	assert.Equal(t, "0", flag(cmd, "-rg_reweight"))
	assert.Equal(t, "/in/template.pdb", flag(cmd, "-in:file:native"))
	assert.Equal(t, "True", flag(cmd, "-templates:force_native_topology"))
}

func TestCommandNative(t *testing.T) {
	conf := testConfig()
	conf.Native = "/in/native.pdb"
	cmd, err := conf.Command("/w", 1, 1000000)
	require.NoError(t, err)
	assert.Equal(t, "/in/native.pdb", flag(cmd, "-in:file:native"))
}

func TestCommandTransmembrane(t *testing.T) {
	conf := testConfig()
	conf.Transmembrane = true
	_, err := conf.Command("/w", 1, 1000000)
	require.Error(t, err)

	conf.SpanFile = "/in/1abc.span"
	conf.LipoFile = "/in/1abc.lips4"
	cmd, err := conf.Command("/w", 1, 1000000)
	require.NoError(t, err)
	assert.Equal(t, "membrane_abinitio2", cmd[0])
	assert.Equal(t, "/in/1abc.span", flag(cmd, "-in:file:spanfile"))
	assert.Equal(t, "/in/1abc.lips4", flag(cmd, "-in:file:lipofile"))
	assert.Equal(t, "40", flag(cmd, "-membrane:normal_cycles"))
	assert.Contains(t, cmd, "-abinitio:membrane")
}

func TestCommandInvalid(t *testing.T) {
	_, err := testConfig().Command("/w", 0, 1000000)
	assert.Error(t, err)

	conf := testConfig()
	conf.Exec = ""
	_, err = conf.Command("/w", 1, 1000000)
	assert.Error(t, err)

	conf = testConfig()
	conf.ConstraintsFile = filepath.Join(t.TempDir(), "missing.cst")
	_, err = conf.Command("/w", 1, 1000000)
	assert.Error(t, err)
}

func TestPrepareDomainConstraints(t *testing.T) {
	dir := t.TempDir()
	fasta := filepath.Join(dir, "1abc.fasta")
	require.NoError(t, os.WriteFile(fasta,
		[]byte(">1abc protein\nMKVLA\nAGQ*\n"), 0644))

	conf := testConfig()
	conf.Fasta = fasta
	conf.DomainTerminiDistance = 12
	_, err := conf.Command(dir, 1, 1000000)
	require.Error(t, err, "constraints must be prepared first")

	require.NoError(t, conf.Prepare(dir))
	assert.Equal(t, filepath.Join(dir, ConstraintsName), conf.ConstraintsFile)

	data, err := os.ReadFile(conf.ConstraintsFile)
	require.NoError(t, err)
	assert.Equal(t, "AtomPair CA 1 CA 8 GAUSSIANFUNC 12.0 5.0 TAG\n", string(data))

	cmd, err := conf.Command(dir, 1, 1000000)
	require.NoError(t, err)
	assert.Equal(t, conf.ConstraintsFile, flag(cmd, "-constraints:cst_file"))
	assert.Equal(t, conf.ConstraintsFile, flag(cmd, "-constraints:cst_fa_file"))
}

func TestWriteDomainConstraintsEmpty(t *testing.T) {
	dir := t.TempDir()
	fasta := filepath.Join(dir, "empty.fasta")
	require.NoError(t, os.WriteFile(fasta, []byte(">nothing\n"), 0644))
	_, err := WriteDomainConstraints(fasta, dir, 10.5)
	assert.Error(t, err)
}

func TestDetectVersion(t *testing.T) {
	root := t.TempDir()
	withReadme := filepath.Join(root, "rosetta3.4")
	require.NoError(t, os.MkdirAll(withReadme, 0777))
	require.NoError(t, os.WriteFile(filepath.Join(withReadme, "README.version"),
		[]byte("Rosetta 3.4.1\nbuilt somewhere\n"), 0644))

	tests := []struct {
		dir  string
		want float64
	}{
		{withReadme, 3.4},
		{filepath.Join(root, "rosetta-3.5"), 3.5},
		{filepath.Join(root, "rosetta-3.5") + "/", 3.5},
		{filepath.Join(root, "rosetta_2014.30.57114_bundle"), 3.6},
	}
	for _, test := range tests {
		require.NoError(t, os.MkdirAll(test.dir, 0777))
		got, err := DetectVersion(test.dir)
		require.NoError(t, err, test.dir)
		assert.Equal(t, test.want, got, test.dir)
	}

	unknown := filepath.Join(root, "rosetta")
	require.NoError(t, os.MkdirAll(unknown, 0777))
	_, err := DetectVersion(unknown)
	assert.Error(t, err)
}

func TestDetectVersionBadReadme(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.version"),
		[]byte("Rosetta three\n"), 0644))
	_, err := DetectVersion(dir)
	assert.Error(t, err)
}

const scoreFile = `SCORE: score fa_atr rms maxsub description
SCORE: -120.5 -300.1 8.2 40.0 S_00000001

SCORE: -130.5 -310.2 6.1 55.0 S_00000002
SCORE: -110.0 -290.0 9.3 35.0 S_00000003
`

func TestReadScores(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ScoreFile),
		[]byte(scoreFile), 0644))

	scores, err := ReadScores(dir)
	require.NoError(t, err)
	require.Len(t, scores.Data, 3)

	first := scores.Data[0]
	assert.Equal(t, -120.5, first.Score)
	assert.Equal(t, 8.2, first.Rms)
	assert.Equal(t, 40.0, first.Maxsub)
	assert.Equal(t, filepath.Join(dir, "S_00000001.pdb"), first.Model)

	assert.Equal(t, -130.5, scores.TopScore)
	assert.Equal(t, 6.1, scores.TopRms)
	assert.Equal(t, 55.0, scores.TopMaxsub)
	assert.InDelta(t, -120.333, scores.AvgScore, 0.001)
	assert.InDelta(t, 43.333, scores.AvgMaxsub, 0.001)

	assert.Equal(t, "S_00000002", scores.ByMaxsub()[0].Description)
	assert.Equal(t, "S_00000002", scores.ByRms()[0].Description)
	assert.Equal(t, "S_00000001", scores.Data[0].Description,
		"sorting must not reorder the original rows")

	s, ok := scores.Lookup("S_00000003")
	require.True(t, ok)
	assert.Equal(t, 9.3, s.Rms)
	assert.True(t, strings.HasPrefix(scores.String(), "Results for: "+dir))
}

func TestReadScoresMissingColumn(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ScoreFile),
		[]byte("SCORE: score description\nSCORE: -1.0 S_1\n"), 0644))
	_, err := ReadScores(dir)
	assert.ErrorContains(t, err, "Missing")
}
