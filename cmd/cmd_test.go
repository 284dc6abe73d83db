package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fixtureForest    = "../ml/testdata/forest.json"
	fixtureReference = "../pipeline/testdata/mushrooms_sample.csv"
)

// writeConfig writes a quiet config pointing at the test fixtures.
func writeConfig(t *testing.T, modelPath string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "log:\n  level: error\n  file: \"\"\n  console: false\n" +
		"ml:\n  model_path: " + modelPath + "\n" +
		"reference:\n  path: " + fixtureReference + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestParseSelections(t *testing.T) {
	got, err := parseSelections([]string{"odor=none", "bruises= no bruises ", "gill-color="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"odor": "none", "bruises": "no bruises", "gill-color": ""}, got)

	_, err = parseSelections([]string{"odor"})
	assert.Error(t, err)
	_, err = parseSelections([]string{"=none"})
	assert.Error(t, err)
	_, err = parseSelections([]string{"odor=none", "odor=foul"})
	assert.ErrorContains(t, err, "more than once")
}

func TestPredictCommand(t *testing.T) {
	cfg := writeConfig(t, fixtureForest)

	out, _, err := run(t, "--config", cfg, "predict", "--set", "odor=none", "--set", "gill-size=broad")
	require.NoError(t, err)
	assert.Contains(t, out, "Prediction: Edible (Probability: ")
	assert.Contains(t, out, "Defaulted to 0: cap-shape")

	out, _, err = run(t, "--config", cfg, "predict", "--set", "odor=foul")
	require.NoError(t, err)
	assert.Contains(t, out, "Prediction: Poisonous (Probability: 100.00%)")
	assert.Contains(t, out, "Edible: 0.00%")
}

func TestPredictCommandWarnsOnUnseenLabel(t *testing.T) {
	cfg := writeConfig(t, fixtureForest)

	_, stderr, err := run(t, "--config", cfg, "predict", "--set", "odor=none", "--set", "gill-color=neon")
	require.NoError(t, err)
	assert.Contains(t, stderr, `unseen label "neon" for feature gill-color, using code 0`)
}

func TestPredictCommandJSON(t *testing.T) {
	cfg := writeConfig(t, fixtureForest)

	out, _, err := run(t, "--config", cfg, "predict", "--set", "odor=foul", "--json")
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.EqualValues(t, 1, payload["label"])
	assert.Len(t, payload["vector"], 22)
}

func TestPredictCommandJSONWarnsOnStderr(t *testing.T) {
	cfg := writeConfig(t, fixtureForest)

	out, stderr, err := run(t, "--config", cfg, "predict", "--set", "odor=none", "--set", "gill-color=neon", "--json")
	require.NoError(t, err)
	assert.Contains(t, stderr, `warning: unseen label "neon" for feature gill-color, using code 0`)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &payload), "stdout must stay pure JSON")
	assert.Len(t, payload["warnings"], 1)
}

func TestPredictCommandErrors(t *testing.T) {
	cfg := writeConfig(t, filepath.Join(t.TempDir(), "missing.json"))

	_, _, err := run(t, "--config", cfg, "predict", "--set", "odor=none")
	assert.ErrorContains(t, err, "load model")

	cfg = writeConfig(t, fixtureForest)
	_, _, err = run(t, "--config", cfg, "predict", "--set", "colour=red")
	assert.ErrorContains(t, err, "not a catalog feature")

	_, _, err = run(t, "--config", cfg, "predict", "--set", "odor")
	assert.ErrorContains(t, err, "want feature=value")
}

func TestOptionsCommand(t *testing.T) {
	cfg := writeConfig(t, fixtureForest)

	out, _, err := run(t, "--config", cfg, "options", "odor")
	require.NoError(t, err)
	assert.Equal(t, "odor: almond, anise, foul, none, pungent\n", out)

	out, _, err = run(t, "--config", cfg, "options")
	require.NoError(t, err)
	assert.Contains(t, out, "gill-size: broad, narrow\n")
	assert.NotContains(t, out, "cap-shape")

	out, _, err = run(t, "--config", cfg, "options", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "cap-shape: ")

	_, _, err = run(t, "--config", cfg, "options", "colour")
	assert.ErrorContains(t, err, "unknown feature")
}

func TestImportCommand(t *testing.T) {
	cfg := writeConfig(t, fixtureForest)
	dbPath := filepath.Join(t.TempDir(), "mushrooms.db")

	out, _, err := run(t, "--config", cfg, "import", "--csv", fixtureReference, "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "imported 10 rows into "+dbPath+"\n", out)

	_, _, err = run(t, "--config", cfg, "import", "--csv", fixtureReference)
	assert.ErrorContains(t, err, "required")
}

func TestImportCommandReportsSkippedRows(t *testing.T) {
	cfg := writeConfig(t, fixtureForest)
	csvPath := filepath.Join(t.TempDir(), "ragged.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("class,odor\ne,n\np\n"), 0o644))
	dbPath := filepath.Join(t.TempDir(), "ragged.db")

	out, _, err := run(t, "--config", cfg, "import", "--csv", csvPath, "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "imported 1 rows into "+dbPath+" (1 malformed rows skipped)\n", out)
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "mushroom-classification (devel)\n", out)
}
