package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 9090
  timeout: 5s
ml:
  model_type: decision_tree
  model_path: models/tree.json
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "decision_tree", cfg.ML.ModelType)
	assert.Equal(t, "models/tree.json", cfg.ML.ModelPath)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched sections keep their defaults
	assert.Equal(t, "mushrooms.csv", cfg.Reference.Path)
	assert.Equal(t, "mushroom_classification.log", cfg.Log.File)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "http:\n  port: 9090\n")
	t.Setenv("MUSHROOM_HTTP_PORT", "7070")
	t.Setenv("MUSHROOM_ML_MODEL_PATH", "/srv/model.json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.HTTP.Port)
	assert.Equal(t, "/srv/model.json", cfg.ML.ModelPath)
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load(writeConfig(t, "http:\n  port: 0\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "metrics:\n  path: metrics\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "http: [broken"))
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "http.port", envKey("MUSHROOM_HTTP_PORT"))
	assert.Equal(t, "ml.model_path", envKey("MUSHROOM_ML_MODEL_PATH"))
	assert.Equal(t, "debug", envKey("MUSHROOM_DEBUG"))
}
