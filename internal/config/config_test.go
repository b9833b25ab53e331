package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPathMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadPath(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 400, cfg.Watch.DebounceMS)
	assert.Equal(t, DefaultWeights(), cfg.Weights)
}

func TestLoadPathOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[openai]
model = "gpt-4o"

[data]
dir = "/srv/allocation"

[watch]
debounce_ms = 1000
notify = false

[weights]
clientPriority = 80
skillMatch = 20
`), 0644))

	cfg, err := LoadPath(path)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, "/srv/allocation", cfg.Data.Dir)
	assert.Equal(t, 1000, cfg.Watch.DebounceMS)
	assert.False(t, cfg.Watch.Notify)
	assert.Equal(t, float64(80), cfg.Weights["clientPriority"])
	assert.NotContains(t, cfg.Weights, "taskCompletion", "an explicit weights table replaces the defaults")
}

func TestLoadPathRejectsOutOfRangeValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[weights]
clientPriority = 150
`), 0644))

	_, err := LoadPath(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`
[watch]
debounce_ms = 5
`), 0644))

	_, err = LoadPath(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("PREFLIGHT_DATA_DIR", "/data")

	cfg, err := LoadPath(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, "/data", cfg.Data.Dir)
}

func TestSavePathRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	want := DefaultConfig()
	want.OpenAI.Model = "gpt-4o"
	want.Weights["workerBalance"] = 75

	require.NoError(t, SavePath(path, want))

	got, err := LoadPath(path)
	require.NoError(t, err)
	assert.Equal(t, want.OpenAI.Model, got.OpenAI.Model)
	assert.Equal(t, float64(75), got.Weights["workerBalance"])
}
