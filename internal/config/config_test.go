package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "SecondBrain", cfg.Name)
	assert.Contains(t, cfg.Intents.Domains["gmail"], "mail")
	assert.Contains(t, cfg.Intents.Sync, "sync")
	assert.Contains(t, cfg.Triage.UrgentKeywords, "asap")
	assert.Contains(t, cfg.Triage.ImportantKeywords, "ceo")

	assert.True(t, cfg.Policy.MorningShieldActive)
	assert.Equal(t, 0, cfg.Policy.MorningShieldStart)
	assert.Equal(t, 10, cfg.Policy.MorningShieldEnd)

	assert.Equal(t, "/api/auth/google/login", cfg.Intents.LoginURLs["gmail"])
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Name, cfg.Name)
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: TestBrain
policy:
  morning_shield_active: false
logging:
  level: debug
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "TestBrain", cfg.Name)
	assert.False(t, cfg.Policy.MorningShieldActive)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched sections keep their defaults.
	assert.Contains(t, cfg.Intents.Sync, "sync")
}

func TestLoad_RejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("who: [unclosed"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_EnvOverridesAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "secret-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "secret-key", cfg.LLM.APIKey)
	assert.Equal(t, "secret-key", cfg.Embedding.APIKey)
}

func TestLoad_EnvOverridesDataDir(t *testing.T) {
	t.Setenv("SECONDBRAIN_DATA", "/var/brain")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/var/brain", "brain", "personal_brain.json"), cfg.Storage.BrainPath)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Name = "Roundtrip"
	cfg.Intents.Domains["gmail"] = append(cfg.Intents.Domains["gmail"], "inbox")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Roundtrip", loaded.Name)
	assert.Contains(t, loaded.Intents.Domains["gmail"], "inbox")
}
