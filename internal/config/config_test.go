package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/examsbot/core/config"
)

// unsetenv removes key for the duration of the test; an empty value would still override YAML.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, coreconfig.RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, "exams", cfg.Catalog.Root)
	assert.Equal(t, StatsNone, cfg.Stats.Backend)
	assert.False(t, cfg.Database.Enabled)
	assert.Same(t, &cfg.Config, cfg.CoreConfig())
}

func TestLoadMissingTokenFails(t *testing.T) {
	t.Chdir(t.TempDir())
	unsetenv(t, "BOT_TOKEN")

	_, err := Load(writeYAML(t, "catalog:\n  root: /srv/exams\n"))
	require.ErrorIs(t, err, coreconfig.ErrMissingToken)
}

func TestLoadYAMLSections(t *testing.T) {
	t.Chdir(t.TempDir())
	unsetenv(t, "BOT_TOKEN")
	path := writeYAML(t, `
telegram:
  token: yaml-token
  admin_id: 7
catalog:
  root: /srv/exams
  labels:
    open_catalog: "Exams"
database:
  enabled: true
  host: db
  name: exams
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "yaml-token", cfg.Telegram.Token)
	assert.Equal(t, int64(7), cfg.Telegram.AdminID)
	assert.Equal(t, "/srv/exams", cfg.Catalog.Root)
	assert.Equal(t, "Exams", cfg.Catalog.Labels.OpenCatalog)
	assert.Equal(t, StatsPostgres, cfg.Stats.Backend)
	assert.Equal(t, "5432", cfg.Database.Port)
}

func TestEnvOverridesCatalogRoot(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOT_TOKEN", "t")
	t.Setenv("EXAMS_PATH", "/data/exams")

	cfg, err := Load(writeYAML(t, "catalog:\n  root: /srv/exams\n"))
	require.NoError(t, err)
	assert.Equal(t, "/data/exams", cfg.Catalog.Root)
}

func TestStatsBackendValidation(t *testing.T) {
	cfg := Config{Config: coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t"}}}
	cfg.Stats.Backend = "postgres"
	require.Error(t, cfg.Normalize())

	cfg.Stats.Backend = "Memory"
	require.NoError(t, cfg.Normalize())
	assert.Equal(t, StatsMemory, cfg.Stats.Backend)

	cfg.Stats.Backend = "redis"
	require.Error(t, cfg.Normalize())
}
