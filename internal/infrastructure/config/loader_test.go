package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/promptsmith/assets"
	"github.com/doeshing/promptsmith/internal/domain"
)

func TestFileLoaderWritesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	loader := NewFileLoader(path)

	cfg, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Models)
	assert.True(t, cfg.HasModel(cfg.Preferences.DefaultModel))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, assets.DefaultConfigYAML, raw)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(domain.SecureFilePermissions), info.Mode().Perm())
}

func TestFileLoaderHydratesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
models:
  - name: first
    provider: openai
    endpoint: http://localhost/v1/chat/completions
history:
  retention_days: -3
`), 0o600))

	cfg, err := NewFileLoader(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", cfg.Preferences.DefaultModel)
	assert.Equal(t, "24h0m0s", cfg.Cache.TTL)
	assert.Equal(t, domain.DefaultMaxCacheEntries, cfg.Cache.MaxEntries)
	assert.Equal(t, 0, cfg.History.RetentionDays)
	assert.Equal(t, "1", cfg.ConfigFormatVersion)
}

func TestFileLoaderEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvDefaultModel, "claude-sonnet")
	t.Setenv(EnvListen, "0.0.0.0:9000")
	t.Setenv(EnvHistoryBackend, "SQLite")
	t.Setenv(EnvHistoryDSN, "/tmp/h.db")
	t.Setenv(EnvCacheBackend, "file")

	cfg, err := NewFileLoader(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet", cfg.Preferences.DefaultModel)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Listen)
	assert.Equal(t, domain.HistoryBackendSQLite, cfg.History.Backend)
	assert.Equal(t, "/tmp/h.db", cfg.History.DSN)
	assert.Equal(t, domain.CacheBackendFile, cfg.Cache.Backend)
}

func TestFileLoaderConfigEnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	t.Setenv(EnvConfigPath, path)
	loader := NewFileLoader("")
	assert.Equal(t, path, loader.Path())
}

func TestFileLoaderSaveAndBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	loader := NewFileLoader(path)
	cfg, err := loader.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, cfg.SetDefaultModel(cfg.Models[len(cfg.Models)-1].Name))
	require.NoError(t, loader.Save(cfg))

	reloaded, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cfg.Preferences.DefaultModel, reloaded.Preferences.DefaultModel)

	backup, err := loader.Backup()
	require.NoError(t, err)
	assert.FileExists(t, backup)

	reset, err := loader.Reset()
	require.NoError(t, err)
	assert.Equal(t, cfg.Models[0].Name, reset.Preferences.DefaultModel)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PROMPTSMITH_TEST_DOTENV=loaded\n"), 0o600))
	t.Setenv("PROMPTSMITH_TEST_DOTENV", "")
	os.Unsetenv("PROMPTSMITH_TEST_DOTENV")

	LoadDotEnv(envFile)
	assert.Equal(t, "loaded", os.Getenv("PROMPTSMITH_TEST_DOTENV"))
}
