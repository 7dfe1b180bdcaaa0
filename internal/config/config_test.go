package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/nikbrunner/bmsync/internal/config"
)

func TestLoad_CreatesDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg, err := config.Load(path)
	assert.NilError(t, err)

	assert.Equal(t, cfg.Storage.Backend, config.BackendJSON)
	assert.Equal(t, cfg.Storage.Path, filepath.Join(dir, "bookmarks.json"))
	assert.Equal(t, cfg.Remote.Timeout, 15*time.Second)
	assert.Equal(t, cfg.QuickAddFolder, "Read Later")
	assert.DeepEqual(t, cfg.Cull.ExcludeDomains, []string{"github.com", "gitlab.com"})

	_, err = os.Stat(path)
	assert.NilError(t, err, "config file should be written on first load")
}

func TestLoad_ReadsFileAndKeepsDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
storage:
  backend: sqlite
  path: /tmp/bm.db
remote:
  baseURL: https://bm.example.com
  timeout: 3s
server:
  accounts:
    - name: alice
      token: AbC123
`
	assert.NilError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := config.Load(path)
	assert.NilError(t, err)

	assert.Equal(t, cfg.Storage.Backend, config.BackendSQLite)
	assert.Equal(t, cfg.Storage.Path, "/tmp/bm.db")
	assert.Equal(t, cfg.Remote.BaseURL, "https://bm.example.com")
	assert.Equal(t, cfg.Remote.Timeout, 3*time.Second)
	assert.Equal(t, cfg.Log.Level, "warn")
	assert.Equal(t, cfg.Cull.Concurrency, 10)
	assert.DeepEqual(t, cfg.Server.Accounts, []config.Account{{Name: "alice", Token: "AbC123"}})
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("BM_STORAGE_BACKEND", "redis")
	t.Setenv("BM_LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	assert.NilError(t, err)

	assert.Equal(t, cfg.Storage.Backend, config.BackendRedis)
	assert.Equal(t, cfg.Log.Level, "debug")
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := config.DefaultConfig(dir)
	cfg.Cull.Concurrency = 3
	assert.NilError(t, config.Save(path, &cfg))

	loaded, err := config.Load(path)
	assert.NilError(t, err)
	assert.Equal(t, loaded.Cull.Concurrency, 3)
	assert.Equal(t, loaded.Cull.Timeout, 10*time.Second)
}
