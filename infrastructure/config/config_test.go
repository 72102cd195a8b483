package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domaincfg "canvas-engine/domain/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, BackendSQLite, cfg.StorageBackend)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "redis")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":9090")
	t.Setenv("STORAGE_BACKEND", BackendMemory)
	t.Setenv("ENABLE_METRICS", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ServerAddress)
	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.False(t, cfg.EnableMetrics)
}

func TestLoadDomainConfig_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadDomainConfig("")
	require.NoError(t, err)
	assert.Equal(t, 0.25, cfg.MinZoom)
	assert.Equal(t, 4.0, cfg.MaxZoom)
	assert.Equal(t, 100*time.Millisecond, cfg.DebounceDelay)
}

func TestLoadDomainConfig_PartialOverride(t *testing.T) {
	path := writeTunables(t, `
viewport:
  max_zoom: 8.0
persistence:
  debounce_delay_ms: 250
`)

	cfg, err := LoadDomainConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8.0, cfg.MaxZoom)
	assert.Equal(t, 250*time.Millisecond, cfg.DebounceDelay)

	// untouched fields keep their defaults
	assert.Equal(t, 0.25, cfg.MinZoom)
	assert.Equal(t, 40.0, cfg.GridBaseSpacing)
}

func TestLoadDomainConfig_RejectsInvalidRanges(t *testing.T) {
	path := writeTunables(t, `
viewport:
  min_zoom: 5.0
  max_zoom: 1.0
`)
	_, err := LoadDomainConfig(path)
	assert.Error(t, err)
}

func TestTunablesWatcher_Reloads(t *testing.T) {
	path := writeTunables(t, "viewport:\n  max_zoom: 4.0\n")

	w, err := NewTunablesWatcher(path, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	changed := make(chan float64, 1)
	w.OnChange(func(cfg *domaincfg.DomainConfig) {
		changed <- cfg.MaxZoom
	})
	w.Start()

	require.NoError(t, os.WriteFile(path, []byte("viewport:\n  max_zoom: 6.0\n"), 0644))

	select {
	case maxZoom := <-changed:
		assert.Equal(t, 6.0, maxZoom)
		assert.Equal(t, 6.0, w.Current().MaxZoom)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher never reloaded")
	}
}

func TestTunablesWatcher_KeepsCurrentOnBadFile(t *testing.T) {
	path := writeTunables(t, "viewport:\n  max_zoom: 4.0\n")

	w, err := NewTunablesWatcher(path, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()
	w.Start()

	require.NoError(t, os.WriteFile(path, []byte("viewport:\n  min_zoom: 9.0\n  max_zoom: 1.0\n"), 0644))

	// wait past the reload debounce, then confirm nothing changed
	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, 4.0, w.Current().MaxZoom)
}

func writeTunables(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tunables.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
