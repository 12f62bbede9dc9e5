package injector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/offline/internal/config"
	"github.com/zeusync/offline/internal/core/storage"
	"github.com/zeusync/offline/internal/offline"
	"github.com/zeusync/offline/internal/world/catalog"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lobby.yaml"), []byte("id: lobby\ndimensions:\n  - name: lobby\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, catalog.IndexFile), []byte("resources:\n  lobby: lobby.yaml\n"), 0o644))

	cfg := config.Default()
	cfg.Log.Level = "silent"
	cfg.Catalog.Dir = dir
	cfg.Session = offline.Options{WorldType: offline.WorldResource, Resource: "lobby"}
	return cfg
}

func TestInitializeApp(t *testing.T) {
	app, err := InitializeApp(t.Context(), testConfig(t))
	require.NoError(t, err)

	assert.NotNil(t, app.Log)
	assert.NotNil(t, app.Events)
	assert.NotNil(t, app.Directory)
	assert.NotNil(t, app.Worlds)
	assert.NotNil(t, app.Binding)
	assert.NotNil(t, app.Users)
	require.NotNil(t, app.Offline)

	require.NoError(t, app.Offline.Init(t.Context()))
	assert.Equal(t, []string{offline.Mode}, app.Directory.Modes())
	require.NoError(t, app.Offline.Dispose())
}

func TestInitializeAppFailsWithoutCatalog(t *testing.T) {
	cfg := testConfig(t)
	cfg.Catalog.Dir = filepath.Join(t.TempDir(), "missing")
	_, err := InitializeApp(t.Context(), cfg)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestProvideStorage(t *testing.T) {
	cfg := testConfig(t)
	mem, err := ProvideStorage(cfg)
	require.NoError(t, err)
	assert.IsType(t, &storage.Memory{}, mem)

	cfg.Catalog.CacheDir = filepath.Join(t.TempDir(), "cache")
	dir, err := ProvideStorage(cfg)
	require.NoError(t, err)
	assert.IsType(t, &storage.Dir{}, dir)
	_, err = os.Stat(cfg.Catalog.CacheDir)
	assert.NoError(t, err)
}
