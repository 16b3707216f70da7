package home

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DatabaseFile, cfg.Database.Path)
	assert.Equal(t, 10, cfg.Engine.MaxChainDepth)
	assert.Equal(t, 4, cfg.Engine.MaxConcurrent)
	assert.Equal(t, 8, cfg.Scanner.Workers)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestSaveAndLoadConfig(t *testing.T) {
	mgr, err := NewManager(t.TempDir())
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Engine.MaxChainDepth = 25
	cfg.Logging.Level = "debug"

	require.NoError(t, mgr.SaveConfig(cfg))

	loaded, err := mgr.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 25, loaded.Engine.MaxChainDepth)
	assert.Equal(t, "debug", loaded.Logging.Level)
	assert.Equal(t, cfg.Server, loaded.Server)
}

func TestLoadConfig_Missing(t *testing.T) {
	mgr, err := NewManager(t.TempDir())
	require.NoError(t, err)

	_, err = mgr.LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_GeneratedDefault(t *testing.T) {
	mgr, err := NewManager(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, mgr.Initialize())

	cfg, err := mgr.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "rules.db", cfg.Database.Path)
	assert.Equal(t, 10, cfg.Engine.MaxChainDepth)
	assert.Equal(t, 200, cfg.Scanner.DebounceMs)
	assert.Equal(t, "localhost", cfg.Server.Host)
}

func TestLoadConfig_Malformed(t *testing.T) {
	mgr, err := NewManager(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(mgr.ConfigPath(), []byte("{not yaml:::"), 0644))

	_, err = mgr.LoadConfig()
	assert.Error(t, err)
}
