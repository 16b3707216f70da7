package home

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager(t *testing.T) {
	t.Run("creates manager with custom path", func(t *testing.T) {
		mgr, err := NewManager("/tmp/test-home")
		require.NoError(t, err)
		assert.Contains(t, mgr.Path(), "test-home")
	})

	t.Run("creates manager with default path when empty", func(t *testing.T) {
		mgr, err := NewManager("")
		require.NoError(t, err)
		assert.NotEmpty(t, mgr.Path())
	})
}

func TestDefaultHomePath(t *testing.T) {
	origHome := os.Getenv("MCP_FILE_RULES_HOME")
	defer os.Setenv("MCP_FILE_RULES_HOME", origHome)

	t.Run("respects MCP_FILE_RULES_HOME env var", func(t *testing.T) {
		os.Setenv("MCP_FILE_RULES_HOME", "/custom/rules/home")

		path := DefaultHomePath()
		assert.Equal(t, "/custom/rules/home", path)
	})

	t.Run("falls back to default when no env var set", func(t *testing.T) {
		os.Setenv("MCP_FILE_RULES_HOME", "")

		path := DefaultHomePath()
		assert.Contains(t, path, ".mcp-file-rules")
	})
}

func TestManagerInitialize(t *testing.T) {
	tmpDir := t.TempDir()

	mgr, err := NewManager(tmpDir)
	require.NoError(t, err)

	err = mgr.Initialize()
	require.NoError(t, err)

	for _, dir := range []string{LogsDir, TempDir} {
		path := mgr.JoinPath(dir)
		info, err := os.Stat(path)
		assert.NoError(t, err, "directory should exist: %s", dir)
		assert.True(t, info.IsDir(), "should be a directory: %s", dir)
	}

	_, err = os.Stat(mgr.ConfigPath())
	assert.NoError(t, err, "config.yaml should exist")
}

func TestManagerInitialize_PreservesExistingConfig(t *testing.T) {
	tmpDir := t.TempDir()

	mgr, err := NewManager(tmpDir)
	require.NoError(t, err)

	custom := []byte("logging:\n  level: debug\n")
	require.NoError(t, os.WriteFile(mgr.ConfigPath(), custom, 0644))

	require.NoError(t, mgr.Initialize())

	data, err := os.ReadFile(mgr.ConfigPath())
	require.NoError(t, err)
	assert.Equal(t, custom, data, "existing config is never overwritten")
}

func TestManagerExists(t *testing.T) {
	t.Run("returns true for existing directory", func(t *testing.T) {
		tmpDir := t.TempDir()
		mgr, err := NewManager(tmpDir)
		require.NoError(t, err)

		assert.True(t, mgr.Exists())
	})

	t.Run("returns false for non-existing directory", func(t *testing.T) {
		mgr, err := NewManager("/tmp/does-not-exist-12345")
		require.NoError(t, err)

		assert.False(t, mgr.Exists())
	})
}

func TestManagerPaths(t *testing.T) {
	tmpDir := t.TempDir()
	mgr, err := NewManager(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tmpDir, ConfigFile), mgr.ConfigPath())
	assert.Equal(t, filepath.Join(tmpDir, DatabaseFile), mgr.DatabasePath())
	assert.Equal(t, filepath.Join(tmpDir, LogsDir), mgr.LogsPath())
	assert.Equal(t, filepath.Join(tmpDir, TempDir), mgr.TempPath())
}

func TestCleanTemp(t *testing.T) {
	tmpDir := t.TempDir()
	mgr, err := NewManager(tmpDir)
	require.NoError(t, err)
	require.NoError(t, mgr.Initialize())

	stale := filepath.Join(mgr.TempPath(), "leftover.tmp")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0644))

	require.NoError(t, mgr.CleanTemp())

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))

	info, err := os.Stat(mgr.TempPath())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
