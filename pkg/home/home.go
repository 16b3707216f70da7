package home

import (
	"fmt"
	"os"
	"path/filepath"
)

// Manager handles the application home directory
type Manager struct {
	path string
}

// Subdirectories within home
const (
	LogsDir = "logs"
	TempDir = "temp"
)

// Files within home
const (
	ConfigFile   = "config.yaml"
	DatabaseFile = "rules.db"
)

// NewManager creates a new home directory manager
func NewManager(path string) (*Manager, error) {
	if path == "" {
		path = DefaultHomePath()
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid home path: %w", err)
	}

	return &Manager{path: absPath}, nil
}

// DefaultHomePath returns the default home directory path
func DefaultHomePath() string {
	if path := os.Getenv("MCP_FILE_RULES_HOME"); path != "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".mcp-file-rules"
	}
	return filepath.Join(home, ".mcp-file-rules")
}

// Path returns the home directory path
func (m *Manager) Path() string {
	return m.path
}

// Initialize creates the home directory structure and a default
// config.yaml when one is not already present.
func (m *Manager) Initialize() error {
	dirs := []string{
		"", // Home directory itself
		LogsDir,
		TempDir,
	}

	for _, dir := range dirs {
		path := m.JoinPath(dir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", path, err)
		}
	}

	if err := m.initializeConfig(); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	return nil
}

// Exists checks if the home directory exists
func (m *Manager) Exists() bool {
	info, err := os.Stat(m.path)
	return err == nil && info.IsDir()
}

// JoinPath joins path elements relative to home directory
func (m *Manager) JoinPath(elem ...string) string {
	parts := append([]string{m.path}, elem...)
	return filepath.Join(parts...)
}

// ConfigPath returns the path to config.yaml
func (m *Manager) ConfigPath() string {
	return m.JoinPath(ConfigFile)
}

// DatabasePath returns the path to rules.db
func (m *Manager) DatabasePath() string {
	return m.JoinPath(DatabaseFile)
}

// LogsPath returns the path to the logs directory
func (m *Manager) LogsPath() string {
	return m.JoinPath(LogsDir)
}

// TempPath returns the path to the temp directory
func (m *Manager) TempPath() string {
	return m.JoinPath(TempDir)
}

// CleanTemp removes all files in temp directory
func (m *Manager) CleanTemp() error {
	tempPath := m.TempPath()

	if err := os.RemoveAll(tempPath); err != nil {
		return err
	}
	return os.MkdirAll(tempPath, 0755)
}

// initializeConfig creates a default config.yaml if it doesn't exist
func (m *Manager) initializeConfig() error {
	configPath := m.ConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return nil // Config exists, don't overwrite
	}

	defaultConfig := `# mcp-file-rules configuration

# Database settings
database:
  path: rules.db  # Relative to home directory

# Classification engine settings
engine:
  maxChainDepth: 10      # Default chain depth bound for new rules
  maxConcurrent: 4       # Worker pool size for batch classification

# Scanner settings
scanner:
  workers: 8             # Parallel stat workers during directory scans
  debounceMs: 200        # Watch mode settle time after the last event

# Logging settings
logging:
  level: info            # trace, debug, info, warn, error

# Server settings
server:
  port: 3000
  host: localhost
`

	return os.WriteFile(configPath, []byte(defaultConfig), 0644)
}
