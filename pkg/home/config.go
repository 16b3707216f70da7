package home

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Engine   EngineConfig   `yaml:"engine"`
	Scanner  ScannerConfig  `yaml:"scanner"`
	Logging  LoggingConfig  `yaml:"logging"`
	Server   ServerConfig   `yaml:"server"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// EngineConfig contains classification engine settings
type EngineConfig struct {
	MaxChainDepth int `yaml:"maxChainDepth"`
	MaxConcurrent int `yaml:"maxConcurrent"`
}

// ScannerConfig contains directory scan and watch settings
type ScannerConfig struct {
	Workers    int `yaml:"workers"`
	DebounceMs int `yaml:"debounceMs"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ServerConfig contains server settings
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// LoadConfig loads configuration from config.yaml
func (m *Manager) LoadConfig() (*Config, error) {
	configPath := m.ConfigPath()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// SaveConfig saves configuration to config.yaml
func (m *Manager) SaveConfig(config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := m.ConfigPath()
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: DatabaseFile,
		},
		Engine: EngineConfig{
			MaxChainDepth: 10,
			MaxConcurrent: 4,
		},
		Scanner: ScannerConfig{
			Workers:    8,
			DebounceMs: 200,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Port: 3000,
			Host: "localhost",
		},
	}
}
