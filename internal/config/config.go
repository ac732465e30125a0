package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the data directory.
const FileName = "skarbnik.yaml"

// Config represents the top-level skarbnik.yaml configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Log      LogConfig      `yaml:"log"`
	Imports  ImportsConfig  `yaml:"imports"`
}

// StoreConfig selects and locates the persistence backend.
type StoreConfig struct {
	// Driver is "sqlite" or "memory".
	Driver string `yaml:"driver"`
	// Path is the sqlite database file, relative to the data dir.
	Path string `yaml:"path"`
}

// DefaultsConfig holds fallbacks applied when input carries no value.
type DefaultsConfig struct {
	UserID   string `yaml:"user_id"`
	Currency string `yaml:"currency"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string `yaml:"level"`
}

// ImportsConfig controls statement-import behavior.
type ImportsConfig struct {
	// AuditLog toggles the append-only CSV log of import runs.
	AuditLog bool `yaml:"audit_log"`
}

// Load reads a skarbnik.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads the config from a data dir, falling back to
// defaults when no file exists.
func LoadOrDefault(dataDir string) (*Config, error) {
	path := filepath.Join(dataDir, FileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new data dir.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   "skarbnik.db",
		},
		Defaults: DefaultsConfig{
			UserID:   "default",
			Currency: "PLN",
		},
		Log: LogConfig{
			Level: "info",
		},
		Imports: ImportsConfig{
			AuditLog: true,
		},
	}
}
