package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all formcraft configuration.
type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	Server     ServerConfig     `yaml:"server"`
	Derivation DerivationConfig `yaml:"derivation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// StorageConfig selects where saved forms live.
type StorageConfig struct {
	Driver     string `yaml:"driver"`     // sqlite, bolt, memory
	Path       string `yaml:"path"`       // database file for sqlite and bolt
	Collection string `yaml:"collection"` // key the form collection is stored under
	CacheSize  int    `yaml:"cache_size"` // forms kept decoded for lookups by id
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	ReadTimeout string `yaml:"read_timeout"`
}

// DerivationConfig bounds fixed-point iteration for callers that ask for it.
type DerivationConfig struct {
	MaxPasses int `yaml:"max_passes"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver:     "sqlite",
			Path:       filepath.Join("data", "formcraft.db"),
			Collection: "forms",
			CacheSize:  128,
		},
		Server: ServerConfig{
			Addr:        "localhost:8080",
			ReadTimeout: "10s",
		},
		Derivation: DerivationConfig{
			MaxPasses: 8,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
// Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("FORMCRAFT_DB"); path != "" {
		c.Storage.Path = path
	}
	if driver := os.Getenv("FORMCRAFT_STORAGE"); driver != "" {
		c.Storage.Driver = strings.ToLower(driver)
	}
	if addr := os.Getenv("FORMCRAFT_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if level := os.Getenv("FORMCRAFT_LOG_LEVEL"); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
}

// GetReadTimeout returns the server read timeout as a duration.
func (c *Config) GetReadTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ReadTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// ValidDrivers lists the supported storage drivers.
var ValidDrivers = []string{"sqlite", "bolt", "memory"}

// ValidLevels lists the supported log levels.
var ValidLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !contains(ValidDrivers, c.Storage.Driver) {
		return fmt.Errorf("invalid storage driver: %s (valid: %v)", c.Storage.Driver, ValidDrivers)
	}
	if c.Storage.Driver != "memory" && c.Storage.Path == "" {
		return fmt.Errorf("storage path is required for driver %s", c.Storage.Driver)
	}
	if c.Storage.CacheSize < 0 {
		return fmt.Errorf("storage cache_size must not be negative: %d", c.Storage.CacheSize)
	}
	if c.Server.ReadTimeout != "" {
		if _, err := time.ParseDuration(c.Server.ReadTimeout); err != nil {
			return fmt.Errorf("invalid server read_timeout %q: %w", c.Server.ReadTimeout, err)
		}
	}
	if c.Derivation.MaxPasses < 1 {
		return fmt.Errorf("derivation max_passes must be at least 1: %d", c.Derivation.MaxPasses)
	}
	if !contains(ValidLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLevels)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("invalid log format: %s (valid: [json console])", c.Logging.Format)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
