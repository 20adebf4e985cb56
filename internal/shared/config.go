package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Storage  StorageConfig  `toml:"storage"`
	Database DatabaseConfig `toml:"database"`
	Catalog  CatalogConfig  `toml:"catalog"`
	MockAPI  MockAPIConfig  `toml:"mockapi"`
	Breach   BreachConfig   `toml:"breach"`
	Sync     SyncConfig     `toml:"sync"`
	Logging  LoggingConfig  `toml:"logging"`
	Identity IdentityConfig `toml:"identity"`
}

// StorageConfig selects the key-value substrate backing the store adapter.
type StorageConfig struct {
	Backend       string `toml:"backend"` // sqlite, dir or memory
	Dir           string `toml:"dir"`
	MaxValueBytes int    `toml:"max_value_bytes"` // 0 disables the quota
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// CatalogConfig contains TMDB API settings.
type CatalogConfig struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	ImageBaseURL   string  `toml:"image_base_url"`
	Language       string  `toml:"language"`
	RateLimit      float64 `toml:"rate_limit"` // requests per second
	TimeoutSeconds int     `toml:"timeout_seconds"`
	Retries        int     `toml:"retries"` // extra attempts on 5xx, 429 and transport errors
}

// MockAPIConfig contains settings for the custom movie REST API, both client and server side.
type MockAPIConfig struct {
	BaseURL string `toml:"base_url"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	DBPath  string `toml:"db_path"`
	DelayMS int    `toml:"delay_ms"`
}

// BreachConfig contains breached-password range API settings.
type BreachConfig struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
}

// SyncConfig controls cross-process change detection.
type SyncConfig struct {
	PollIntervalMS int `toml:"poll_interval_ms"`
}

// LoggingConfig controls log verbosity and destination.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// IdentityConfig controls the local identity collection.
type IdentityConfig struct {
	SeedDemo bool `toml:"seed_demo"`
}

// PollInterval returns the configured polling interval, defaulting to one second.
func (c SyncConfig) PollInterval() time.Duration {
	if c.PollIntervalMS <= 0 {
		return time.Second
	}
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// Timeout returns the catalog HTTP timeout, defaulting to ten seconds.
func (c CatalogConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Addr returns the listen address of the mock API server.
func (c MockAPIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "sqlite", "dir", "memory":
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}

	if c.Storage.Backend == "dir" && c.Storage.Dir == "" {
		return fmt.Errorf("%w: storage.dir is required for the dir backend", ErrInvalidConfig)
	}

	if c.Storage.Backend == "sqlite" && c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is required for the sqlite backend", ErrInvalidConfig)
	}

	if c.Storage.MaxValueBytes < 0 {
		return fmt.Errorf("%w: storage.max_value_bytes must not be negative", ErrInvalidConfig)
	}

	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values absent from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
