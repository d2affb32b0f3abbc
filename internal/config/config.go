// Package config loads the server configuration from a YAML file with
// environment variable overrides for deployment secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Config holds the application configuration.
type Config struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string `yaml:"listenAddr"`

	// DBPath is the SQLite database file path.
	DBPath string `yaml:"dbPath"`

	// GroupName and Currency seed the group on first start.
	GroupName string `yaml:"groupName"`
	Currency  string `yaml:"currency"`

	// JWTSecret signs session tokens. Required.
	JWTSecret string `yaml:"jwtSecret"`

	// TokenTTL is how long session tokens stay valid.
	TokenTTL time.Duration `yaml:"tokenTtl"`

	// AccessCodeHash is the bcrypt hash of the group's shared access code.
	// Empty means the deployment is open.
	AccessCodeHash string `yaml:"accessCodeHash"`

	// LogLevel: debug, info, warn, error.
	LogLevel string `yaml:"logLevel"`
}

// Default returns the configuration defaults applied before file and
// environment overrides.
func Default() *Config {
	return &Config{
		ListenAddr: ":8080",
		DBPath:     "data/splitter.db",
		GroupName:  "Shared Expenses",
		Currency:   "USD",
		TokenTTL:   30 * 24 * time.Hour,
		LogLevel:   "info",
	}
}

// Load reads the configuration file at path, falling back to defaults when
// the file is absent, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	case os.IsNotExist(err):
		// No file: defaults plus environment.
	default:
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	applyEnv(cfg)

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwtSecret is required (set SPLITTER_JWT_SECRET or the config file)")
	}
	return cfg, nil
}

// applyEnv overrides file values with SPLITTER_* environment variables so
// secrets can stay out of the config file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("SPLITTER_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("SPLITTER_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("SPLITTER_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("SPLITTER_ACCESS_CODE_HASH"); v != "" {
		cfg.AccessCodeHash = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}
