package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the authkeeper CLI.
//
// Fields:
//   - ServerURL: base URL of the authkeeper HTTP API.
//   - RequestTimeout: per-request HTTP timeout.
//   - SessionPath: location of the local session database.
type Config struct {
	ServerURL      string        `env:"AUTHKEEPER_SERVER_URL"`
	RequestTimeout time.Duration `env:"AUTHKEEPER_TIMEOUT"`
	SessionPath    string        `env:"AUTHKEEPER_SESSION"`
}

// userConfigDir is replaced in tests.
var userConfigDir = os.UserConfigDir

// LoadDefaults populates c with sensible defaults. The session lives in the
// user's config directory, falling back to the working directory.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8000"
	c.RequestTimeout = 10 * time.Second

	dir, err := userConfigDir()
	if err != nil {
		dir = "."
	}
	c.SessionPath = filepath.Join(dir, "authkeeper", "session.db")
}

// LoadConfig constructs a Config: defaults, then the JSON file at path (if
// non-empty), then environment variables. Command-line flags are applied by
// the CLI on top of the result.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, path); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
