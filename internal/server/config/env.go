package config

import "github.com/caarlos0/env/v11"

// parseEnv overlays variables that are set; unset ones leave cfg untouched.
func parseEnv(cfg *Config) error {
	return env.Parse(cfg)
}
