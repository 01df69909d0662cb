// Package config handles configuration for the server component: defaults,
// an optional JSON file, environment variables and command-line flags, in
// that order of precedence (later wins).
package config

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// DefaultSecretKey is only acceptable outside production.
	DefaultSecretKey = "secretKey"
)

// Config holds runtime settings for the authkeeper server. It is built once
// in main and passed by pointer; nothing mutates it afterwards.
//
// Fields:
//   - EndpointAddrHTTP: bind address of the HTTP API.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory store.
//   - SecretKey: HMAC secret for signing JWTs (HS256).
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - Environment: "development" or "production"; production turns on Secure cookies.
//   - RedisURL / CacheTTL: optional user cache.
//   - AllowedOrigins: CORS origins allowed to send credentials.
//   - BcryptCost: password hashing work factor.
//   - RateLimitRPS / RateLimitBurst: per-client token bucket.
type Config struct {
	EndpointAddrHTTP             string        `env:"AUTH_HTTP_ADDR"`
	DatabaseDSN                  string        `env:"DATABASE_URL"`
	SecretKey                    string        `env:"SECRET_KEY"`
	AccessTokenValidityDuration  time.Duration `env:"ACCESS_TOKEN_TTL"`
	RefreshTokenValidityDuration time.Duration `env:"REFRESH_TOKEN_TTL"`
	Environment                  string        `env:"ENVIRONMENT"`
	RedisURL                     string        `env:"REDIS_URL"`
	CacheTTL                     time.Duration `env:"CACHE_TTL"`
	AllowedOrigins               []string      `env:"ALLOWED_ORIGINS" envSeparator:","`
	BcryptCost                   int           `env:"BCRYPT_COST"`
	RateLimitRPS                 float64       `env:"RATE_LIMIT_RPS"`
	RateLimitBurst               int           `env:"RATE_LIMIT_BURST"`
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secret key is insecure and is rejected in production.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8000"
	c.DatabaseDSN = ""
	c.SecretKey = DefaultSecretKey
	c.AccessTokenValidityDuration = 60 * time.Minute
	c.RefreshTokenValidityDuration = 7 * 24 * time.Hour
	c.Environment = EnvDevelopment
	c.RedisURL = ""
	c.CacheTTL = 60 * time.Second
	c.AllowedOrigins = []string{"http://localhost:3000"}
	c.BcryptCost = bcrypt.DefaultCost
	c.RateLimitRPS = 10
	c.RateLimitBurst = 20
}

// IsProduction reports whether the service runs in the production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key must not be empty"))
	}
	if c.IsProduction() && c.SecretKey == DefaultSecretKey {
		errs = append(errs, errors.New("the default secret key must not be used in production"))
	}
	if c.AccessTokenValidityDuration <= 0 {
		errs = append(errs, fmt.Errorf("access token validity must be positive, got %s", c.AccessTokenValidityDuration))
	}
	if c.RefreshTokenValidityDuration <= 0 {
		errs = append(errs, fmt.Errorf("refresh token validity must be positive, got %s", c.RefreshTokenValidityDuration))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be within %d..%d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost))
	}
	if c.Environment != EnvDevelopment && c.Environment != EnvProduction {
		errs = append(errs, fmt.Errorf("unknown environment %q", c.Environment))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("rate limit rps and burst must be positive"))
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseEnv(cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := parseFlags(cfg); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
