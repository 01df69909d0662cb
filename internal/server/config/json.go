package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
	"github.com/dmitrijs2005/authkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so "90s" and integer nanoseconds both work. Absent keys keep
// the value from defaults.
type JsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	Environment                  string         `json:"environment"`
	RedisURL                     string         `json:"redis_url"`
	CacheTTL                     timex.Duration `json:"cache_ttl"`
	AllowedOrigins               []string       `json:"allowed_origins"`
	BcryptCost                   int            `json:"bcrypt_cost"`
	RateLimitRPS                 float64        `json:"rate_limit_rps"`
	RateLimitBurst               int            `json:"rate_limit_burst"`
}

// parseJson loads the file named by -c/-config, if any, over config.
func parseJson(config *Config) error {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.Environment, c.Environment)
	setString(&config.RedisURL, c.RedisURL)
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.CacheTTL.Duration != 0 {
		config.CacheTTL = c.CacheTTL.Duration
	}
	if len(c.AllowedOrigins) > 0 {
		config.AllowedOrigins = c.AllowedOrigins
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.RateLimitRPS != 0 {
		config.RateLimitRPS = c.RateLimitRPS
	}
	if c.RateLimitBurst != 0 {
		config.RateLimitBurst = c.RateLimitBurst
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
