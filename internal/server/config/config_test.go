package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8000", c.EndpointAddrHTTP)
	assert.Empty(t, c.DatabaseDSN)
	assert.Equal(t, "secretKey", c.SecretKey)
	assert.Equal(t, 60*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 7*24*time.Hour, c.RefreshTokenValidityDuration)
	assert.Equal(t, EnvDevelopment, c.Environment)
	assert.Empty(t, c.RedisURL)
	assert.Equal(t, 60*time.Second, c.CacheTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, c.AllowedOrigins)
	assert.Equal(t, 10, c.BcryptCost)
	assert.Equal(t, 10.0, c.RateLimitRPS)
	assert.Equal(t, 20, c.RateLimitBurst)
	assert.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"empty secret", func(c *Config) { c.SecretKey = "" }, "secret key must not be empty"},
		{"default secret in production", func(c *Config) { c.Environment = EnvProduction }, "default secret key"},
		{"zero access ttl", func(c *Config) { c.AccessTokenValidityDuration = 0 }, "access token validity"},
		{"negative refresh ttl", func(c *Config) { c.RefreshTokenValidityDuration = -time.Minute }, "refresh token validity"},
		{"bcrypt cost too low", func(c *Config) { c.BcryptCost = 3 }, "bcrypt cost"},
		{"bcrypt cost too high", func(c *Config) { c.BcryptCost = 32 }, "bcrypt cost"},
		{"unknown environment", func(c *Config) { c.Environment = "staging" }, "unknown environment"},
		{"zero burst", func(c *Config) { c.RateLimitBurst = 0 }, "rate limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	var c Config
	c.LoadDefaults()
	c.Environment = EnvProduction
	c.SecretKey = "a-real-secret"
	assert.NoError(t, c.Validate())
	assert.True(t, c.IsProduction())
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	c, err := LoadConfig()
	require.NoError(t, err)
	require.NotNil(t, c, "LoadConfig must not return nil")

	var want Config
	want.LoadDefaults()
	assert.Equal(t, want, *c)
}

func TestLoadConfig_Precedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, "", "", map[string]any{
		"endpoint_addr_http": ":7000",
		"secret_key":         "from-json",
		"database_dsn":       "postgres://json",
	})
	t.Setenv("SECRET_KEY", "from-env")
	t.Setenv("DATABASE_URL", "postgres://env")
	os.Args = []string{"testbin", "-c", path, "-d", "postgres://flag"}

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":7000", c.EndpointAddrHTTP, "json over defaults")
	assert.Equal(t, "from-env", c.SecretKey, "env over json")
	assert.Equal(t, "postgres://flag", c.DatabaseDSN, "flags over env")
}

func TestLoadConfig_InvalidIsRejected(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin", "-e", "production"}

	_, err := LoadConfig()
	assert.Error(t, err)
}
