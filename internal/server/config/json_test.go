package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_http":              "www.example:9000",
		"database_dsn":                    "postgres://db",
		"secret_key":                      "my_secret_key",
		"access_token_validity_duration":  "1m",
		"refresh_token_validity_duration": 180000000000,
		"environment":                     "production",
		"redis_url":                       "redis://r:6379",
		"cache_ttl":                       "30s",
		"allowed_origins":                 []string{"https://app.example"},
		"bcrypt_cost":                     12,
		"rate_limit_rps":                  1.5,
		"rate_limit_burst":                3,
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		require.NoError(t, parseJson(cfg))

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrHTTP)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 1*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 3*time.Minute, cfg.RefreshTokenValidityDuration)
		assert.Equal(t, "production", cfg.Environment)
		assert.Equal(t, "redis://r:6379", cfg.RedisURL)
		assert.Equal(t, 30*time.Second, cfg.CacheTTL)
		assert.Equal(t, []string{"https://app.example"}, cfg.AllowedOrigins)
		assert.Equal(t, 12, cfg.BcryptCost)
		assert.Equal(t, 1.5, cfg.RateLimitRPS)
		assert.Equal(t, 3, cfg.RateLimitBurst)
	})

	t.Run("absent keys keep defaults", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{"secret_key": "only-this"})
		os.Args = []string{"testbin", "-c", partial}

		var cfg Config
		cfg.LoadDefaults()
		require.NoError(t, parseJson(&cfg))

		assert.Equal(t, "only-this", cfg.SecretKey)
		assert.Equal(t, ":8000", cfg.EndpointAddrHTTP)
		assert.Equal(t, 60*time.Minute, cfg.AccessTokenValidityDuration)
	})

	t.Run("no config flag means no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{EndpointAddrHTTP: "defaults:1234", SecretKey: "key"}
		require.NoError(t, parseJson(cfg))

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrHTTP)
		assert.Equal(t, "key", cfg.SecretKey)
	})

	t.Run("invalid JSON is an error", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}
		assert.Error(t, parseJson(&Config{}))
	})

	t.Run("missing file is an error", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(dir, "nope.json")}
		assert.Error(t, parseJson(&Config{}))
	})
}
