package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GATEWAY_ACCESS_JWT_SECRET", "test-secret")
}

func TestLoad_Defaults(t *testing.T) {
	validEnv(t)

	cfg, err := Load(nil, "")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "fixed_window", cfg.RateLimit.Algorithm)
	assert.Equal(t, 60, cfg.RateLimit.MaxRequests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "deny", cfg.RateLimit.MissingKey)
	assert.False(t, cfg.RateLimit.FailClosed)
	assert.Equal(t, 20, cfg.RateLimit.Burst)
	assert.Equal(t, "jwt", cfg.Access.AuthMode)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.False(t, cfg.NeedsRedis())
}

func TestLoad_EnvOverrides(t *testing.T) {
	validEnv(t)
	t.Setenv("GATEWAY_RATELIMIT_MAX_REQUESTS", "5")
	t.Setenv("GATEWAY_RATELIMIT_WINDOW", "30s")
	t.Setenv("GATEWAY_RATELIMIT_MISSING_KEY", "SHARED")

	cfg, err := Load(nil, "")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.RateLimit.MaxRequests)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, "shared", cfg.RateLimit.MissingKey)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.yaml")
	yaml := `
ratelimit:
  algorithm: token_bucket
  rps: 0.5
access:
  auth_mode: header
redis:
  addr: localhost:6379
stats:
  backend: redis
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(nil, path)
	require.NoError(t, err)

	assert.Equal(t, "token_bucket", cfg.RateLimit.Algorithm)
	assert.InDelta(t, 0.5, cfg.RateLimit.RPS, 0.0001)
	// rps < 1 sem burst explícito
	assert.Equal(t, 1, cfg.RateLimit.Burst)
	assert.Equal(t, "header", cfg.Access.AuthMode)
	assert.True(t, cfg.NeedsRedis())
	// stats em Redis não tem fallback
	assert.False(t, cfg.RedisOptional())
}

func TestConfig_RedisOptionalOnlyForRateLimit(t *testing.T) {
	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.False(t, cfg.RedisOptional())

	cfg.RateLimit.Backend = "redis"
	assert.True(t, cfg.RedisOptional())

	cfg.RateLimit.RedisFallback = false
	assert.False(t, cfg.RedisOptional())

	cfg.RateLimit.RedisFallback = true
	cfg.Push.Enabled = true
	cfg.Push.Store = "redis"
	assert.False(t, cfg.RedisOptional())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(nil, filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"jwt without secret", func(c *Config) { c.Access.JWTSecret = "" }, "access.jwt_secret"},
		{"zero max requests", func(c *Config) { c.RateLimit.MaxRequests = 0 }, "ratelimit.max_requests"},
		{"redis backend without addr", func(c *Config) { c.RateLimit.Backend = "redis" }, "redis.addr"},
		{"bad missing key policy", func(c *Config) { c.RateLimit.MissingKey = "maybe" }, "ratelimit.missing_key"},
		{"unknown algorithm", func(c *Config) { c.RateLimit.Algorithm = "sliding" }, "ratelimit.algorithm"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "postgres" }, "store.driver"},
		{"unknown auth mode", func(c *Config) { c.Access.AuthMode = "oauth" }, "access.auth_mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validEnv(t)
			cfg, err := Load(nil, "")
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
