package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, StoreMemory, cfg.Store.Kind)
	assert.Equal(t, 72*time.Hour, cfg.Store.CartTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Empty(t, cfg.Coupon.FileURLs)
	assert.True(t, cfg.Metrics)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CART_STORE", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("CART_TTL", "1h")
	t.Setenv("COUPON_FILE_URLS", "http://a/1.gz,http://a/2.gz")
	t.Setenv("COUPON_MIN_MATCHES", "1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, StoreRedis, cfg.Store.Kind)
	assert.Equal(t, time.Hour, cfg.Store.CartTTL)
	assert.Equal(t, []string{"http://a/1.gz", "http://a/2.gz"}, cfg.Coupon.FileURLs)
	assert.Equal(t, 1, cfg.Coupon.MinMatches)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: "8080"},
			Store:     StoreConfig{Kind: StoreMemory},
			Coupon:    CouponConfig{MinMatches: 2},
			LogLevel:  "info",
			LogFormat: "json",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing port", mutate: func(c *Config) { c.Server.Port = "" }, wantErr: "PORT is required"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: "invalid log level"},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: "invalid log format"},
		{name: "unknown store", mutate: func(c *Config) { c.Store.Kind = "mongo" }, wantErr: "invalid cart store"},
		{name: "postgres without url", mutate: func(c *Config) { c.Store.Kind = StorePostgres }, wantErr: "DATABASE_URL is required"},
		{name: "redis without url", mutate: func(c *Config) { c.Store.Kind = StoreRedis }, wantErr: "REDIS_URL is required"},
		{name: "negative ttl", mutate: func(c *Config) { c.Store.CartTTL = -time.Second }, wantErr: "CART_TTL"},
		{
			name: "min matches above file count",
			mutate: func(c *Config) {
				c.Coupon.FileURLs = []string{"a"}
				c.Coupon.MinMatches = 2
			},
			wantErr: "COUPON_MIN_MATCHES",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), "error %q does not contain %q", err, tt.wantErr)
		})
	}
}
