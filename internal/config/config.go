package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Cart store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config holds all configuration for the application
// Following 12-factor app principles, all config is loaded from environment variables
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Coupon    CouponConfig
	CORS      CORSConfig
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	Metrics   bool   `envconfig:"METRICS_ENABLED" default:"true"`
}

type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"60s"`
}

// StoreConfig selects and configures the cart repository backend.
type StoreConfig struct {
	Kind        string        `envconfig:"CART_STORE" default:"memory"`
	DatabaseURL string        `envconfig:"DATABASE_URL"`
	MaxConns    int32         `envconfig:"DB_MAX_CONNS" default:"10"`
	AutoMigrate bool          `envconfig:"DB_AUTO_MIGRATE" default:"true"`
	RedisURL    string        `envconfig:"REDIS_URL"`
	CartTTL     time.Duration `envconfig:"CART_TTL" default:"72h"`
}

// CouponConfig points at optional gzip coupon lists. With no URLs every
// known coupon is considered valid.
type CouponConfig struct {
	FileURLs   []string `envconfig:"COUPON_FILE_URLS"`
	MinMatches int      `envconfig:"COUPON_MIN_MATCHES" default:"2"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// Load reads configuration from environment variables, after loading a .env
// file from the working directory when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.LogFormat)
	}

	switch c.Store.Kind {
	case StoreMemory:
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when CART_STORE=%s", StorePostgres)
		}
	case StoreRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when CART_STORE=%s", StoreRedis)
		}
	default:
		return fmt.Errorf("invalid cart store: %s (must be memory, postgres, or redis)", c.Store.Kind)
	}

	if c.Store.CartTTL < 0 {
		return fmt.Errorf("CART_TTL must not be negative")
	}

	if len(c.Coupon.FileURLs) > 0 && (c.Coupon.MinMatches < 1 || c.Coupon.MinMatches > len(c.Coupon.FileURLs)) {
		return fmt.Errorf("COUPON_MIN_MATCHES must be between 1 and %d", len(c.Coupon.FileURLs))
	}

	return nil
}

// Addr is the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
