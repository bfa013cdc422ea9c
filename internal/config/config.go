// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type ServerConfig struct {
	Port            string
	Mode            string // gin mode: debug, release or test
	ShutdownTimeout time.Duration
	AutoMigrate     bool
}

type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type UploadConfig struct {
	Dir          string
	PublicPrefix string
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

type RateLimitConfig struct {
	RPS   float64 // 0 disables the limiter
	Burst int
}

type CacheConfig struct {
	Size int
	TTL  time.Duration
}

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Uploads      UploadConfig
	Log          LogConfig
	RateLimit    RateLimitConfig
	ProfileCache CacheConfig
}

const defaultPostgresDSN = "host=localhost user=postgres password=postgres dbname=redsocial port=5432 sslmode=disable"

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	var errs []error
	p := envParser{errs: &errs}

	driver := strings.ToLower(getEnv("DB_DRIVER", "postgres"))
	dsn := getEnv("DATABASE_URL", "")
	if dsn == "" {
		if driver == "sqlite" {
			dsn = "file:redsocial.db?_foreign_keys=on"
		} else {
			dsn = defaultPostgresDSN
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "3000"),
			Mode:            getEnv("GIN_MODE", "release"),
			ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
			AutoMigrate:     p.bool("AUTO_MIGRATE", true),
		},
		Database: DatabaseConfig{
			Driver:          driver,
			DSN:             dsn,
			MaxOpenConns:    p.int("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    p.int("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: p.duration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Uploads: UploadConfig{
			Dir:          getEnv("UPLOAD_DIR", "uploads"),
			PublicPrefix: getEnv("PUBLIC_UPLOAD_PREFIX", "/uploads"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},
		RateLimit: RateLimitConfig{
			RPS:   p.float("RATE_LIMIT_RPS", 20),
			Burst: p.int("RATE_LIMIT_BURST", 40),
		},
		ProfileCache: CacheConfig{
			Size: p.int("PROFILE_CACHE_SIZE", 500),
			TTL:  p.duration("PROFILE_CACHE_TTL", 5*time.Minute),
		},
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("GIN_MODE %q is not one of debug, release, test", c.Server.Mode))
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not one of postgres, sqlite", c.Database.Driver))
	}
	if c.Database.MaxOpenConns < 1 {
		errs = append(errs, errors.New("DB_MAX_OPEN_CONNS must be at least 1"))
	}
	if c.Uploads.Dir == "" {
		errs = append(errs, errors.New("UPLOAD_DIR must not be empty"))
	}
	if !strings.HasPrefix(c.Uploads.PublicPrefix, "/") {
		errs = append(errs, fmt.Errorf("PUBLIC_UPLOAD_PREFIX %q must start with /", c.Uploads.PublicPrefix))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q is not one of json, text", c.Log.Format))
	}
	if c.RateLimit.RPS < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS must not be negative"))
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1 {
		errs = append(errs, errors.New("RATE_LIMIT_BURST must be at least 1 when rate limiting is enabled"))
	}
	if c.ProfileCache.Size < 1 {
		errs = append(errs, errors.New("PROFILE_CACHE_SIZE must be at least 1"))
	}
	if c.ProfileCache.TTL <= 0 {
		errs = append(errs, errors.New("PROFILE_CACHE_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

// envParser collects parse errors so every bad variable is reported at once.
type envParser struct {
	errs *[]error
}

func (p envParser) int(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func (p envParser) float(key string, fallback float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func (p envParser) bool(key string, fallback bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func (p envParser) duration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}
