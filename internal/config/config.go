package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port      string
	Env       string
	JWTSecret string
	JWTIssuer string

	API     APIConfig
	Redis   RedisConfig
	Session SessionConfig
	List    ListConfig

	AllowedOrigins []string
}

// APIConfig describes the remote catalog REST API.
type APIConfig struct {
	BaseURL string
	// Timeout of 0 means no client-side timeout.
	Timeout time.Duration
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// SessionConfig controls console session lifetime and list-controller eviction.
type SessionConfig struct {
	TTL           time.Duration
	IdleAfter     time.Duration
	SweepInterval time.Duration
}

// ListConfig holds pagination bounds for list views.
type ListConfig struct {
	DefaultLimit int
	MaxLimit     int
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; production relies on real environment variables.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.JWTIssuer = getEnv("JWT_ISSUER", "")
	cfg.AllowedOrigins = splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"))

	// Catalog API
	cfg.API.BaseURL = strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:3000/api"), "/")

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Pagination
	cfg.List = ListConfig{
		DefaultLimit: getEnvInt("DEFAULT_PAGE_LIMIT", 10),
		MaxLimit:     getEnvInt("MAX_PAGE_LIMIT", 100),
	}

	// Durations
	var err error
	if cfg.API.Timeout, err = parseDurationEnv("API_TIMEOUT", "0s"); err != nil {
		return nil, fmt.Errorf("invalid API_TIMEOUT: %w", err)
	}
	if cfg.Session.TTL, err = parseDurationEnv("SESSION_TTL", "12h"); err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	if cfg.Session.IdleAfter, err = parseDurationEnv("SESSION_IDLE_AFTER", "30m"); err != nil {
		return nil, fmt.Errorf("invalid SESSION_IDLE_AFTER: %w", err)
	}
	if cfg.Session.SweepInterval, err = parseDurationEnv("SESSION_SWEEP_INTERVAL", "5m"); err != nil {
		return nil, fmt.Errorf("invalid SESSION_SWEEP_INTERVAL: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute URL, got %q", c.API.BaseURL)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set for authentication")
	}
	if c.List.DefaultLimit <= 0 || c.List.MaxLimit < c.List.DefaultLimit {
		return fmt.Errorf("invalid page limits: default=%d max=%d", c.List.DefaultLimit, c.List.MaxLimit)
	}
	if c.Session.SweepInterval == 0 {
		return errors.New("SESSION_SWEEP_INTERVAL must be greater than 0")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
