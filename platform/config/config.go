// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// SearchBackendConfig provides settings for the vehicle search backend client.
type SearchBackendConfig interface {
	GetSearchBackendURL() string
	GetSearchBackendTimeout() time.Duration
	GetSearchMaxConcurrent() int64
}

// SessionConfig provides settings for per-browser search sessions.
type SessionConfig interface {
	GetSessionCookieName() string
	GetSessionTTL() time.Duration
	GetSessionCookieSecure() bool
}

// RateLimitConfig provides settings for search submission rate limiting.
type RateLimitConfig interface {
	GetSearchRateLimitPerMinute() float64
	GetSearchRateLimitBurst() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                      string
	HTTPAddr                 string
	CORSAllowAll             bool
	CORSOrigins              []string
	SearchBackendURL         string
	SearchBackendTimeout     time.Duration
	SearchMaxConcurrent      int64
	SessionCookieName        string
	SessionTTL               time.Duration
	SessionCookieSecure      bool
	SearchRateLimitPerMinute float64
	SearchRateLimitBurst     int
}

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// SearchBackendConfig implementation
func (c *Config) GetSearchBackendURL() string             { return c.SearchBackendURL }
func (c *Config) GetSearchBackendTimeout() time.Duration { return c.SearchBackendTimeout }
func (c *Config) GetSearchMaxConcurrent() int64          { return c.SearchMaxConcurrent }

// SessionConfig implementation
func (c *Config) GetSessionCookieName() string  { return c.SessionCookieName }
func (c *Config) GetSessionTTL() time.Duration  { return c.SessionTTL }
func (c *Config) GetSessionCookieSecure() bool { return c.SessionCookieSecure }

// RateLimitConfig implementation
func (c *Config) GetSearchRateLimitPerMinute() float64 { return c.SearchRateLimitPerMinute }
func (c *Config) GetSearchRateLimitBurst() int         { return c.SearchRateLimitBurst }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:8080"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	env := getEnv("APP_ENV", "development")
	cookieSecure := strings.EqualFold(getEnv("SESSION_COOKIE_SECURE", ""), "true")
	if getEnv("SESSION_COOKIE_SECURE", "") == "" {
		cookieSecure = strings.EqualFold(env, "production")
	}

	cfg := &Config{
		Env:                      env,
		HTTPAddr:                 getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:             corsAllowAll,
		CORSOrigins:              corsOrigins,
		SearchBackendURL:         strings.TrimRight(getEnv("SEARCH_BACKEND_URL", ""), "/"),
		SearchBackendTimeout:     mustDuration(getEnv("SEARCH_BACKEND_TIMEOUT", "10s")),
		SearchMaxConcurrent:      mustInt64(getEnv("SEARCH_MAX_CONCURRENT", "8")),
		SessionCookieName:        getEnv("SESSION_COOKIE_NAME", "carsearch_session"),
		SessionTTL:               mustDuration(getEnv("SESSION_TTL", "30m")),
		SessionCookieSecure:      cookieSecure,
		SearchRateLimitPerMinute: mustFloat(getEnv("SEARCH_RATE_LIMIT_PER_MINUTE", "60")),
		SearchRateLimitBurst:     int(mustInt64(getEnv("SEARCH_RATE_LIMIT_BURST", "10"))),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.SearchBackendURL == "" {
		return fmt.Errorf("SEARCH_BACKEND_URL is required")
	}
	if _, err := url.ParseRequestURI(c.SearchBackendURL); err != nil {
		return fmt.Errorf("SEARCH_BACKEND_URL is invalid: %w", err)
	}
	if c.SearchBackendTimeout <= 0 {
		return fmt.Errorf("SEARCH_BACKEND_TIMEOUT must be a positive duration")
	}
	if c.SearchMaxConcurrent < 1 {
		return fmt.Errorf("SEARCH_MAX_CONCURRENT must be at least 1")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be a positive duration")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
