// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultListenAddr is the address the HTTP server binds to when
// LISTEN_ADDR is not set.
const DefaultListenAddr = ":8080"

// DefaultSessionTTL is the fixed expiry horizon for login sessions.
const DefaultSessionTTL = 30 * 24 * time.Hour

// Config holds all configuration for the application.
type Config struct {
	DatabaseURL     string
	GeminiAPIKey    string
	ListenAddr      string
	LogLevel        string
	LogFormat       string
	SessionTTL      time.Duration
	OTLPEndpoint    string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		ListenAddr:   os.Getenv("LISTEN_ADDR"),
		LogLevel:     os.Getenv("LOG_LEVEL"),
		LogFormat:    os.Getenv("LOG_FORMAT"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}

	cfg.SessionTTL = DefaultSessionTTL
	if ttlStr := os.Getenv("SESSION_TTL_DAYS"); ttlStr != "" {
		if days, err := strconv.Atoi(ttlStr); err == nil && days > 0 {
			cfg.SessionTTL = time.Duration(days) * 24 * time.Hour
		}
	}

	cfg.ShutdownTimeout = 10 * time.Second

	// Validate required configuration.
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	var errs []string

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if c.GeminiAPIKey == "" {
		errs = append(errs, "GEMINI_API_KEY is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
