// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"

	// Remote services
	APIBaseURL  string        // Prediction/assessment service base, e.g. http://localhost:5000/api
	HTTPTimeout time.Duration // Per-request timeout for all remote calls

	// Share-link service
	ShareServiceURL string // When set, links are minted by the HTTP service instead of locally
	SharePort       string // Listen port for cmd/shareserver
	ShareBaseURL    string // Public base used in minted link URLs

	// Client state
	StateDir string // Where the session token and cached profile live
}

// Defaults
const (
	DefaultAPIBaseURL   = "http://localhost:5000/api"
	DefaultHTTPTimeout  = 15 * time.Second
	DefaultSharePort    = "8086"
	DefaultShareBaseURL = "https://cardiocare.app"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
)

// Load reads configuration from environment variables.
// It loads a .env file if present (for local development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:        getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:       getEnv("LOG_FORMAT", DefaultLogFormat),
		APIBaseURL:      getEnv("CARDIOCARE_API_URL", DefaultAPIBaseURL),
		HTTPTimeout:     getEnvDuration("CARDIOCARE_HTTP_TIMEOUT", DefaultHTTPTimeout),
		ShareServiceURL: os.Getenv("CARDIOCARE_SHARE_SERVICE_URL"), // Optional, simulated minting if not set
		SharePort:       getEnv("SHARE_PORT", DefaultSharePort),
		ShareBaseURL:    getEnv("SHARE_BASE_URL", DefaultShareBaseURL),
		StateDir:        getEnv("CARDIOCARE_STATE_DIR", defaultStateDir()),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and well formed
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("CARDIOCARE_API_URL is required")
	}
	if _, err := url.ParseRequestURI(c.APIBaseURL); err != nil {
		return fmt.Errorf("CARDIOCARE_API_URL is not a valid URL: %w", err)
	}
	if c.ShareServiceURL != "" {
		if _, err := url.ParseRequestURI(c.ShareServiceURL); err != nil {
			return fmt.Errorf("CARDIOCARE_SHARE_SERVICE_URL is not a valid URL: %w", err)
		}
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("CARDIOCARE_HTTP_TIMEOUT must be positive")
	}
	if c.StateDir == "" {
		return fmt.Errorf("CARDIOCARE_STATE_DIR is required")
	}
	return nil
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cardiocare"
	}
	return filepath.Join(home, ".cardiocare")
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
