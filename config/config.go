// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the runtime configuration for the service.
type Config struct {
	DashScopeAPIKey string
	DatabaseURL     string
	HistoryFilePath string
	Port            string
	PollInterval    time.Duration
	MaxPollRetries  int
}

// Load reads configuration from environment variables, applying defaults for
// everything except the provider API key.
func Load() Config {
	cfg := Config{
		DashScopeAPIKey: os.Getenv("DASHSCOPE_API_KEY"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		HistoryFilePath: os.Getenv("HISTORY_FILE_PATH"),
		Port:            os.Getenv("PORT"),
		PollInterval:    2 * time.Second,
		MaxPollRetries:  30,
	}

	if cfg.HistoryFilePath == "" {
		cfg.HistoryFilePath = "chat_history.json"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if v := os.Getenv("IMAGE_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PollInterval = d
		}
	}
	if v := os.Getenv("IMAGE_POLL_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxPollRetries = n
		}
	}

	return cfg
}

// Validate checks that required configuration is present. A missing API key
// is a fatal startup condition, not a per-request one.
func (c Config) Validate() error {
	if c.DashScopeAPIKey == "" {
		return fmt.Errorf("missing required environment variable: DASHSCOPE_API_KEY")
	}
	return nil
}
