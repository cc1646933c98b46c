// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

// Package config loads and validates the Managarr configuration.
//
// Configuration is layered: built-in defaults, then an optional YAML file,
// then environment variables with the highest precedence. See LoadWithKoanf.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/helliott20/managarr-sub001/internal/validation"
)

// MinSchedulerInterval is the floor for the recurring execution interval.
// Values below it are clamped up during validation and again by the
// scheduler, so a misconfigured deployment cannot hammer the integrations.
const MinSchedulerInterval = 5 * time.Minute

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Radarr    IntegrationConfig `koanf:"radarr"`
	Sonarr    IntegrationConfig `koanf:"sonarr"`
	Executor  ExecutorConfig  `koanf:"executor"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	API       APIConfig       `koanf:"api"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout           time.Duration `koanf:"timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"min=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory"`
	// Threads 0 means runtime.NumCPU().
	Threads int `koanf:"threads" validate:"min=0"`
}

// IntegrationConfig holds connection settings for one downloader
// integration (Radarr or Sonarr).
type IntegrationConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url" validate:"omitempty,url"`
	APIKey         string        `koanf:"api_key"`
	Timeout        time.Duration `koanf:"timeout"`
	MaxRetries     int           `koanf:"max_retries" validate:"min=0,max=10"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`
	// RateLimit is requests per second against the integration API;
	// 0 disables client-side limiting.
	RateLimit float64 `koanf:"rate_limit" validate:"min=0"`
	RateBurst int     `koanf:"rate_burst" validate:"min=0"`
}

// ExecutorConfig tunes the execution engine.
type ExecutorConfig struct {
	Workers     int           `koanf:"workers" validate:"min=1,max=32"`
	ItemTimeout time.Duration `koanf:"item_timeout"`
	PassTimeout time.Duration `koanf:"pass_timeout"`
	RetryFailed bool          `koanf:"retry_failed"`
	// BatchSize caps how many due items one pass picks up.
	BatchSize int `koanf:"batch_size" validate:"min=1,max=10000"`
}

// SchedulerConfig tunes the recurring execution timer.
type SchedulerConfig struct {
	Enabled          bool          `koanf:"enabled"`
	Interval         time.Duration `koanf:"interval"`
	ExecutionTimeout time.Duration `koanf:"execution_timeout"`
}

// APIConfig holds pagination bounds for list endpoints.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size" validate:"min=1,max=1000"`
	MaxPageSize     int `koanf:"max_page_size" validate:"min=1,max=1000"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal disabled"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the built-in defaults, applied before the config
// file and environment layers.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            7878,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Database: DatabaseConfig{
			Path:      "/data/managarr.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Radarr: IntegrationConfig{
			Enabled:        false,
			Timeout:        30 * time.Second,
			MaxRetries:     3,
			RetryBaseDelay: 2 * time.Second,
			RateLimit:      5,
			RateBurst:      5,
		},
		Sonarr: IntegrationConfig{
			Enabled:        false,
			Timeout:        30 * time.Second,
			MaxRetries:     3,
			RetryBaseDelay: 2 * time.Second,
			RateLimit:      5,
			RateBurst:      5,
		},
		Executor: ExecutorConfig{
			Workers:     4,
			ItemTimeout: time.Minute,
			PassTimeout: 30 * time.Minute,
			RetryFailed: true,
			BatchSize:   500,
		},
		Scheduler: SchedulerConfig{
			Enabled:          true,
			Interval:         6 * time.Hour,
			ExecutionTimeout: 30 * time.Minute,
		},
		API: APIConfig{
			DefaultPageSize: 50,
			MaxPageSize:     500,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks struct tags and cross-field constraints, and normalizes
// values with enforced bounds. Returns an error describing the first
// problem found.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return fmt.Errorf("invalid configuration: %s", verr.Error())
	}

	if c.API.DefaultPageSize > c.API.MaxPageSize {
		return fmt.Errorf("api.default_page_size (%d) exceeds api.max_page_size (%d)",
			c.API.DefaultPageSize, c.API.MaxPageSize)
	}

	if err := validateIntegration("radarr", &c.Radarr); err != nil {
		return err
	}
	if err := validateIntegration("sonarr", &c.Sonarr); err != nil {
		return err
	}

	// Interval floor. Clamped rather than rejected so an aggressive value
	// degrades to the safe minimum instead of refusing to start.
	if c.Scheduler.Interval < MinSchedulerInterval {
		c.Scheduler.Interval = MinSchedulerInterval
	}

	if c.Executor.ItemTimeout <= 0 {
		c.Executor.ItemTimeout = time.Minute
	}
	if c.Executor.PassTimeout <= 0 {
		c.Executor.PassTimeout = 30 * time.Minute
	}
	if c.Scheduler.ExecutionTimeout <= 0 {
		c.Scheduler.ExecutionTimeout = 30 * time.Minute
	}

	return nil
}

// validateIntegration checks that an enabled integration has both a URL and
// an API key.
func validateIntegration(name string, ic *IntegrationConfig) error {
	if !ic.Enabled {
		return nil
	}
	if strings.TrimSpace(ic.URL) == "" {
		return fmt.Errorf("%s.url is required when %s.enabled is true", name, name)
	}
	if strings.TrimSpace(ic.APIKey) == "" {
		return fmt.Errorf("%s.api_key is required when %s.enabled is true", name, name)
	}
	return nil
}
