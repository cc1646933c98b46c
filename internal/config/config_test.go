// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
}

func TestValidateClampsSchedulerInterval(t *testing.T) {
	cfg := defaultConfig()
	cfg.Scheduler.Interval = 30 * time.Second

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Scheduler.Interval != MinSchedulerInterval {
		t.Errorf("interval = %v, want clamped to %v", cfg.Scheduler.Interval, MinSchedulerInterval)
	}
}

func TestValidateIntervalAtFloorUnchanged(t *testing.T) {
	cfg := defaultConfig()
	cfg.Scheduler.Interval = MinSchedulerInterval

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Scheduler.Interval != MinSchedulerInterval {
		t.Errorf("interval = %v, want %v", cfg.Scheduler.Interval, MinSchedulerInterval)
	}
}

func TestValidateIntegrationPairing(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "radarr enabled without url",
			mutate: func(c *Config) {
				c.Radarr.Enabled = true
				c.Radarr.APIKey = "key"
			},
			wantErr: "radarr.url",
		},
		{
			name: "radarr enabled without api key",
			mutate: func(c *Config) {
				c.Radarr.Enabled = true
				c.Radarr.URL = "http://radarr:7878"
			},
			wantErr: "radarr.api_key",
		},
		{
			name: "sonarr enabled without url",
			mutate: func(c *Config) {
				c.Sonarr.Enabled = true
				c.Sonarr.APIKey = "key"
			},
			wantErr: "sonarr.url",
		},
		{
			name: "disabled integration needs nothing",
			mutate: func(c *Config) {
				c.Radarr.Enabled = false
			},
		},
		{
			name: "fully configured integration",
			mutate: func(c *Config) {
				c.Sonarr.Enabled = true
				c.Sonarr.URL = "http://sonarr:8989"
				c.Sonarr.APIKey = "key"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePageSizeOrdering(t *testing.T) {
	cfg := defaultConfig()
	cfg.API.DefaultPageSize = 200
	cfg.API.MaxPageSize = 100

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for default page size above max")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"RADARR_URL", "radarr.url"},
		{"SONARR_API_KEY", "sonarr.api_key"},
		{"SCHEDULER_INTERVAL", "scheduler.interval"},
		{"EXECUTOR_RETRY_FAILED", "executor.retry_failed"},
		{"DUCKDB_PATH", "database.path"},
		{"HTTP_PORT", "server.port"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"SOME_RANDOM_VAR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestLoadWithKoanfLayering(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9999
scheduler:
  interval: 12h
radarr:
  enabled: true
  url: http://radarr:7878
  api_key: file-key
`
	if err := os.WriteFile(configPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, configPath)
	t.Setenv("RADARR_API_KEY", "env-key")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	// File overrides defaults.
	if cfg.Server.Port != 9999 {
		t.Errorf("server.port = %d, want 9999 from file", cfg.Server.Port)
	}
	if cfg.Scheduler.Interval != 12*time.Hour {
		t.Errorf("scheduler.interval = %v, want 12h from file", cfg.Scheduler.Interval)
	}
	// Env overrides file.
	if cfg.Radarr.APIKey != "env-key" {
		t.Errorf("radarr.api_key = %q, want env override", cfg.Radarr.APIKey)
	}
	// Defaults survive where nothing overrides.
	if cfg.Executor.Workers != 4 {
		t.Errorf("executor.workers = %d, want default 4", cfg.Executor.Workers)
	}
	if !cfg.Executor.RetryFailed {
		t.Error("executor.retry_failed should default to true")
	}
}

func TestLoadWithKoanfCORSFromEnv(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[0] != "http://a.example" {
		t.Errorf("cors_origins = %v, want two parsed origins", cfg.Server.CORSOrigins)
	}
}
