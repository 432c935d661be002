// Aurora Sensa - Telemetry Gateway for the Aurora Monitoring Backend
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub002

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("AURORA_BASE_URL", "https://aurora.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Aurora.Transport != TransportDirect {
		t.Errorf("Transport = %q, want direct", cfg.Aurora.Transport)
	}
	if cfg.Gateway.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.Gateway.MaxAttempts)
	}
	if cfg.Gateway.MaxConcurrent != 6 {
		t.Errorf("MaxConcurrent = %d, want 6", cfg.Gateway.MaxConcurrent)
	}
	if cfg.Cache.FastTTL != 90*time.Second {
		t.Errorf("FastTTL = %v, want 90s", cfg.Cache.FastTTL)
	}
	if cfg.Cache.SlowTTL != 7*time.Minute {
		t.Errorf("SlowTTL = %v, want 7m", cfg.Cache.SlowTTL)
	}
	if cfg.Server.Port != 8641 {
		t.Errorf("Port = %d, want 8641", cfg.Server.Port)
	}
	if cfg.Session.Store != SessionStoreMemory {
		t.Errorf("Session.Store = %q, want memory", cfg.Session.Store)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("AURORA_BASE_URL", "https://aurora.example.com")
	t.Setenv("AURORA_TRANSPORT", "relay")
	t.Setenv("AURORA_RELAY_URL", "https://relay.example.com/v1/relay")
	t.Setenv("GATEWAY_MAX_ATTEMPTS", "5")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("SERVER_CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Aurora.Transport != TransportRelay {
		t.Errorf("Transport = %q, want relay", cfg.Aurora.Transport)
	}
	if cfg.Gateway.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", cfg.Gateway.MaxAttempts)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}

	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.Server.CORSOrigins) != len(want) {
		t.Fatalf("CORSOrigins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
	for i := range want {
		if cfg.Server.CORSOrigins[i] != want[i] {
			t.Errorf("CORSOrigins[%d] = %q, want %q", i, cfg.Server.CORSOrigins[i], want[i])
		}
	}
}

func TestLoadConfigFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
aurora:
  base_url: https://aurora.example.com
gateway:
  max_attempts: 7
  max_concurrent: 12
logging:
  level: warn
`)
	if err := os.WriteFile(configPath, content, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Gateway.MaxAttempts != 7 {
		t.Errorf("MaxAttempts = %d, want 7 from file", cfg.Gateway.MaxAttempts)
	}
	if cfg.Gateway.MaxConcurrent != 12 {
		t.Errorf("MaxConcurrent = %d, want 12 from file", cfg.Gateway.MaxConcurrent)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn from file", cfg.Logging.Level)
	}
	// Untouched sections keep their defaults.
	if cfg.Server.Port != 8641 {
		t.Errorf("Port = %d, want default 8641", cfg.Server.Port)
	}
}

func TestLoadEnvironmentBeatsFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
aurora:
  base_url: https://aurora.example.com
logging:
  level: warn
`)
	if err := os.WriteFile(configPath, content, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, configPath)
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %q, environment must override the file", cfg.Logging.Level)
	}
}

func TestLoadValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing base URL",
			env:  map[string]string{},
		},
		{
			name: "invalid base URL",
			env:  map[string]string{"AURORA_BASE_URL": "not a url"},
		},
		{
			name: "invalid transport",
			env: map[string]string{
				"AURORA_BASE_URL":  "https://aurora.example.com",
				"AURORA_TRANSPORT": "carrier-pigeon",
			},
		},
		{
			name: "relay transport without relay URL",
			env: map[string]string{
				"AURORA_BASE_URL":  "https://aurora.example.com",
				"AURORA_TRANSPORT": "relay",
			},
		},
		{
			name: "max attempts out of range",
			env: map[string]string{
				"AURORA_BASE_URL":      "https://aurora.example.com",
				"GATEWAY_MAX_ATTEMPTS": "50",
			},
		},
		{
			name: "port out of range",
			env: map[string]string{
				"AURORA_BASE_URL": "https://aurora.example.com",
				"SERVER_PORT":     "70000",
			},
		},
		{
			name: "invalid session store",
			env: map[string]string{
				"AURORA_BASE_URL": "https://aurora.example.com",
				"SESSION_STORE":   "etcd",
			},
		},
		{
			name: "invalid log level",
			env: map[string]string{
				"AURORA_BASE_URL": "https://aurora.example.com",
				"LOG_LEVEL":       "verbose",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("Load() succeeded, want validation error")
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  string
		want string
	}{
		{"AURORA_BASE_URL", "aurora.base_url"},
		{"GATEWAY_MAX_ATTEMPTS", "gateway.max_attempts"},
		{"CACHE_FAST_TTL", "cache.fast_ttl"},
		{"SESSION_STORE_PATH", "session.store_path"},
		{"SERVER_CORS_ORIGINS", "server.cors_origins"},
		{"POLLER_ENABLED", "poller.enabled"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
		{"UNRELATED_VAR", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.key); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
