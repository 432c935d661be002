// Aurora Sensa - Telemetry Gateway for the Aurora Monitoring Backend
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub002

// Package config holds all configuration for the gateway and relay daemon.
//
// Loading order (Koanf v2): built-in defaults, then an optional YAML config
// file, then environment variables. ENV > file > defaults. Config is
// immutable after Load and safe for concurrent reads.
package config

import (
	"fmt"
	"time"

	"github.com/tophatsecurity/aurorasensa-sub002/internal/validation"
)

// Transport selection for the gateway.
const (
	TransportDirect = "direct"
	TransportRelay  = "relay"

	SessionStoreMemory = "memory"
	SessionStoreBadger = "badger"
)

// Config is the root configuration object.
type Config struct {
	Aurora  AuroraConfig  `koanf:"aurora"`
	Gateway GatewayConfig `koanf:"gateway"`
	Cache   CacheConfig   `koanf:"cache"`
	Session SessionConfig `koanf:"session"`
	Server  ServerConfig  `koanf:"server"`
	Poller  PollerConfig  `koanf:"poller"`
	Logging LoggingConfig `koanf:"logging"`
}

// AuroraConfig describes the upstream Aurora backend and how to reach it.
type AuroraConfig struct {
	// BaseURL is the Aurora backend host, e.g. https://aurora.example.com
	BaseURL string `koanf:"base_url" validate:"required,url"`

	// APIKey is attached as x-api-key on direct requests and by the relay
	// on forwarded requests.
	APIKey string `koanf:"api_key"`

	// Transport selects how requests reach Aurora: "direct" or "relay".
	Transport string `koanf:"transport" validate:"oneof=direct relay"`

	// RelayURL is the relay endpoint, required when Transport is "relay".
	RelayURL string `koanf:"relay_url"`

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `koanf:"timeout"`
}

// GatewayConfig tunes retry, concurrency, and breaker behavior.
type GatewayConfig struct {
	// MaxAttempts bounds retries for transient failures.
	MaxAttempts int `koanf:"max_attempts" validate:"min=1,max=10"`

	// RetryBaseDelay is the delay before the first retry; it doubles on
	// each subsequent attempt.
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`

	// MaxConcurrent caps in-flight requests against the backend.
	MaxConcurrent int `koanf:"max_concurrent" validate:"min=1,max=64"`

	// RequestsPerSecond rate-limits outbound dispatches. 0 disables.
	RequestsPerSecond float64 `koanf:"requests_per_second"`

	// BreakerDisabled turns off the circuit breaker around the transport.
	BreakerDisabled bool `koanf:"breaker_disabled"`
}

// CacheConfig holds the freshness windows for GET response caching.
// Categories mirror the dashboard polling cadence.
type CacheConfig struct {
	FastTTL    time.Duration `koanf:"fast_ttl"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	SlowTTL    time.Duration `koanf:"slow_ttl"`
}

// SessionConfig selects where the session credential is persisted.
type SessionConfig struct {
	// Store is "memory" or "badger".
	Store string `koanf:"store" validate:"oneof=memory badger"`

	// StorePath is the BadgerDB directory when Store is "badger".
	StorePath string `koanf:"store_path"`
}

// ServerConfig configures the relay HTTP server.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout"`

	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// PollerConfig configures the cache-warming poller.
type PollerConfig struct {
	Enabled bool `koanf:"enabled"`

	// Intervals per endpoint category. Zero values fall back to the cache
	// freshness windows.
	FastInterval    time.Duration `koanf:"fast_interval"`
	DefaultInterval time.Duration `koanf:"default_interval"`
	SlowInterval    time.Duration `koanf:"slow_interval"`
}

// LoggingConfig configures the global zerolog logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all defaults applied. Defaults are
// loaded first, then overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		Aurora: AuroraConfig{
			BaseURL:   "",
			APIKey:    "",
			Transport: TransportDirect,
			RelayURL:  "",
			Timeout:   30 * time.Second,
		},
		Gateway: GatewayConfig{
			MaxAttempts:       3,
			RetryBaseDelay:    time.Second,
			MaxConcurrent:     6,
			RequestsPerSecond: 0, // unlimited
			BreakerDisabled:   false,
		},
		Cache: CacheConfig{
			FastTTL:    90 * time.Second,
			DefaultTTL: 150 * time.Second,
			SlowTTL:    7 * time.Minute,
		},
		Session: SessionConfig{
			Store:     "memory",
			StorePath: "/data/aurora-session",
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8641,
			Timeout:           30 * time.Second,
			CORSOrigins:       []string{},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Poller: PollerConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks that the configuration is complete and coherent.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if c.Aurora.Transport == TransportRelay && c.Aurora.RelayURL == "" {
		return fmt.Errorf("AURORA_RELAY_URL is required when AURORA_TRANSPORT=relay")
	}

	if c.Session.Store == "badger" && c.Session.StorePath == "" {
		return fmt.Errorf("SESSION_STORE_PATH is required when SESSION_STORE=badger")
	}

	if c.Gateway.RetryBaseDelay <= 0 {
		return fmt.Errorf("GATEWAY_RETRY_BASE_DELAY must be positive")
	}

	return nil
}
