// Aurora Sensa - Telemetry Gateway for the Aurora Monitoring Backend
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub002

package aurora

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tophatsecurity/aurorasensa-sub002/internal/logging"
	"github.com/tophatsecurity/aurorasensa-sub002/internal/metrics"
)

// PollerConfig controls the cache-warming refresh cadence per endpoint
// category. A zero interval falls back to the category default.
type PollerConfig struct {
	FastInterval    time.Duration
	DefaultInterval time.Duration
	SlowInterval    time.Duration
}

// Poller periodically fetches high-traffic Aurora views through the gateway
// so dashboard reads hit warm cache instead of the upstream. It implements
// suture.Service.
type Poller struct {
	client *Client
	config PollerConfig
	logger zerolog.Logger
	name   string
}

// fastEndpoints are live views refreshed most often.
var fastEndpoints = []string{
	EndpointClientsActive,
	EndpointPowerReadings,
	EndpointThermalReadings,
	EndpointAlertsList,
	EndpointStarlinkStatus,
}

// defaultEndpoints are tracking views with moderate churn.
var defaultEndpoints = []string{
	EndpointMaritimeVessels,
	EndpointADSBAircraft,
	EndpointLoraDevices,
	EndpointWifiDevices,
	EndpointBluetoothDevices,
}

// slowEndpoints are near-static inventory and aggregate views.
var slowEndpoints = []string{
	EndpointStatsOverview,
	EndpointSystemInfo,
	EndpointClientsList,
	EndpointSensorsList,
	EndpointAlertsRules,
}

// NewPoller creates a cache-warming poller over the given client.
func NewPoller(client *Client, cfg PollerConfig) *Poller {
	if cfg.FastInterval <= 0 {
		cfg.FastInterval = 60 * time.Second
	}
	if cfg.DefaultInterval <= 0 {
		cfg.DefaultInterval = 2 * time.Minute
	}
	if cfg.SlowInterval <= 0 {
		cfg.SlowInterval = 5 * time.Minute
	}

	return &Poller{
		client: client,
		config: cfg,
		logger: logging.With().Str("service", "poller").Logger(),
		name:   "aurora-poller",
	}
}

// Serve implements suture.Service. It drives three ticker loops, one per
// refresh category, and exits when the context is canceled.
func (p *Poller) Serve(ctx context.Context) error {
	p.logger.Info().
		Dur("fast_interval", p.config.FastInterval).
		Dur("default_interval", p.config.DefaultInterval).
		Dur("slow_interval", p.config.SlowInterval).
		Msg("Cache-warming poller starting")

	// Warm everything once on startup so the first dashboard load is fast.
	p.refresh(ctx, "fast", fastEndpoints)
	p.refresh(ctx, "default", defaultEndpoints)
	p.refresh(ctx, "slow", slowEndpoints)

	fast := time.NewTicker(p.config.FastInterval)
	defer fast.Stop()
	def := time.NewTicker(p.config.DefaultInterval)
	defer def.Stop()
	slow := time.NewTicker(p.config.SlowInterval)
	defer slow.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("Cache-warming poller shutting down")
			return ctx.Err()

		case <-fast.C:
			p.refresh(ctx, "fast", fastEndpoints)

		case <-def.C:
			p.refresh(ctx, "default", defaultEndpoints)

		case <-slow.C:
			p.refresh(ctx, "slow", slowEndpoints)
		}
	}
}

// refresh fetches each endpoint in the category through the gateway. The
// fetch itself populates the cache; responses are discarded here.
func (p *Poller) refresh(ctx context.Context, category string, endpoints []string) {
	if !p.client.Gateway().Session().HasSession() {
		p.logger.Debug().Str("category", category).Msg("Skipping refresh, no session")
		return
	}

	start := time.Now()
	failures := 0

	for _, path := range endpoints {
		if ctx.Err() != nil {
			return
		}
		if _, err := p.client.Gateway().Get(ctx, path); err != nil {
			failures++
			p.logger.Warn().Err(err).Str("path", path).Msg("Cache refresh fetch failed")
			metrics.PollerRefreshesTotal.WithLabelValues(category, "error").Inc()
			continue
		}
		metrics.PollerRefreshesTotal.WithLabelValues(category, "success").Inc()
	}

	if failures == 0 {
		metrics.PollerLastSuccess.WithLabelValues(category).SetToCurrentTime()
	}

	p.logger.Debug().
		Str("category", category).
		Int("endpoints", len(endpoints)).
		Int("failures", failures).
		Dur("duration", time.Since(start)).
		Msg("Cache refresh cycle complete")
}

// String identifies the poller in supervisor logs.
func (p *Poller) String() string {
	return p.name
}
