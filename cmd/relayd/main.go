// Aurora Sensa - Telemetry Gateway for the Aurora Monitoring Backend
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub002

// Command relayd runs the server-side relay for the Aurora telemetry
// gateway, plus an optional cache-warming poller against the upstream.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/tophatsecurity/aurorasensa-sub002/internal/aurora"
	"github.com/tophatsecurity/aurorasensa-sub002/internal/config"
	"github.com/tophatsecurity/aurorasensa-sub002/internal/gateway"
	"github.com/tophatsecurity/aurorasensa-sub002/internal/logging"
	"github.com/tophatsecurity/aurorasensa-sub002/internal/relay"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("upstream", cfg.Aurora.BaseURL).
		Str("listen", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Bool("poller", cfg.Poller.Enabled).
		Msg("Starting Aurora relay daemon")

	// Supervisor tree with sutureslog bridging suture events into zerolog.
	handler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
	root := suture.New("relayd", suture.Spec{
		EventHook: handler.MustHook(),
	})

	relayHandler := relay.NewHandler(cfg.Aurora.BaseURL, cfg.Aurora.APIKey, cfg.Aurora.Timeout)
	root.Add(relay.NewServer(cfg.Server, relayHandler))

	var closers []func()

	if cfg.Poller.Enabled {
		gw, err := buildGateway(cfg)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to build gateway for poller")
		}
		closers = append(closers, gw.Close)

		root.Add(aurora.NewPoller(aurora.NewClient(gw), aurora.PollerConfig{
			FastInterval:    cfg.Poller.FastInterval,
			DefaultInterval: cfg.Poller.DefaultInterval,
			SlowInterval:    cfg.Poller.SlowInterval,
		}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := root.ServeBackground(ctx)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor error")
		}
	}

	for _, closeFn := range closers {
		closeFn()
	}

	logging.Info().Msg("Relay daemon stopped")
}

// buildGateway assembles a gateway over the direct transport for the
// cache-warming poller, with the configured session persistence.
func buildGateway(cfg *config.Config) (*gateway.Gateway, error) {
	var store gateway.TokenStore
	if cfg.Session.Store == config.SessionStoreBadger {
		badgerStore, err := gateway.NewBadgerTokenStore(cfg.Session.StorePath)
		if err != nil {
			return nil, err
		}
		store = badgerStore
	} else {
		store = gateway.NewMemoryTokenStore()
	}

	gate := gateway.NewGate(store)

	transport := gateway.NewDirectTransport(
		cfg.Aurora.BaseURL,
		cfg.Aurora.APIKey,
		gate.Token,
		cfg.Aurora.Timeout,
	)

	return gateway.New(gateway.Options{
		Transport:         transport,
		Gate:              gate,
		MaxAttempts:       cfg.Gateway.MaxAttempts,
		RetryBaseDelay:    cfg.Gateway.RetryBaseDelay,
		MaxConcurrent:     cfg.Gateway.MaxConcurrent,
		RequestsPerSecond: cfg.Gateway.RequestsPerSecond,
		CacheTTLs: gateway.TTLs{
			Fast:    cfg.Cache.FastTTL,
			Default: cfg.Cache.DefaultTTL,
			Slow:    cfg.Cache.SlowTTL,
		},
		DisableBreaker: cfg.Gateway.BreakerDisabled,
	})
}
