// Aurora Sensa - Telemetry Gateway for the Aurora Monitoring Backend
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub002

package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/tophatsecurity/aurorasensa-sub002/internal/cache"
	"github.com/tophatsecurity/aurorasensa-sub002/internal/logging"
	"github.com/tophatsecurity/aurorasensa-sub002/internal/metrics"
)

// TTLs holds the cache freshness windows per endpoint category. Categories
// mirror the dashboard polling cadence: live data refetches quickly,
// near-static data is kept for minutes.
type TTLs struct {
	Fast    time.Duration
	Default time.Duration
	Slow    time.Duration
}

// DefaultTTLs returns the standard freshness windows.
func DefaultTTLs() TTLs {
	return TTLs{
		Fast:    90 * time.Second,
		Default: 150 * time.Second,
		Slow:    7 * time.Minute,
	}
}

// fastPathMarkers mark live endpoints cached on the fast window.
var fastPathMarkers = []string{"/active", "/readings", "/alerts", "/status"}

// slowPathMarkers mark near-static endpoints cached on the slow window.
var slowPathMarkers = []string{"/overview", "/system", "/profiles", "/baselines", "/info"}

// Options configures a Gateway.
type Options struct {
	// Transport performs the actual backend exchange. Required.
	Transport Transport

	// Gate tracks the session credential. Defaults to an in-memory store.
	Gate *Gate

	// MaxAttempts bounds retries for transient failures. Default 3.
	MaxAttempts int

	// RetryBaseDelay is the delay before the first retry. Default 1s.
	RetryBaseDelay time.Duration

	// MaxConcurrent caps in-flight executor calls system-wide. Default 6.
	MaxConcurrent int

	// RequestsPerSecond rate-limits outbound dispatch. 0 disables.
	RequestsPerSecond float64

	// CacheTTLs are the freshness windows. Zero value uses DefaultTTLs.
	CacheTTLs TTLs

	// DisableBreaker turns off circuit breaker protection.
	DisableBreaker bool

	// BreakerName labels the breaker's metrics. Default "aurora-api".
	BreakerName string
}

// Gateway is the single entry point for requests against the Aurora backend.
//
// It owns its cache map, concurrency semaphore, and session gate rather than
// sharing module-level state, so independent instances can coexist and tests
// can run isolated. Control flow for a call: session check, GET cache
// read-through, in-flight coalescing, then a breaker-protected transport
// exchange under the retry controller, with the outcome classified into a
// payload, an empty fallback, or a typed error.
type Gateway struct {
	transport Transport
	gate      *Gate
	cache     *cache.Cache
	ttls      TTLs
	retry     retrier
	sem       *semaphore.Weighted
	group     singleflight.Group
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[*RawResult]
}

// New creates a Gateway with the given options.
func New(opts Options) (*Gateway, error) {
	if opts.Transport == nil {
		return nil, fmt.Errorf("gateway: transport is required")
	}
	if opts.Gate == nil {
		opts.Gate = NewGate(NewMemoryTokenStore())
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = time.Second
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 6
	}
	if opts.CacheTTLs == (TTLs{}) {
		opts.CacheTTLs = DefaultTTLs()
	}
	if opts.BreakerName == "" {
		opts.BreakerName = "aurora-api"
	}

	g := &Gateway{
		transport: opts.Transport,
		gate:      opts.Gate,
		cache:     cache.New("gateway", opts.CacheTTLs.Default),
		ttls:      opts.CacheTTLs,
		retry:     retrier{maxAttempts: opts.MaxAttempts, baseDelay: opts.RetryBaseDelay},
		sem:       semaphore.NewWeighted(int64(opts.MaxConcurrent)),
	}

	if opts.RequestsPerSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.MaxConcurrent)
	}

	if !opts.DisableBreaker {
		g.breaker = newBreaker(opts.BreakerName)
	}

	return g, nil
}

// newBreaker builds the circuit breaker around the transport. Opens when the
// failure rate reaches 60% over at least 10 requests; waits 2 minutes before
// probing again with up to 3 half-open requests.
func newBreaker(name string) *gobreaker.CircuitBreaker[*RawResult] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0) // 0 = closed

	return gobreaker.NewCircuitBreaker[*RawResult](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio >= 0.6 {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("opening circuit to Aurora backend")
				return true
			}
			return false
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := breakerStateString(from), breakerStateString(to)
			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})
}

func breakerStateString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func breakerStateFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Session returns the gateway's session gate.
func (g *Gateway) Session() *Gate {
	return g.gate
}

// Invalidate removes cached GET responses whose path contains the given
// substring, or all entries when pattern is empty. Call after mutations so
// the next read bypasses the cache.
func (g *Gateway) Invalidate(pattern string) {
	g.cache.InvalidatePattern(pattern)
}

// CacheStats returns a snapshot of the response cache counters.
func (g *Gateway) CacheStats() cache.Stats {
	return g.cache.GetStats()
}

// Close releases background resources (the cache janitor).
func (g *Gateway) Close() {
	g.cache.Stop()
}

// Get issues a GET through the cache/coalescing path.
func (g *Gateway) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return g.Call(ctx, http.MethodGet, path, nil)
}

// Post issues a POST. The body is JSON-marshaled when non-nil.
func (g *Gateway) Post(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	return g.Call(ctx, http.MethodPost, path, body)
}

// Put issues a PUT. The body is JSON-marshaled when non-nil.
func (g *Gateway) Put(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	return g.Call(ctx, http.MethodPut, path, body)
}

// Patch issues a PATCH. The body is JSON-marshaled when non-nil.
func (g *Gateway) Patch(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	return g.Call(ctx, http.MethodPatch, path, body)
}

// Delete issues a DELETE.
func (g *Gateway) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return g.Call(ctx, http.MethodDelete, path, nil)
}

// Call performs a request against the Aurora backend.
//
// GETs are served from cache within the freshness window, and concurrent
// identical GETs share a single in-flight execution. Transient failures are
// retried with exponential backoff, then degraded to a shape-appropriate
// empty value; authentication, not-found, and fatal failures return a typed
// *Error. Timeouts always degrade, never error.
func (g *Gateway) Call(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	var encoded []byte
	if body != nil {
		var err error
		if encoded, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	desc := Descriptor{Method: method, Path: path, Body: encoded}

	// The gateway does not block credential-less requests: some endpoints
	// are publicly readable. It only warns.
	if !isAuthPath(path) && !g.gate.HasSession() {
		logging.Warn().Str("path", path).Msg("request without session credential")
	}

	start := time.Now()
	defer func() {
		metrics.GatewayRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()

	if method != http.MethodGet {
		payload, _, err := g.execute(ctx, desc)
		return payload, err
	}

	if cached, ok := g.cache.Get(desc.Key()); ok {
		metrics.GatewayRequestsTotal.WithLabelValues(method, "success").Inc()
		return cached.(json.RawMessage), nil
	}

	result, err, shared := g.group.Do(desc.Key(), func() (interface{}, error) {
		payload, cacheable, err := g.execute(ctx, desc)
		if err != nil {
			return nil, err
		}
		if cacheable {
			g.cache.SetWithTTL(desc.Key(), payload, g.ttlForPath(path))
		}
		return payload, nil
	})
	if shared {
		metrics.GatewayCoalescedTotal.Inc()
	}
	if err != nil {
		return nil, err
	}
	return result.(json.RawMessage), nil
}

// execute runs one descriptor through the semaphore, rate limiter, retry
// controller, breaker, and classifier. The bool reports whether the payload
// is cacheable (true only for Success classifications, never for degraded
// fallbacks).
func (g *Gateway) execute(ctx context.Context, desc Descriptor) (json.RawMessage, bool, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, false, fmt.Errorf("acquire request slot: %w", err)
	}
	defer g.sem.Release(1)

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, false, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	metrics.GatewayInFlight.Inc()
	defer metrics.GatewayInFlight.Dec()

	out := g.retry.do(ctx, func() outcome {
		raw, err := g.send(ctx, desc)
		return classify(desc.Path, raw, err)
	})

	switch out.kind {
	case outcomeSuccess:
		metrics.GatewayRequestsTotal.WithLabelValues(desc.Method, "success").Inc()
		return out.payload, true, nil

	case outcomeEmpty:
		empty, shape := emptyValueFor(desc.Path)
		metrics.GatewayRequestsTotal.WithLabelValues(desc.Method, "degraded").Inc()
		metrics.GatewayDegradationsTotal.WithLabelValues(shape).Inc()
		logging.Debug().Str("path", desc.Path).Str("shape", shape).Msg("degraded to empty fallback")
		return empty, false, nil

	default:
		return nil, false, g.finishError(desc, out.err)
	}
}

// send performs one transport exchange, through the breaker when enabled.
func (g *Gateway) send(ctx context.Context, desc Descriptor) (*RawResult, error) {
	if g.breaker == nil {
		return g.transport.Send(ctx, desc)
	}

	raw, err := g.breaker.Execute(func() (*RawResult, error) {
		return g.transport.Send(ctx, desc)
	})
	if err != nil {
		result := "failure"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			result = "rejected"
		}
		metrics.CircuitBreakerRequests.WithLabelValues(g.breaker.Name(), result).Inc()
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(g.breaker.Name(), "success").Inc()
	return raw, nil
}

// finishError applies side effects for a classified error and records it.
// Auth failures clear the session only when the request targeted an auth
// endpoint; not-found errors stay below error-level logging.
func (g *Gateway) finishError(desc Descriptor, e *Error) error {
	if e.Path == "" {
		e.Path = desc.Path
	}
	metrics.GatewayRequestsTotal.WithLabelValues(desc.Method, e.Kind.String()).Inc()

	switch e.Kind {
	case KindAuth:
		if isAuthPath(desc.Path) {
			g.gate.ClearSession()
			logging.Warn().Str("path", desc.Path).Msg("authentication failed, session cleared")
		} else {
			logging.Warn().Str("path", desc.Path).Str("detail", e.Message).Msg("authentication error from non-auth endpoint, session kept")
		}
	case KindNotFound:
		logging.Debug().Str("path", desc.Path).Str("detail", e.Message).Msg("resource not found")
	default:
		logging.Error().Str("path", desc.Path).Int("status", e.Status).Str("detail", e.Message).Msg("request failed")
	}

	return e
}

// ttlForPath selects the freshness window for a path by category.
func (g *Gateway) ttlForPath(path string) time.Duration {
	for _, marker := range fastPathMarkers {
		if strings.Contains(path, marker) {
			return g.ttls.Fast
		}
	}
	for _, marker := range slowPathMarkers {
		if strings.Contains(path, marker) {
			return g.ttls.Slow
		}
	}
	return g.ttls.Default
}
