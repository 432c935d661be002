// Aurora Sensa - Telemetry Gateway for the Aurora Monitoring Backend
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub002

package gateway

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// transportFunc adapts a function to the Transport interface for tests.
type transportFunc func(ctx context.Context, desc Descriptor) (*RawResult, error)

func (f transportFunc) Send(ctx context.Context, desc Descriptor) (*RawResult, error) {
	return f(ctx, desc)
}

// newTestGateway builds a gateway with fast retries and no breaker, so
// individual tests exercise single behaviors in isolation.
func newTestGateway(t *testing.T, transport Transport) *Gateway {
	t.Helper()

	gw, err := New(Options{
		Transport:      transport,
		MaxAttempts:    3,
		RetryBaseDelay: time.Millisecond,
		DisableBreaker: true,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(gw.Close)
	return gw
}

func TestGatewayRequiresTransport(t *testing.T) {
	t.Parallel()

	if _, err := New(Options{}); err == nil {
		t.Fatal("New() without transport succeeded, want error")
	}
}

func TestGatewayCachesGETs(t *testing.T) {
	t.Parallel()

	var calls int32
	gw := newTestGateway(t, transportFunc(func(_ context.Context, _ Descriptor) (*RawResult, error) {
		atomic.AddInt32(&calls, 1)
		return &RawResult{Status: http.StatusOK, Body: []byte(`[{"id":"c-1"}]`)}, nil
	}))

	first, err := gw.Get(context.Background(), "/api/clients/list")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	second, err := gw.Get(context.Background(), "/api/clients/list")
	if err != nil {
		t.Fatalf("second Get() error = %v", err)
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("transport calls = %d, want 1 (second read served from cache)", got)
	}
	if string(first) != string(second) {
		t.Errorf("cached payload %s differs from original %s", second, first)
	}
}

func TestGatewayCacheKeyIncludesMethod(t *testing.T) {
	t.Parallel()

	var calls int32
	gw := newTestGateway(t, transportFunc(func(_ context.Context, _ Descriptor) (*RawResult, error) {
		atomic.AddInt32(&calls, 1)
		return &RawResult{Status: http.StatusOK, Body: []byte(`{"ok":true}`)}, nil
	}))

	if _, err := gw.Get(context.Background(), "/api/alerts/rules"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	// A mutation on the same path must not be served from the GET cache.
	if _, err := gw.Post(context.Background(), "/api/alerts/rules", map[string]string{"name": "r1"}); err != nil {
		t.Fatalf("Post() error = %v", err)
	}

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("transport calls = %d, want 2", got)
	}
}

func TestGatewayMutationsNeverCached(t *testing.T) {
	t.Parallel()

	var calls int32
	gw := newTestGateway(t, transportFunc(func(_ context.Context, _ Descriptor) (*RawResult, error) {
		atomic.AddInt32(&calls, 1)
		return &RawResult{Status: http.StatusOK, Body: []byte(`{"acknowledged":true}`)}, nil
	}))

	for i := 0; i < 3; i++ {
		if _, err := gw.Post(context.Background(), "/api/alerts/a-1/acknowledge", nil); err != nil {
			t.Fatalf("Post() error = %v", err)
		}
	}

	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("transport calls = %d, want 3", got)
	}
}

func TestGatewayCoalescesConcurrentGETs(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var calls int32

	gw := newTestGateway(t, transportFunc(func(_ context.Context, _ Descriptor) (*RawResult, error) {
		atomic.AddInt32(&calls, 1)
		started <- struct{}{}
		<-release
		return &RawResult{Status: http.StatusOK, Body: []byte(`[]`)}, nil
	}))

	const waiters = 5
	var wg sync.WaitGroup
	results := make([]string, waiters)
	errs := make([]error, waiters)

	wg.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func(i int) {
			defer wg.Done()
			payload, err := gw.Get(context.Background(), "/api/maritime/vessels")
			results[i], errs[i] = string(payload), err
		}(i)
	}

	// Hold the single in-flight request until every goroutine has had time
	// to join the flight, then let it finish.
	<-started
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("transport calls = %d, want 1 (concurrent GETs share one flight)", got)
	}
	for i := 0; i < waiters; i++ {
		if errs[i] != nil {
			t.Fatalf("Get() #%d error = %v", i, errs[i])
		}
		if results[i] != "[]" {
			t.Errorf("Get() #%d = %s, want []", i, results[i])
		}
	}
}

func TestGatewayTimeoutDegradesWithoutRetry(t *testing.T) {
	t.Parallel()

	var calls int32
	gw := newTestGateway(t, transportFunc(func(_ context.Context, _ Descriptor) (*RawResult, error) {
		atomic.AddInt32(&calls, 1)
		return nil, context.DeadlineExceeded
	}))

	payload, err := gw.Get(context.Background(), "/api/power/readings")
	if err != nil {
		t.Fatalf("Get() error = %v, timeouts must degrade instead of failing", err)
	}
	if string(payload) != "[]" {
		t.Errorf("Get() = %s, want [] for a readings path", payload)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("transport calls = %d, want 1 (timeouts are never retried)", got)
	}
}

func TestGatewayUpstream500DegradesToObject(t *testing.T) {
	t.Parallel()

	gw := newTestGateway(t, transportFunc(func(_ context.Context, _ Descriptor) (*RawResult, error) {
		return &RawResult{Status: http.StatusInternalServerError, Body: []byte(`{"detail":"worker crashed"}`)}, nil
	}))

	payload, err := gw.Get(context.Background(), "/api/stats/overview")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(payload) != "{}" {
		t.Errorf("Get() = %s, want {} for an aggregate path", payload)
	}
}

func TestGatewayDegradedResultsNotCached(t *testing.T) {
	t.Parallel()

	var calls int32
	gw := newTestGateway(t, transportFunc(func(_ context.Context, _ Descriptor) (*RawResult, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, context.DeadlineExceeded
		}
		return &RawResult{Status: http.StatusOK, Body: []byte(`[{"id":"v-1"}]`)}, nil
	}))

	first, err := gw.Get(context.Background(), "/api/maritime/vessels")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(first) != "[]" {
		t.Fatalf("first Get() = %s, want degraded []", first)
	}

	// The degraded value must not mask the backend's recovery.
	second, err := gw.Get(context.Background(), "/api/maritime/vessels")
	if err != nil {
		t.Fatalf("second Get() error = %v", err)
	}
	if string(second) != `[{"id":"v-1"}]` {
		t.Errorf("second Get() = %s, want fresh payload", second)
	}
}

func TestGatewayRetriesTransientThenThrows(t *testing.T) {
	t.Parallel()

	var calls int32
	gw := newTestGateway(t, transportFunc(func(_ context.Context, _ Descriptor) (*RawResult, error) {
		atomic.AddInt32(&calls, 1)
		return &RawResult{Status: http.StatusServiceUnavailable}, nil
	}))

	_, err := gw.Get(context.Background(), "/api/clients/list")
	if err == nil {
		t.Fatal("Get() succeeded, want transient error after retry exhaustion")
	}
	if !IsTransient(err) {
		t.Errorf("IsTransient(%v) = false", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("transport calls = %d, want exactly 3 attempts", got)
	}
}

func TestGatewayRetriesTransientThenRecovers(t *testing.T) {
	t.Parallel()

	var calls int32
	gw := newTestGateway(t, transportFunc(func(_ context.Context, _ Descriptor) (*RawResult, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return &RawResult{Status: http.StatusBadGateway}, nil
		}
		return &RawResult{Status: http.StatusOK, Body: []byte(`[{"id":"s-1"}]`)}, nil
	}))

	payload, err := gw.Get(context.Background(), "/api/sensors/list")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(payload) != `[{"id":"s-1"}]` {
		t.Errorf("Get() = %s, want recovered payload", payload)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("transport calls = %d, want 3", got)
	}
}

func TestGatewayAuthErrorClearsSessionOnAuthPath(t *testing.T) {
	t.Parallel()

	gw := newTestGateway(t, transportFunc(func(_ context.Context, _ Descriptor) (*RawResult, error) {
		return &RawResult{Status: http.StatusUnauthorized, Body: []byte(`{"detail":"Not authenticated"}`)}, nil
	}))
	gw.Session().SetSession("tok-123")

	_, err := gw.Get(context.Background(), "/api/auth/verify")
	if !IsAuth(err) {
		t.Fatalf("Get() error = %v, want auth error", err)
	}
	if gw.Session().HasSession() {
		t.Error("session kept after auth failure on an auth path")
	}
}

func TestGatewayAuthErrorKeepsSessionOnDataPath(t *testing.T) {
	t.Parallel()

	gw := newTestGateway(t, transportFunc(func(_ context.Context, _ Descriptor) (*RawResult, error) {
		return &RawResult{Status: http.StatusForbidden, Body: []byte(`{"detail":"Invalid session"}`)}, nil
	}))
	gw.Session().SetSession("tok-123")

	_, err := gw.Get(context.Background(), "/api/clients/list")
	if !IsAuth(err) {
		t.Fatalf("Get() error = %v, want auth error", err)
	}
	if !gw.Session().HasSession() {
		t.Error("session cleared by auth failure on a non-auth path")
	}
}

func TestGatewayNotFoundPropagates(t *testing.T) {
	t.Parallel()

	gw := newTestGateway(t, transportFunc(func(_ context.Context, _ Descriptor) (*RawResult, error) {
		return &RawResult{Status: http.StatusNotFound, Body: []byte(`{"detail":"Client not found"}`)}, nil
	}))

	_, err := gw.Get(context.Background(), "/api/clients/c-404")
	if !IsNotFound(err) {
		t.Fatalf("Get() error = %v, want not-found error", err)
	}

	var ge *Error
	if !errors.As(err, &ge) {
		t.Fatal("error is not a *gateway.Error")
	}
	if ge.Status != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", ge.Status)
	}
	if ge.Path != "/api/clients/c-404" {
		t.Errorf("Path = %q, want the request path", ge.Path)
	}
}

func TestGatewayInvalidatePattern(t *testing.T) {
	t.Parallel()

	var calls int32
	gw := newTestGateway(t, transportFunc(func(_ context.Context, _ Descriptor) (*RawResult, error) {
		atomic.AddInt32(&calls, 1)
		return &RawResult{Status: http.StatusOK, Body: []byte(`[]`)}, nil
	}))

	ctx := context.Background()
	if _, err := gw.Get(ctx, "/api/alerts/list"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if _, err := gw.Get(ctx, "/api/clients/list"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	gw.Invalidate("/alerts")

	// The alerts view refetches, the clients view is still cached.
	if _, err := gw.Get(ctx, "/api/alerts/list"); err != nil {
		t.Fatalf("Get() after invalidate error = %v", err)
	}
	if _, err := gw.Get(ctx, "/api/clients/list"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("transport calls = %d, want 3", got)
	}
}

func TestGatewayContextCancellationPropagates(t *testing.T) {
	t.Parallel()

	gw := newTestGateway(t, transportFunc(func(ctx context.Context, _ Descriptor) (*RawResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	start := time.Now()
	_, err := gw.Get(ctx, "/api/clients/list")
	if err == nil {
		t.Fatal("Get() succeeded, want error after cancellation")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Get() took %v, cancellation should be prompt", elapsed)
	}
}

func TestGatewayTTLForPath(t *testing.T) {
	t.Parallel()

	gw := newTestGateway(t, transportFunc(func(_ context.Context, _ Descriptor) (*RawResult, error) {
		return &RawResult{Status: http.StatusOK, Body: []byte(`[]`)}, nil
	}))

	tests := []struct {
		path string
		want time.Duration
	}{
		{"/api/clients/active", gw.ttls.Fast},
		{"/api/power/readings", gw.ttls.Fast},
		{"/api/alerts/list", gw.ttls.Fast},
		{"/api/starlink/status", gw.ttls.Fast},
		{"/api/stats/overview", gw.ttls.Slow},
		{"/api/system/info", gw.ttls.Slow},
		{"/api/maritime/vessels", gw.ttls.Default},
		{"/api/clients/list", gw.ttls.Default},
	}

	for _, tt := range tests {
		if got := gw.ttlForPath(tt.path); got != tt.want {
			t.Errorf("ttlForPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
