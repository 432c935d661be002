// Aurora Sensa - Telemetry Gateway for the Aurora Monitoring Backend
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub002

package aurora

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tophatsecurity/aurorasensa-sub002/internal/gateway"
)

// newTestClient wires a client against a fake Aurora backend.
func newTestClient(t *testing.T, handler http.Handler) (*Client, *int32) {
	t.Helper()

	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)

	gate := gateway.NewGate(gateway.NewMemoryTokenStore())
	transport := gateway.NewDirectTransport(server.URL, "key-test", gate.Token, 5*time.Second)

	gw, err := gateway.New(gateway.Options{
		Transport:      transport,
		Gate:           gate,
		MaxAttempts:    2,
		RetryBaseDelay: time.Millisecond,
		DisableBreaker: true,
	})
	if err != nil {
		t.Fatalf("gateway.New() error = %v", err)
	}
	t.Cleanup(gw.Close)

	return NewClient(gw), &hits
}

func TestClientLoginSeedsSession(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != EndpointAuthLogin || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode login request: %v", err)
		}
		if req.Username != "operator" {
			t.Errorf("Username = %q, want operator", req.Username)
		}

		_ = json.NewEncoder(w).Encode(LoginResponse{Token: "session-token-1"})
	}))

	resp, err := client.Login(context.Background(), "operator", "hunter2")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if resp.Token != "session-token-1" {
		t.Errorf("Token = %q, want session-token-1", resp.Token)
	}
	if !client.Gateway().Session().HasSession() {
		t.Error("session not seeded after login")
	}
	if client.Gateway().Session().Token() != "session-token-1" {
		t.Errorf("stored token = %q", client.Gateway().Session().Token())
	}
}

func TestClientLogoutClearsSessionEvenOnFailure(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	client.Gateway().Session().SetSession("stale-token")

	_ = client.Logout(context.Background())

	if client.Gateway().Session().HasSession() {
		t.Error("local session kept after Logout")
	}
}

func TestClientListClients(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != EndpointClientsList {
			t.Errorf("path = %s, want %s", r.URL.Path, EndpointClientsList)
		}
		if got := r.Header.Get("x-api-key"); got != "key-test" {
			t.Errorf("x-api-key = %q, want key-test", got)
		}
		_, _ = w.Write([]byte(`[{"id":"c-1","hostname":"buoy-1"},{"id":"c-2","hostname":"buoy-2"}]`))
	}))
	client.Gateway().Session().SetSession("tok")

	clients, err := client.ListClients(context.Background())
	if err != nil {
		t.Fatalf("ListClients() error = %v", err)
	}
	if len(clients) != 2 {
		t.Fatalf("len(clients) = %d, want 2", len(clients))
	}
	if clients[0].ID != "c-1" || clients[1].Hostname != "buoy-2" {
		t.Errorf("decoded clients = %+v", clients)
	}
}

func TestClientGetClientNotFound(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Client not found"}`))
	}))
	client.Gateway().Session().SetSession("tok")

	_, err := client.GetClient(context.Background(), "c-404")
	if !gateway.IsNotFound(err) {
		t.Errorf("GetClient() error = %v, want not-found", err)
	}
}

func TestClientReadingsQueryParameters(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != EndpointPowerReadings {
			t.Errorf("path = %s, want %s", r.URL.Path, EndpointPowerReadings)
		}
		if got := r.URL.Query().Get("limit"); got != "25" {
			t.Errorf("limit = %q, want 25", got)
		}
		if got := r.URL.Query().Get("since"); got != "2026-08-27T00:00:00Z" {
			t.Errorf("since = %q", got)
		}
		_, _ = w.Write([]byte(`[{"sensor_id":"psu-1","value":12.4}]`))
	}))
	client.Gateway().Session().SetSession("tok")

	readings, err := client.GetPowerReadings(context.Background(), "2026-08-27T00:00:00Z", 25)
	if err != nil {
		t.Fatalf("GetPowerReadings() error = %v", err)
	}
	if len(readings) != 1 || readings[0].SensorID != "psu-1" {
		t.Errorf("readings = %+v", readings)
	}
}

func TestClientDegradedBackendYieldsEmptySlice(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"worker crashed"}`))
	}))
	client.Gateway().Session().SetSession("tok")

	vessels, err := client.GetVessels(context.Background())
	if err != nil {
		t.Fatalf("GetVessels() error = %v, degraded reads must not fail", err)
	}
	if len(vessels) != 0 {
		t.Errorf("vessels = %+v, want empty", vessels)
	}
}

func TestClientAcknowledgeAlertInvalidatesCache(t *testing.T) {
	t.Parallel()

	var listHits int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == EndpointAlertsList:
			atomic.AddInt32(&listHits, 1)
			_, _ = w.Write([]byte(`[{"id":"a-1","status":"open"}]`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/alerts/a-1/acknowledge":
			_, _ = w.Write([]byte(`{"acknowledged":true}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	client.Gateway().Session().SetSession("tok")

	ctx := context.Background()
	if _, err := client.ListAlerts(ctx, "", 0); err != nil {
		t.Fatalf("ListAlerts() error = %v", err)
	}
	// Second read is cached.
	if _, err := client.ListAlerts(ctx, "", 0); err != nil {
		t.Fatalf("ListAlerts() error = %v", err)
	}
	if got := atomic.LoadInt32(&listHits); got != 1 {
		t.Fatalf("list hits = %d before acknowledge, want 1", got)
	}

	if err := client.AcknowledgeAlert(ctx, "a-1"); err != nil {
		t.Fatalf("AcknowledgeAlert() error = %v", err)
	}

	// The acknowledge invalidated the cached alert views.
	if _, err := client.ListAlerts(ctx, "", 0); err != nil {
		t.Fatalf("ListAlerts() error = %v", err)
	}
	if got := atomic.LoadInt32(&listHits); got != 2 {
		t.Errorf("list hits = %d after acknowledge, want 2", got)
	}
}
