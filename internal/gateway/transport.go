// Aurora Sensa - Telemetry Gateway for the Aurora Monitoring Backend
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub002

package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// maxBodySize bounds how much of a response body is read. Aurora payloads
// are JSON and comfortably below this; the limit prevents unbounded memory
// allocation on misbehaving responses.
const maxBodySize = 8 << 20 // 8MB

// Descriptor identifies a logical request: path, HTTP method, optional JSON
// body. Method+path is the cache/coalescing key for GETs (query parameters
// ride in the path).
type Descriptor struct {
	Method string
	Path   string
	Body   []byte
}

// Key returns the cache/de-duplication key for the descriptor.
func (d Descriptor) Key() string {
	return d.Method + " " + d.Path
}

// RawResult is the transport-level response before classification.
type RawResult struct {
	Status int
	Body   []byte
}

// Transport sends a request to the Aurora backend. The gateway's behavior is
// identical regardless of which transport is underneath; this is the seam
// where direct-call and relay variants plug in.
type Transport interface {
	Send(ctx context.Context, desc Descriptor) (*RawResult, error)
}

// TokenSource supplies the current session credential for outgoing requests.
type TokenSource func() string

// readLimitedBody reads at most maxBodySize bytes of the response body.
func readLimitedBody(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

// DirectTransport calls the Aurora backend host directly over HTTPS with
// JSON request/response bodies.
type DirectTransport struct {
	baseURL string
	apiKey  string
	token   TokenSource
	client  *http.Client
}

// NewDirectTransport creates a transport against the given base host. The
// token source may be nil when no session credential is ever attached.
func NewDirectTransport(baseURL, apiKey string, token TokenSource, timeout time.Duration) *DirectTransport {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DirectTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// Send issues the HTTP request and returns the raw status and body.
// Non-2xx statuses are returned in the RawResult, not as errors; the
// classifier owns their interpretation.
func (t *DirectTransport) Send(ctx context.Context, desc Descriptor) (*RawResult, error) {
	var reqBody io.Reader = http.NoBody
	if len(desc.Body) > 0 {
		reqBody = bytes.NewReader(desc.Body)
	}

	req, err := http.NewRequestWithContext(ctx, desc.Method, t.baseURL+desc.Path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if len(desc.Body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if t.apiKey != "" {
		req.Header.Set("x-api-key", t.apiKey)
	}
	if t.token != nil {
		if token := t.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readLimitedBody(resp.Body)
	if err != nil {
		return nil, err
	}

	return &RawResult{Status: resp.StatusCode, Body: body}, nil
}

// relayEnvelope is the request body forwarded to the relay function.
type relayEnvelope struct {
	Path          string          `json:"path"`
	Method        string          `json:"method"`
	Body          json.RawMessage `json:"body,omitempty"`
	SessionCookie string          `json:"sessionCookie,omitempty"`
}

// RelayTransport routes requests through a server-side relay that forwards
// {path, method, body, sessionCookie} to the upstream and attaches
// credentials server-side. Used where browser/network policy blocks direct
// calls to the Aurora host.
type RelayTransport struct {
	relayURL string
	token    TokenSource
	client   *http.Client
}

// NewRelayTransport creates a transport that posts envelopes to relayURL.
func NewRelayTransport(relayURL string, token TokenSource, timeout time.Duration) *RelayTransport {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RelayTransport{
		relayURL: relayURL,
		token:    token,
		client:   &http.Client{Timeout: timeout},
	}
}

// Send wraps the descriptor in a relay envelope and posts it. The relay
// mirrors the upstream status and body; relay-side failures come back as an
// {"error": ...} envelope which the classifier resolves.
func (t *RelayTransport) Send(ctx context.Context, desc Descriptor) (*RawResult, error) {
	envelope := relayEnvelope{
		Path:   desc.Path,
		Method: desc.Method,
		Body:   desc.Body,
	}
	if t.token != nil {
		envelope.SessionCookie = t.token()
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("marshal relay envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.relayURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readLimitedBody(resp.Body)
	if err != nil {
		return nil, err
	}

	return &RawResult{Status: resp.StatusCode, Body: body}, nil
}
