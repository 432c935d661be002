// Aurora Sensa - Telemetry Gateway for the Aurora Monitoring Backend
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub002

package relay

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tophatsecurity/aurorasensa-sub002/internal/logging"
	"github.com/tophatsecurity/aurorasensa-sub002/internal/validation"
)

// maxEnvelopeSize bounds the relay request body. Aurora mutation payloads
// are small JSON documents.
const maxEnvelopeSize = 1 << 20 // 1MB

// Envelope is the relay wire format: the logical request a gateway client
// wants forwarded to the Aurora backend. The relay attaches the upstream
// credential server-side so it never reaches the client.
type Envelope struct {
	Path          string          `json:"path" validate:"required,startswith=/"`
	Method        string          `json:"method" validate:"required,oneof=GET POST PUT PATCH DELETE"`
	Body          json.RawMessage `json:"body,omitempty"`
	SessionCookie string          `json:"sessionCookie,omitempty"`
}

// Handler forwards relay envelopes to the upstream Aurora backend.
type Handler struct {
	upstreamURL string
	apiKey      string
	client      *http.Client
}

// NewHandler creates a relay handler for the given upstream base URL. The
// API key is attached to every forwarded request.
func NewHandler(upstreamURL, apiKey string, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Handler{
		upstreamURL: strings.TrimRight(upstreamURL, "/"),
		apiKey:      apiKey,
		client:      &http.Client{Timeout: timeout},
	}
}

// Relay handles POST /v1/relay. It validates the envelope, forwards the
// request upstream with server-side credentials, and mirrors the upstream
// status and body back to the caller. Relay-side failures are reported as an
// {"error": ...} object so gateway clients can classify them.
func (h *Handler) Relay(w http.ResponseWriter, r *http.Request) {
	var envelope Envelope
	if err := json.NewDecoder(io.LimitReader(r.Body, maxEnvelopeSize)).Decode(&envelope); err != nil {
		respondError(w, http.StatusBadRequest, "invalid relay envelope: "+err.Error())
		return
	}

	if err := validation.ValidateStruct(envelope); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Refuse path escapes before they reach the upstream.
	if strings.Contains(envelope.Path, "..") {
		respondError(w, http.StatusBadRequest, "invalid path")
		return
	}

	var reqBody io.Reader = http.NoBody
	if len(envelope.Body) > 0 {
		reqBody = bytes.NewReader(envelope.Body)
	}

	req, err := http.NewRequestWithContext(r.Context(), envelope.Method, h.upstreamURL+envelope.Path, reqBody)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid upstream request: "+err.Error())
		return
	}

	req.Header.Set("Accept", "application/json")
	if len(envelope.Body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if h.apiKey != "" {
		req.Header.Set("x-api-key", h.apiKey)
	}
	if envelope.SessionCookie != "" {
		req.Header.Set("Authorization", "Bearer "+envelope.SessionCookie)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		logging.Warn().Err(err).
			Str("method", envelope.Method).
			Str("path", envelope.Path).
			Msg("Upstream request failed")
		respondError(w, http.StatusBadGateway, "upstream request failed: "+err.Error())
		return
	}
	defer resp.Body.Close()

	// Mirror the upstream response. The gateway classifier interprets the
	// status and body; the relay stays neutral.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		logging.Warn().Err(err).Str("path", envelope.Path).Msg("Copying upstream body failed")
	}
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// respondError writes an {"error": ...} object. The shape matches what the
// gateway's classifier expects from a failing relay.
func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return
	}
	_, _ = w.Write(payload)
}
