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

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
)

// outcomeKind is the normalized result of a single transport exchange.
type outcomeKind int

const (
	// outcomeSuccess carries the response payload.
	outcomeSuccess outcomeKind = iota

	// outcomeRetry signals the retry controller to back off and retry.
	outcomeRetry

	// outcomeEmpty resolves to a shape-appropriate empty value instead of
	// retrying or propagating: timeouts (retrying compounds latency on an
	// already-slow backend) and upstream 500s (not expected to self-heal
	// within the retry window).
	outcomeEmpty

	// outcomeError propagates a classified *Error to the caller.
	outcomeError
)

// outcome is the classifier's verdict on one raw transport result.
type outcome struct {
	kind    outcomeKind
	payload json.RawMessage
	err     *Error
}

// Marker tables for free-text classification. Structured status codes are
// preferred; these cover transports that only surface error strings.
var (
	retryMarkers = []string{
		"503",
		"504",
		"boot_error",
		"function failed to start",
		"network",
		"timeout",
		"unavailable",
		"retryable",
	}

	authMarkers = []string{
		"not authenticated",
		"invalid session",
		"provide x-api-key",
	}

	transientBodyMarkers = []string{
		"temporarily unavailable",
		"timeout",
		"internal server error",
	}
)

// detailEnvelope is the upstream error shape {"detail": "..."}.
type detailEnvelope struct {
	Detail string `json:"detail"`
}

// errorEnvelope is the relay/edge error shape {"error": "...", "retryable": bool}.
type errorEnvelope struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

// classify normalizes a raw transport result into an outcome. Priority:
//
//  1. Transport-level timeouts resolve to an empty value.
//  2. Transport-level errors with a 500 marker resolve to an empty value;
//     other retry markers signal a backoff-and-retry.
//  3. Structured HTTP status codes (auth, not-found, rate-limit, upstream
//     availability).
//  4. Body envelopes: {"detail": ...} for upstream errors, {"error": ...}
//     for relay failures.
//  5. Anything else is a success carrying the body.
func classify(path string, raw *RawResult, transportErr error) outcome {
	if transportErr != nil {
		return classifyTransportError(path, transportErr)
	}

	if out, done := classifyStatus(path, raw); done {
		return out
	}

	if out, done := classifyEnvelope(path, raw.Body); done {
		return out
	}

	return outcome{kind: outcomeSuccess, payload: raw.Body}
}

// classifyTransportError handles failures where no HTTP response exists,
// matching on error text as a fallback for free-text-only transports.
func classifyTransportError(path string, err error) outcome {
	// A request-level timeout is never retried; see outcomeEmpty.
	if errors.Is(err, context.DeadlineExceeded) {
		return outcome{kind: outcomeEmpty}
	}

	// Context cancellation is the caller's decision, not a backend failure.
	if errors.Is(err, context.Canceled) {
		return outcome{kind: outcomeError, err: &Error{
			Kind:    KindFatal,
			Status:  0,
			Message: err.Error(),
			Path:    path,
		}}
	}

	// An open breaker means the backend is currently considered down;
	// treat like any other availability failure.
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return outcome{kind: outcomeRetry, err: transientError(path, err.Error())}
	}

	msg := strings.ToLower(err.Error())

	if strings.Contains(msg, "timeout") {
		return outcome{kind: outcomeEmpty}
	}

	// An upstream 500 surfaced as transport text is degraded immediately.
	if strings.Contains(msg, "500") || strings.Contains(msg, "internal server error") {
		return outcome{kind: outcomeEmpty}
	}

	for _, marker := range retryMarkers {
		if strings.Contains(msg, marker) {
			return outcome{kind: outcomeRetry, err: transientError(path, err.Error())}
		}
	}

	return outcome{kind: outcomeError, err: &Error{
		Kind:    KindFatal,
		Status:  0,
		Message: err.Error(),
		Path:    path,
	}}
}

// classifyStatus applies structured status-code rules. Returns done=false
// for statuses whose meaning depends on the body envelope.
func classifyStatus(path string, raw *RawResult) (outcome, bool) {
	switch raw.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		msg := envelopeMessage(raw.Body)
		if msg == "" {
			msg = fmt.Sprintf("authentication failed (HTTP %d)", raw.Status)
		}
		return outcome{kind: outcomeError, err: &Error{
			Kind:    KindAuth,
			Status:  http.StatusUnauthorized,
			Message: msg,
			Path:    path,
		}}, true

	case http.StatusNotFound:
		msg := envelopeMessage(raw.Body)
		if msg == "" {
			msg = "resource not found"
		}
		return outcome{kind: outcomeError, err: &Error{
			Kind:    KindNotFound,
			Status:  http.StatusNotFound,
			Message: msg,
			Path:    path,
		}}, true

	case http.StatusRequestTimeout:
		return outcome{kind: outcomeEmpty}, true

	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return outcome{
			kind: outcomeRetry,
			err:  transientError(path, fmt.Sprintf("HTTP %d from backend", raw.Status)),
		}, true
	}

	if raw.Status >= http.StatusInternalServerError {
		return outcome{kind: outcomeEmpty}, true
	}

	return outcome{}, false
}

// classifyEnvelope inspects the body for {"detail"} and {"error"} envelopes.
// Applies to 2xx responses (edge functions report errors in-band) and to
// unhandled 4xx statuses.
func classifyEnvelope(path string, body []byte) (outcome, bool) {
	if !looksLikeObject(body) {
		return outcome{}, false
	}

	var detail detailEnvelope
	if err := json.Unmarshal(body, &detail); err == nil && detail.Detail != "" {
		return classifyDetail(path, detail.Detail), true
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		return classifyErrorEnvelope(path, envelope), true
	}

	return outcome{}, false
}

// classifyDetail maps an upstream {"detail": ...} message to a verdict.
func classifyDetail(path, detail string) outcome {
	lower := strings.ToLower(detail)

	for _, marker := range authMarkers {
		if strings.Contains(lower, marker) {
			return outcome{kind: outcomeError, err: &Error{
				Kind:    KindAuth,
				Status:  http.StatusUnauthorized,
				Message: detail,
				Path:    path,
			}}
		}
	}

	if isNotFoundMessage(lower) {
		return outcome{kind: outcomeError, err: &Error{
			Kind:    KindNotFound,
			Status:  http.StatusNotFound,
			Message: detail,
			Path:    path,
		}}
	}

	return outcome{kind: outcomeError, err: &Error{
		Kind:    KindFatal,
		Status:  http.StatusInternalServerError,
		Message: detail,
		Path:    path,
	}}
}

// classifyErrorEnvelope maps a relay {"error": ...} envelope to a verdict.
// Explicitly retryable or transient-sounding failures degrade to empty.
func classifyErrorEnvelope(path string, envelope errorEnvelope) outcome {
	if envelope.Retryable {
		return outcome{kind: outcomeEmpty}
	}

	lower := strings.ToLower(envelope.Error)
	for _, marker := range transientBodyMarkers {
		if strings.Contains(lower, marker) {
			return outcome{kind: outcomeEmpty}
		}
	}

	return outcome{kind: outcomeError, err: &Error{
		Kind:    KindFatal,
		Status:  http.StatusInternalServerError,
		Message: envelope.Error,
		Path:    path,
	}}
}

// isNotFoundMessage matches "not found" and "no <thing> found" phrasings.
func isNotFoundMessage(lower string) bool {
	if strings.Contains(lower, "not found") {
		return true
	}
	if idx := strings.Index(lower, "no "); idx >= 0 {
		return strings.Contains(lower[idx:], "found")
	}
	return false
}

// envelopeMessage extracts a detail or error message when present.
func envelopeMessage(body []byte) string {
	if !looksLikeObject(body) {
		return ""
	}
	var detail detailEnvelope
	if err := json.Unmarshal(body, &detail); err == nil && detail.Detail != "" {
		return detail.Detail
	}
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		return envelope.Error
	}
	return ""
}

// looksLikeObject reports whether the body is a JSON object.
func looksLikeObject(body []byte) bool {
	for _, b := range body {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}

// transientError builds the KindTransient error thrown when the retry budget
// is exhausted.
func transientError(path, msg string) *Error {
	return &Error{
		Kind:    KindTransient,
		Status:  http.StatusServiceUnavailable,
		Message: msg,
		Path:    path,
	}
}
