// Aurora Sensa - Telemetry Gateway for the Aurora Monitoring Backend
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub002

/*
Package gateway implements the request gateway for the Aurora monitoring
backend.

Every call from the typed client (internal/aurora) funnels through one
*Gateway, which layers the following around the raw HTTP exchange:

  - Session gating: a credential gate that warns (never blocks) on
    credential-less requests and clears the session when an auth endpoint
    reports an authentication failure.
  - Read-through GET caching with per-category freshness windows and
    substring-pattern invalidation after mutations.
  - Coalescing of concurrent identical GETs into one in-flight execution.
  - System-wide concurrency capping via a weighted semaphore, plus an
    optional outbound rate limiter.
  - Circuit breaker protection around the transport (sony/gobreaker).
  - Retry with exponential backoff for transient failures, bounded by a
    maximum attempt count.
  - Response normalization: raw results are classified as success, auth
    error, not-found, retryable-transient, or fatal, preferring structured
    status codes and falling back to message-text markers.
  - Graceful degradation: timeouts and upstream 500s resolve to a
    shape-appropriate empty value (array/object/null keyed on the path)
    instead of an error, so dashboard rendering code needs no null-checks
    while the backend is degraded.

The transport is pluggable behind a single-method interface: DirectTransport
talks to the Aurora host itself, RelayTransport posts request envelopes to a
server-side relay that attaches credentials and forwards upstream. The
gateway's contract is identical over either.

Error taxonomy (see Error and Kind): authentication failures carry status
401, not-found carries 404 and is deliberately non-fatal, transient errors
surface only after the retry budget is exhausted, everything else is fatal.
*/
package gateway
