// Aurora Sensa - Telemetry Gateway for the Aurora Monitoring Backend
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub002

package gateway

import (
	"context"
	"time"

	"github.com/tophatsecurity/aurorasensa-sub002/internal/metrics"
)

// retrier re-runs an operation while the classifier keeps answering
// outcomeRetry, with exponential backoff between attempts.
type retrier struct {
	maxAttempts int
	baseDelay   time.Duration
}

// do runs fn up to maxAttempts times. The delay before retry n (1-indexed)
// is baseDelay*2^(n-1), so a 3-attempt budget waits baseDelay then
// 2*baseDelay. Waits are cancellable through ctx.
//
// When the budget is exhausted the last outcome is returned with its retry
// verdict downgraded to a thrown transient error.
func (r retrier) do(ctx context.Context, fn func() outcome) outcome {
	var last outcome

	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := r.baseDelay * time.Duration(1<<uint(attempt-1))
			metrics.GatewayRetriesTotal.Inc()

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return outcome{kind: outcomeError, err: &Error{
					Kind:    KindFatal,
					Message: ctx.Err().Error(),
				}}
			}
		}

		last = fn()
		if last.kind != outcomeRetry {
			return last
		}
	}

	// Out of attempts: surface the last transient classification.
	if last.err == nil {
		last.err = transientError("", "retry budget exhausted")
	}
	return outcome{kind: outcomeError, err: last.err}
}
