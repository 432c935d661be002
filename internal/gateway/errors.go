// Aurora Sensa - Telemetry Gateway for the Aurora Monitoring Backend
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub002

package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies a gateway error. The classification drives both the retry
// controller and the caller's error handling: auth errors may clear the
// session, not-found errors are non-fatal and suppressed from error-level
// logging, transient errors are retried and then degraded, fatal errors
// propagate as-is.
type Kind int

const (
	// KindAuth marks an authentication failure (session invalid/expired).
	KindAuth Kind = iota + 1

	// KindNotFound marks an absent resource. Non-fatal; callers are
	// expected to handle 404 distinctly from other errors.
	KindNotFound

	// KindTransient marks a network/availability failure that was retried
	// until attempts ran out.
	KindTransient

	// KindFatal marks an unclassified backend error.
	KindFatal
)

// String returns the kind name used in logs and metrics labels.
func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth_error"
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error is the classified error type returned by the gateway.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Path    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("aurora %s (%d): %s", e.Kind, e.Status, e.Message)
}

// IsAuth reports whether err is a gateway authentication error.
func IsAuth(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == KindAuth
}

// IsNotFound reports whether err is a gateway not-found error.
func IsNotFound(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == KindNotFound
}

// IsTransient reports whether err is a gateway transient error, i.e. the
// retry budget was exhausted without a definitive answer.
func IsTransient(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == KindTransient
}
