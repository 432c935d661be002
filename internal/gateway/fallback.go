// Aurora Sensa - Telemetry Gateway for the Aurora Monitoring Backend
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub002

package gateway

import (
	"strings"

	"github.com/goccy/go-json"
)

// listMarkers are path substrings identifying collection endpoints. A
// degraded response for these yields an empty array so dashboard tables and
// charts render without null-checks.
var listMarkers = []string{
	"/list",
	"/vessels",
	"/stations",
	"/beacons",
	"/aircraft",
	"/devices",
	"/active",
	"/readings",
	"/rules",
	"/profiles",
	"/violations",
	"/baselines",
	"/clients",
	"/sensors",
	"/alerts",
}

// objectMarkers identify aggregate endpoints that yield an empty object.
var objectMarkers = []string{
	"/stats",
	"/statistics",
	"/overview",
}

// emptyValueFor returns the shape-appropriate empty JSON value for a degraded
// request, plus the shape name for metrics. List-like paths get an empty
// array, aggregate paths an empty object, everything else JSON null.
//
// This deliberately masks transient backend failures behind empty data: the
// dashboard stays renderable while the backend is degraded.
func emptyValueFor(path string) (json.RawMessage, string) {
	for _, marker := range listMarkers {
		if strings.Contains(path, marker) {
			return json.RawMessage("[]"), "array"
		}
	}
	for _, marker := range objectMarkers {
		if strings.Contains(path, marker) {
			return json.RawMessage("{}"), "object"
		}
	}
	return json.RawMessage("null"), "null"
}
