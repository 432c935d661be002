// Aurora Sensa - Telemetry Gateway for the Aurora Monitoring Backend
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub002

package aurora

import (
	"fmt"
	"net/url"
)

// apiRequest holds query parameters for an Aurora API request.
type apiRequest struct {
	path   string
	params map[string]string
}

// newAPIRequest creates a new API request for the given endpoint path.
func newAPIRequest(path string) *apiRequest {
	return &apiRequest{
		path:   path,
		params: make(map[string]string),
	}
}

// addParam adds a parameter to the request
func (r *apiRequest) addParam(key, value string) *apiRequest {
	if value != "" {
		r.params[key] = value
	}
	return r
}

// addIntParam adds an integer parameter to the request (only if > 0)
func (r *apiRequest) addIntParam(key string, value int) *apiRequest {
	if value > 0 {
		r.params[key] = fmt.Sprintf("%d", value)
	}
	return r
}

// buildPath constructs the endpoint path with the query string appended.
func (r *apiRequest) buildPath() string {
	if len(r.params) == 0 {
		return r.path
	}

	params := url.Values{}
	for key, value := range r.params {
		params.Set(key, value)
	}

	return fmt.Sprintf("%s?%s", r.path, params.Encode())
}
