// Aurora Sensa - Telemetry Gateway for the Aurora Monitoring Backend
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub002

package aurora

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tophatsecurity/aurorasensa-sub002/internal/gateway"
	"github.com/tophatsecurity/aurorasensa-sub002/internal/logging"
)

// Client is the typed Aurora API client. All requests flow through the
// gateway, which owns caching, retries, coalescing, and degradation; the
// client's job is endpoint knowledge and decoding.
type Client struct {
	gw *gateway.Gateway
}

// NewClient creates an Aurora client over the given gateway.
func NewClient(gw *gateway.Gateway) *Client {
	return &Client{gw: gw}
}

// Gateway exposes the underlying gateway for cache and session management.
func (c *Client) Gateway() *gateway.Gateway {
	return c.gw
}

// call fetches a path through the gateway and decodes the payload into T.
// Degraded payloads ([], {}, null) decode into zero values, so callers see
// empty results rather than errors when the backend is struggling.
func call[T any](ctx context.Context, c *Client, method, path string, body interface{}) (T, error) {
	var out T

	raw, err := c.gw.Call(ctx, method, path, body)
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s %s: %w", method, path, err)
	}

	return out, nil
}

// Login authenticates against Aurora and seeds the gateway session with the
// returned token, so subsequent requests carry it.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	resp, err := call[*LoginResponse](ctx, c, "POST", EndpointAuthLogin, LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	if resp != nil && resp.Token != "" {
		c.gw.Session().SetSession(resp.Token)
		logging.Info().Str("user", username).Msg("Authenticated with Aurora backend")
	}

	return resp, nil
}

// Logout ends the Aurora session. The local token is cleared even if the
// backend call fails; a stale server-side session is harmless, a stale local
// token is not.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.gw.Post(ctx, EndpointAuthLogout, nil)
	c.gw.Session().ClearSession()
	return err
}

// Verify checks whether the current session token is still accepted.
func (c *Client) Verify(ctx context.Context) (*VerifyResponse, error) {
	return call[*VerifyResponse](ctx, c, "GET", EndpointAuthVerify, nil)
}

// Me returns the profile of the authenticated user.
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	return call[*Profile](ctx, c, "GET", EndpointAuthMe, nil)
}

// GetSystemInfo returns backend version and host information.
func (c *Client) GetSystemInfo(ctx context.Context) (*SystemInfo, error) {
	return call[*SystemInfo](ctx, c, "GET", EndpointSystemInfo, nil)
}

// GetStatsOverview returns the aggregate dashboard counters.
func (c *Client) GetStatsOverview(ctx context.Context) (*StatsOverview, error) {
	return call[*StatsOverview](ctx, c, "GET", EndpointStatsOverview, nil)
}

// ListClients returns all registered fleet clients.
func (c *Client) ListClients(ctx context.Context) ([]FleetClient, error) {
	return call[[]FleetClient](ctx, c, "GET", EndpointClientsList, nil)
}

// ListActiveClients returns clients that reported within the liveness window.
func (c *Client) ListActiveClients(ctx context.Context) ([]FleetClient, error) {
	return call[[]FleetClient](ctx, c, "GET", EndpointClientsActive, nil)
}

// GetClient returns a single fleet client by ID.
func (c *Client) GetClient(ctx context.Context, clientID string) (*FleetClient, error) {
	return call[*FleetClient](ctx, c, "GET", fmt.Sprintf(endpointClientFmt, clientID), nil)
}

// ListSensors returns the sensor inventory across the fleet.
func (c *Client) ListSensors(ctx context.Context) ([]Sensor, error) {
	return call[[]Sensor](ctx, c, "GET", EndpointSensorsList, nil)
}

// GetPowerReadings returns recent power telemetry. A zero since or limit
// omits the parameter and accepts the backend default.
func (c *Client) GetPowerReadings(ctx context.Context, since string, limit int) ([]Reading, error) {
	path := newAPIRequest(EndpointPowerReadings).
		addParam("since", since).
		addIntParam("limit", limit).
		buildPath()
	return call[[]Reading](ctx, c, "GET", path, nil)
}

// GetThermalReadings returns recent thermal telemetry.
func (c *Client) GetThermalReadings(ctx context.Context, since string, limit int) ([]Reading, error) {
	path := newAPIRequest(EndpointThermalReadings).
		addParam("since", since).
		addIntParam("limit", limit).
		buildPath()
	return call[[]Reading](ctx, c, "GET", path, nil)
}

// GetArduinoReadings returns recent readings from Arduino-attached sensors.
func (c *Client) GetArduinoReadings(ctx context.Context, since string, limit int) ([]Reading, error) {
	path := newAPIRequest(EndpointArduinoReadings).
		addParam("since", since).
		addIntParam("limit", limit).
		buildPath()
	return call[[]Reading](ctx, c, "GET", path, nil)
}

// GetVessels returns maritime vessels tracked via AIS.
func (c *Client) GetVessels(ctx context.Context) ([]Vessel, error) {
	return call[[]Vessel](ctx, c, "GET", EndpointMaritimeVessels, nil)
}

// GetAISStations returns known AIS base stations.
func (c *Client) GetAISStations(ctx context.Context) ([]Station, error) {
	return call[[]Station](ctx, c, "GET", EndpointAISStations, nil)
}

// GetAPRSStations returns APRS stations heard by the fleet.
func (c *Client) GetAPRSStations(ctx context.Context) ([]Station, error) {
	return call[[]Station](ctx, c, "GET", EndpointAPRSStations, nil)
}

// GetEPIRBBeacons returns distress beacon detections.
func (c *Client) GetEPIRBBeacons(ctx context.Context) ([]Beacon, error) {
	return call[[]Beacon](ctx, c, "GET", EndpointEPIRBBeacons, nil)
}

// GetAircraft returns aircraft tracked via ADS-B.
func (c *Client) GetAircraft(ctx context.Context) ([]Aircraft, error) {
	return call[[]Aircraft](ctx, c, "GET", EndpointADSBAircraft, nil)
}

// GetStarlinkStatus returns the current dish state.
func (c *Client) GetStarlinkStatus(ctx context.Context) (*StarlinkStatus, error) {
	return call[*StarlinkStatus](ctx, c, "GET", EndpointStarlinkStatus, nil)
}

// GetStarlinkStatistics returns aggregate dish history.
func (c *Client) GetStarlinkStatistics(ctx context.Context) (*StarlinkStatistics, error) {
	return call[*StarlinkStatistics](ctx, c, "GET", EndpointStarlinkStatistics, nil)
}

// ListLoraDevices returns LoRa devices seen by the fleet scanners.
func (c *Client) ListLoraDevices(ctx context.Context) ([]RFDevice, error) {
	return call[[]RFDevice](ctx, c, "GET", EndpointLoraDevices, nil)
}

// ListWifiDevices returns WiFi devices seen by the fleet scanners.
func (c *Client) ListWifiDevices(ctx context.Context) ([]RFDevice, error) {
	return call[[]RFDevice](ctx, c, "GET", EndpointWifiDevices, nil)
}

// ListBluetoothDevices returns Bluetooth devices seen by the fleet scanners.
func (c *Client) ListBluetoothDevices(ctx context.Context) ([]RFDevice, error) {
	return call[[]RFDevice](ctx, c, "GET", EndpointBluetoothDevices, nil)
}

// ListAlerts returns alerts, optionally filtered by status.
func (c *Client) ListAlerts(ctx context.Context, status string, limit int) ([]Alert, error) {
	path := newAPIRequest(EndpointAlertsList).
		addParam("status", status).
		addIntParam("limit", limit).
		buildPath()
	return call[[]Alert](ctx, c, "GET", path, nil)
}

// GetAlertRules returns the configured alert rules.
func (c *Client) GetAlertRules(ctx context.Context) ([]AlertRule, error) {
	return call[[]AlertRule](ctx, c, "GET", EndpointAlertsRules, nil)
}

// AcknowledgeAlert marks an alert acknowledged and drops cached alert views
// so the next read reflects the change.
func (c *Client) AcknowledgeAlert(ctx context.Context, alertID string) error {
	_, err := c.gw.Post(ctx, fmt.Sprintf(endpointAlertAcknowledgeFmt, alertID), nil)
	if err != nil {
		return err
	}
	c.gw.Invalidate("/alerts")
	return nil
}

// UpdateAlertRule replaces an alert rule and invalidates cached rule views.
func (c *Client) UpdateAlertRule(ctx context.Context, ruleID string, rule AlertRule) error {
	_, err := c.gw.Put(ctx, fmt.Sprintf(endpointAlertRuleFmt, ruleID), rule)
	if err != nil {
		return err
	}
	c.gw.Invalidate("/alerts")
	return nil
}
