// Aurora Sensa - Telemetry Gateway for the Aurora Monitoring Backend
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub002

package aurora

import "time"

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the session credential issued on successful login.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      Profile   `json:"user"`
}

// VerifyResponse reports whether the current session is valid.
type VerifyResponse struct {
	Valid    bool   `json:"valid"`
	Username string `json:"username,omitempty"`
}

// Profile is the authenticated user's profile.
type Profile struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// SystemInfo describes the Aurora backend installation.
type SystemInfo struct {
	Version   string    `json:"version"`
	Hostname  string    `json:"hostname"`
	StartedAt time.Time `json:"started_at"`
	Uptime    float64   `json:"uptime_seconds"`
}

// StatsOverview is the aggregate dashboard summary.
type StatsOverview struct {
	ActiveClients int            `json:"active_clients"`
	TotalSensors  int            `json:"total_sensors"`
	OpenAlerts    int            `json:"open_alerts"`
	ReadingsToday int64          `json:"readings_today"`
	BySubsystem   map[string]int `json:"by_subsystem,omitempty"`
}

// FleetClient is a monitored client/device in the fleet.
type FleetClient struct {
	ID        string    `json:"id"`
	Hostname  string    `json:"hostname"`
	Address   string    `json:"address"`
	Online    bool      `json:"online"`
	LastSeen  time.Time `json:"last_seen"`
	Subsystem string    `json:"subsystem,omitempty"`
}

// Sensor is a registered sensor on a client.
type Sensor struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	Kind     string `json:"kind"` // power, thermal, arduino, ...
	Name     string `json:"name"`
	Enabled  bool   `json:"enabled"`
}

// Reading is a single sensor measurement. Power, thermal, and Arduino
// readings share this shape with subsystem-specific units.
type Reading struct {
	SensorID  string    `json:"sensor_id"`
	ClientID  string    `json:"client_id"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	Timestamp time.Time `json:"timestamp"`
}

// Vessel is an AIS maritime contact.
type Vessel struct {
	MMSI      string    `json:"mmsi"`
	Name      string    `json:"name,omitempty"`
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lon"`
	SpeedKn   float64   `json:"speed_knots"`
	CourseDeg float64   `json:"course_deg"`
	LastSeen  time.Time `json:"last_seen"`
}

// Station is an AIS or APRS receiving station.
type Station struct {
	Callsign  string    `json:"callsign"`
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lon"`
	Packets   int64     `json:"packets"`
	LastHeard time.Time `json:"last_heard"`
}

// Beacon is an EPIRB distress beacon detection.
type Beacon struct {
	HexID      string    `json:"hex_id"`
	Latitude   float64   `json:"lat"`
	Longitude  float64   `json:"lon"`
	DetectedAt time.Time `json:"detected_at"`
}

// Aircraft is an ADS-B contact.
type Aircraft struct {
	ICAO       string    `json:"icao"`
	Callsign   string    `json:"callsign,omitempty"`
	Latitude   float64   `json:"lat"`
	Longitude  float64   `json:"lon"`
	AltitudeFt int       `json:"altitude_ft"`
	SpeedKn    float64   `json:"speed_knots"`
	LastSeen   time.Time `json:"last_seen"`
}

// StarlinkStatus is the dish's current state.
type StarlinkStatus struct {
	Connected      bool    `json:"connected"`
	DownlinkMbps   float64 `json:"downlink_mbps"`
	UplinkMbps     float64 `json:"uplink_mbps"`
	LatencyMs      float64 `json:"latency_ms"`
	ObstructionPct float64 `json:"obstruction_pct"`
}

// StarlinkStatistics is the dish's aggregate history.
type StarlinkStatistics struct {
	UptimePct    float64 `json:"uptime_pct"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	OutagesToday int     `json:"outages_today"`
	BytesRx      int64   `json:"bytes_rx"`
	BytesTx      int64   `json:"bytes_tx"`
}

// RFDevice is a LoRa, WiFi, or Bluetooth device seen by a scanner.
type RFDevice struct {
	Address  string    `json:"address"`
	Name     string    `json:"name,omitempty"`
	RSSI     int       `json:"rssi"`
	ClientID string    `json:"client_id"`
	LastSeen time.Time `json:"last_seen"`
}

// Alert is a raised alert instance.
type Alert struct {
	ID           string    `json:"id"`
	RuleID       string    `json:"rule_id"`
	Severity     string    `json:"severity"`
	Message      string    `json:"message"`
	RaisedAt     time.Time `json:"raised_at"`
	Acknowledged bool      `json:"acknowledged"`
}

// AlertRule defines when alerts are raised.
type AlertRule struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Subsystem string  `json:"subsystem"`
	Metric    string  `json:"metric"`
	Threshold float64 `json:"threshold"`
	Enabled   bool    `json:"enabled"`
}
