// Aurora Sensa - Telemetry Gateway for the Aurora Monitoring Backend
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub002

package aurora

// Logical Aurora REST paths, grouped by subsystem. The full upstream
// catalogue runs to several hundred paths; this file carries the subset the
// dashboard client exercises. The gateway is agnostic to these values.
const (
	// Authentication
	EndpointAuthLogin  = "/api/auth/login"
	EndpointAuthLogout = "/api/auth/logout"
	EndpointAuthVerify = "/api/auth/verify"
	EndpointAuthMe     = "/api/auth/me"

	// System
	EndpointSystemInfo    = "/api/system/info"
	EndpointStatsOverview = "/api/stats/overview"

	// Client fleet
	EndpointClientsList   = "/api/clients/list"
	EndpointClientsActive = "/api/clients/active"

	// Sensors
	EndpointSensorsList     = "/api/sensors/list"
	EndpointPowerReadings   = "/api/power/readings"
	EndpointThermalReadings = "/api/thermal/readings"
	EndpointArduinoReadings = "/api/arduino/readings"

	// Maritime
	EndpointMaritimeVessels = "/api/maritime/vessels"
	EndpointAISStations     = "/api/ais/stations"
	EndpointAPRSStations    = "/api/aprs/stations"
	EndpointEPIRBBeacons    = "/api/epirb/beacons"

	// Aircraft
	EndpointADSBAircraft = "/api/adsb/aircraft"

	// Starlink
	EndpointStarlinkStatus     = "/api/starlink/status"
	EndpointStarlinkStatistics = "/api/starlink/statistics"

	// RF scanners
	EndpointLoraDevices      = "/api/lora/devices"
	EndpointWifiDevices      = "/api/wifi/devices"
	EndpointBluetoothDevices = "/api/bluetooth/devices"

	// Alerts
	EndpointAlertsList  = "/api/alerts/list"
	EndpointAlertsRules = "/api/alerts/rules"
)

// Parameterized paths.
const (
	endpointAlertAcknowledgeFmt = "/api/alerts/%s/acknowledge"
	endpointAlertRuleFmt        = "/api/alerts/rules/%s"
	endpointClientFmt           = "/api/clients/%s"
)
