package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by LanGuard.
const (
	MeasurementDevicePresence = "device_presence"
	MeasurementNetworkSummary = "network_summary"
)

// WriteDevicePresence records one identity's state as seen by a sweep.
//
// Parameters:
//   - mac: Normalised hardware identity (tag)
//   - status: online, offline, blocked or scheduled (tag)
//   - onlineDuration: last_seen minus first_seen
//   - blocked: Whether the identity is currently in the block ledger
//   - at: Sweep time
func (c *Client) WriteDevicePresence(mac, status string, onlineDuration time.Duration, blocked bool, at time.Time) {
	c.write(devicePresencePoint(mac, status, onlineDuration, blocked, at))
}

// WriteNetworkSummary records the per-sweep device counts.
func (c *Client) WriteNetworkSummary(online, blocked, scheduled int, at time.Time) {
	c.write(networkSummaryPoint(online, blocked, scheduled, at))
}

func devicePresencePoint(mac, status string, onlineDuration time.Duration, blocked bool, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementDevicePresence,
		map[string]string{
			"mac":    mac,
			"status": status,
		},
		map[string]interface{}{
			"online_duration_seconds": onlineDuration.Seconds(),
			"blocked":                 blocked,
		},
		at,
	)
}

func networkSummaryPoint(online, blocked, scheduled int, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementNetworkSummary,
		nil,
		map[string]interface{}{
			"online":    online,
			"blocked":   blocked,
			"scheduled": scheduled,
		},
		at,
	)
}
