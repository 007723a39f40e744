package events

import (
	"context"
	"time"

	"github.com/nerrad567/languard-core/internal/engine"
)

// MetricsSink is the subset of *influxdb.Client the writer needs.
type MetricsSink interface {
	WriteDevicePresence(mac, status string, onlineDuration time.Duration, blocked bool, at time.Time)
	WriteNetworkSummary(online, blocked, scheduled int, at time.Time)
}

// MetricsWriter records presence history as time-series points.
type MetricsWriter struct {
	sink MetricsSink
	now  func() time.Time
}

// NewMetricsWriter creates a writer backed by sink.
func NewMetricsWriter(sink MetricsSink) *MetricsWriter {
	return &MetricsWriter{sink: sink, now: time.Now}
}

// DevicesUpdated writes one device_presence point per view and a
// network_summary point, all stamped with the same time.
func (m *MetricsWriter) DevicesUpdated(_ context.Context, views []engine.DeviceView) {
	at := m.now()
	for _, v := range views {
		var online time.Duration
		if v.OnlineDuration != nil {
			online = time.Duration(*v.OnlineDuration)
		}
		m.sink.WriteDevicePresence(v.MAC, string(v.Status), online, v.Blocked, at)
	}

	s := engine.Summarize(views)
	m.sink.WriteNetworkSummary(s.Online, s.Blocked, s.Scheduled, at)
}

// BlockChanged is a no-op: block state is carried by the next
// device_presence points.
func (m *MetricsWriter) BlockChanged(context.Context, engine.BlockChange) {}
