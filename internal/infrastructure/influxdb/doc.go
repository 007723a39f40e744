// Package influxdb provides InfluxDB connectivity for LanGuard.
//
// It wraps the official influxdb-client-go v2 library and writes two
// measurements:
//   - device_presence: tags mac and status; fields online_duration_seconds
//     and blocked
//   - network_summary: fields online, blocked and scheduled
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteNetworkSummary(12, 1, 0, time.Now())
//
// # Error Handling
//
// Writes are non-blocking and batched (batch_size, flush_interval).
// Batch errors are delivered to the SetOnError callback. Connection and
// health check errors are returned directly.
package influxdb
