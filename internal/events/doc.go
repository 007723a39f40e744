// Package events forwards engine output to the message bus and the
// time-series database.
//
// Both types implement engine.Observer and are registered with
// Engine.AddObserver at startup when their backend is enabled:
//
//	MQTTPublisher  → retained presence per device, sweep summary, block events
//	MetricsWriter  → InfluxDB device_presence and network_summary points
//
// Delivery is best-effort. A broker or database outage is logged and never
// fails the sweep or block request that produced the event.
package events
