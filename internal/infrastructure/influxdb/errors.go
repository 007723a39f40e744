package influxdb

import "errors"

var (
	// ErrDisabled is returned by Connect when influxdb.enabled is false.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrMissingTarget is returned by Connect when org or bucket is empty.
	ErrMissingTarget = errors.New("influxdb: org and bucket are required")

	// ErrConnectionFailed wraps the ping failure from Connect.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrNotConnected is returned by HealthCheck after Close.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrWriteFailed wraps batch errors delivered to the OnError callback.
	ErrWriteFailed = errors.New("influxdb: write failed")
)
