// Package engine composes device views and orchestrates block changes.
//
// Compose is the heart of LanGuard: it sweeps the network, folds the results
// into the tracking history, lazily expires the block ledger and tags every
// device as online, blocked or scheduled. Devices neither seen nor blocked
// are omitted; callers wanting "offline" devices read History.
//
// Block and Unblock keep the router and the ledger in step: the router is
// asked first, and the ledger is only touched when the router succeeded.
//
// Observers (WebSocket hub, MQTT, InfluxDB) are told about every composed
// view set and every block change.
package engine
