// Package api implements the HTTP REST API and WebSocket server for LanGuard.
//
// This package provides:
//   - Device endpoints: /scan, /devices, /history
//   - Block endpoints: /block, /unblock, /blocklist
//   - Supporting endpoints: /wifi, /audit, /health
//   - A WebSocket hub on /ws relaying devices.updated and block.changed
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Architecture
//
// Handlers are thin: they decode the request, call the engine and map its
// typed errors onto status codes. The hub is registered as an engine
// observer, so every composed device list and every ledger change is
// pushed to subscribed WebSocket clients, whatever triggered it.
//
// # Error Responses
//
// Every non-2xx response has the body {"error": "...", "code": "..."}.
// Malformed input maps to 400. Sweep, storage and router failures map
// to 500.
//
// The management API has no authentication. Bind it to a trusted
// interface (api.host).
package api
