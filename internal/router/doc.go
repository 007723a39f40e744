// Package router drives the home router that enforces blocks.
//
// Drivers implement Controller and are registered per brand in a static
// registry. New resolves the brand case-insensitively and fails fast with
// ErrUnknownBrand, so a misconfigured brand stops startup rather than the
// first block request.
//
// Every error a Controller returned by New produces is an *AdapterError
// matching ErrAdapter.
//
// Built-in brands:
//   - huawei: session driver that logs in before every action
//   - dryrun: in-memory driver for development and tests
package router
