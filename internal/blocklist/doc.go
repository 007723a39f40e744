// Package blocklist is the time-bounded block ledger.
//
// Each identity has at most one Entry. An entry without expires_at blocks
// indefinitely; one with expires_at stays active while now < expires_at.
// Expiry is lazy: nothing runs on a timer, and expired entries are only
// removed by SweepExpired.
//
// The ledger is a flat JSON array:
//
//	[
//	  {"mac": "aa:bb:cc:dd:ee:ff", "blocked_at": "2026-03-01T09:00:00Z", "expires_at": "2026-03-01T10:00:00Z"},
//	  {"mac": "11:22:33:44:55:66", "blocked_at": "2026-03-01T09:05:00Z"}
//	]
package blocklist
