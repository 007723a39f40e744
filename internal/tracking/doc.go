// Package tracking persists per-device presence history.
//
// Every identity ever observed has exactly one Record holding its last known
// address and name plus the first and last time it answered a sweep. Records
// are never deleted automatically.
//
// The history lives in a flat JSON object keyed by identity:
//
//	{
//	  "aa:bb:cc:dd:ee:ff": {
//	    "ip": "192.168.1.20",
//	    "hostname": "printer.lan",
//	    "first_seen": "2026-03-01T09:00:00Z",
//	    "last_seen": "2026-03-01T09:30:00Z"
//	  }
//	}
//
// Only the presence reconciler writes to the store during normal operation.
package tracking
