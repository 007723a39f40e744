// Package identity normalises device identities.
//
// An identity is a MAC address as reported by ARP, but nothing beyond
// normalisation assumes a MAC shape: "AA:BB" is a valid identity.
package identity

import "strings"

// Normalize lower-cases s and trims surrounding whitespace so that
// "AA:BB:CC:DD:EE:FF " and "aa:bb:cc:dd:ee:ff" refer to the same device.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
