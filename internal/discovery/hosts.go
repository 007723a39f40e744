package discovery

import (
	"fmt"
	"net/netip"
)

// Hosts lists the addresses a sweep of rng probes.
//
// The prefix is masked first, so "192.168.1.1/24" covers 192.168.1.0/24.
// For IPv4 prefixes shorter than /31 the network and broadcast addresses
// are excluded. Ranges with more than maxHosts addresses are rejected.
func Hosts(rng netip.Prefix, maxHosts int) ([]netip.Addr, error) {
	if !rng.IsValid() {
		return nil, fmt.Errorf("%w: invalid prefix %q", ErrUnsupportedRange, rng)
	}
	if !rng.Addr().Is4() {
		return nil, fmt.Errorf("%w: ARP sweeps need an IPv4 prefix, got %s", ErrUnsupportedRange, rng)
	}

	rng = rng.Masked()
	hostBits := 32 - rng.Bits()
	total := uint64(1) << hostBits
	if total > uint64(maxHosts) {
		return nil, fmt.Errorf("%w: %s has %d addresses, limit is %d", ErrRangeTooLarge, rng, total, maxHosts)
	}

	hosts := make([]netip.Addr, 0, total)
	for a := rng.Addr(); rng.Contains(a); a = a.Next() {
		hosts = append(hosts, a)
	}

	if rng.Bits() < 31 && len(hosts) >= 2 {
		hosts = hosts[1 : len(hosts)-1]
	}
	return hosts, nil
}
