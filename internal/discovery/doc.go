// Package discovery finds the devices answering on a local network segment.
//
// A sweep broadcasts one ARP request per host address in a CIDR range,
// collects replies until the wait window closes, and then resolves a
// hostname for every responder with bounded concurrency.
//
// # Transport
//
// Production sweeps use github.com/mdlayher/arp bound to one interface,
// which needs CAP_NET_RAW (or root). Tests inject a fake Transport.
//
// # Errors
//
// Every failure that aborts a sweep is a *ScanError and matches ErrScan.
// A failed reverse lookup never aborts: the host is reported as "Unknown".
//
// # Usage
//
//	scanner := discovery.New(cfg.Scan)
//	rng, err := scanner.DefaultRange(ctx)
//	results, err := scanner.Sweep(ctx, rng)
package discovery
