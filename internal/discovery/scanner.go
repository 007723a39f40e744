package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/jackpal/gateway"
	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/languard-core/internal/identity"
	"github.com/nerrad567/languard-core/internal/infrastructure/config"
)

// UnknownHostname is reported when reverse resolution fails.
const UnknownHostname = "Unknown"

// Result is one responder of a sweep.
type Result struct {
	MAC      string `json:"mac"`
	IP       string `json:"ip"`
	Hostname string `json:"hostname"`
}

// Resolver performs reverse name lookups. *net.Resolver satisfies it.
type Resolver interface {
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

// Logger is the logging interface used by the scanner.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Scanner runs ARP sweeps.
//
// Thread Safety:
//   - Sweep may be called concurrently; each call opens its own transport.
type Scanner struct {
	cfg       config.ScanConfig
	dial      Dialer
	resolver  Resolver
	gatewayFn func() (net.IP, error)
	logger    Logger
}

// Option customises a Scanner.
type Option func(*Scanner)

// WithDialer replaces the ARP transport, e.g. with a fake in tests.
func WithDialer(d Dialer) Option {
	return func(s *Scanner) { s.dial = d }
}

// WithResolver replaces the reverse DNS resolver.
func WithResolver(r Resolver) Option {
	return func(s *Scanner) { s.resolver = r }
}

// WithGateway replaces default gateway discovery.
func WithGateway(fn func() (net.IP, error)) Option {
	return func(s *Scanner) { s.gatewayFn = fn }
}

// New creates a Scanner from the scan section of the configuration.
// Zero values fall back to the built-in defaults.
func New(cfg config.ScanConfig, opts ...Option) *Scanner {
	def := config.Default().Scan
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = def.LookupTimeout
	}
	if cfg.LookupWorkers < 1 {
		cfg.LookupWorkers = def.LookupWorkers
	}
	if cfg.MaxHosts < 1 {
		cfg.MaxHosts = def.MaxHosts
	}
	if cfg.PrefixLength == 0 {
		cfg.PrefixLength = def.PrefixLength
	}

	s := &Scanner{
		cfg:       cfg,
		resolver:  net.DefaultResolver,
		gatewayFn: gateway.DiscoverGateway,
		logger:    noopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dial == nil {
		s.dial = ARPDialer(cfg.Interface, s.gatewayFn)
	}
	return s
}

// SetLogger sets the logger for the scanner.
func (s *Scanner) SetLogger(logger Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// DefaultRange returns the configured scan.cidr, or the default gateway
// address with scan.prefix_length (e.g. 192.168.1.1/24).
func (s *Scanner) DefaultRange(ctx context.Context) (netip.Prefix, error) {
	if s.cfg.CIDR != "" {
		p, err := netip.ParsePrefix(s.cfg.CIDR)
		if err != nil {
			return netip.Prefix{}, &ScanError{Op: "range", Err: err}
		}
		return p, nil
	}

	if err := ctx.Err(); err != nil {
		return netip.Prefix{}, &ScanError{Op: "cancel", Err: err}
	}

	gw, err := s.gatewayFn()
	if err != nil {
		return netip.Prefix{}, &ScanError{Op: "gateway", Err: err}
	}
	addr, ok := netip.AddrFromSlice(gw.To4())
	if !ok {
		return netip.Prefix{}, &ScanError{Op: "gateway", Err: fmt.Errorf("gateway %s is not IPv4", gw)}
	}

	return netip.PrefixFrom(addr, s.cfg.PrefixLength), nil
}

// Sweep probes every host of rng and returns the devices that answered,
// in the order they first replied, with at most one Result per MAC.
//
// The wait for replies is bounded by scan.timeout. Cancelling ctx aborts the
// wait immediately and the sweep fails with a ScanError wrapping ctx.Err().
//
// Parameters:
//   - ctx: Cancels the sweep
//   - rng: CIDR range to probe
//
// Returns:
//   - []Result: Responders (empty, never nil, when nobody answered)
//   - error: *ScanError on range, transport or cancellation failure
func (s *Scanner) Sweep(ctx context.Context, rng netip.Prefix) ([]Result, error) {
	hosts, err := Hosts(rng, s.cfg.MaxHosts)
	if err != nil {
		return nil, &ScanError{Op: "range", Err: err}
	}
	if len(hosts) == 0 {
		return []Result{}, nil
	}

	start := time.Now()
	replies, err := s.probe(ctx, rng.Masked(), hosts)
	if err != nil {
		return nil, err
	}

	results := s.resolve(ctx, replies)
	if err := ctx.Err(); err != nil {
		return nil, &ScanError{Op: "cancel", Err: err}
	}

	s.logger.Debug("sweep complete",
		"range", rng.Masked().String(),
		"hosts", len(hosts),
		"responders", len(results),
		"duration", time.Since(start),
	)
	return results, nil
}

// probe sends the requests and gathers deduplicated replies.
func (s *Scanner) probe(ctx context.Context, rng netip.Prefix, hosts []netip.Addr) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ScanError{Op: "cancel", Err: err}
	}

	t, err := s.dial(ctx)
	if err != nil {
		return nil, &ScanError{Op: "open", Err: err}
	}
	defer t.Close() //nolint:errcheck // read-only socket

	if err := t.SetReadDeadline(time.Now().Add(s.cfg.Timeout)); err != nil {
		return nil, &ScanError{Op: "open", Err: err}
	}
	// Cancellation forces any blocked Read to return.
	stop := context.AfterFunc(ctx, func() {
		_ = t.SetReadDeadline(time.Now()) //nolint:errcheck // socket may already be closed
	})
	defer stop()

	for _, h := range hosts {
		if err := ctx.Err(); err != nil {
			return nil, &ScanError{Op: "cancel", Err: err}
		}
		if err := t.Request(h); err != nil {
			return nil, &ScanError{Op: "send", Err: fmt.Errorf("request %s: %w", h, err)}
		}
	}

	var results []Result
	index := make(map[string]int)
	for {
		reply, err := t.Read()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, &ScanError{Op: "cancel", Err: ctxErr}
			}
			if isTimeout(err) {
				break
			}
			return nil, &ScanError{Op: "read", Err: err}
		}

		if !rng.Contains(reply.IP) {
			continue
		}
		mac := identity.Normalize(reply.MAC.String())
		if i, seen := index[mac]; seen {
			results[i].IP = reply.IP.String()
			continue
		}
		index[mac] = len(results)
		results = append(results, Result{MAC: mac, IP: reply.IP.String()})
	}
	return results, nil
}

// resolve fills in hostnames with at most scan.lookup_workers lookups in flight.
func (s *Scanner) resolve(ctx context.Context, results []Result) []Result {
	if results == nil {
		return []Result{}
	}

	var g errgroup.Group
	g.SetLimit(s.cfg.LookupWorkers)

	for i := range results {
		g.Go(func() error {
			results[i].Hostname = s.lookup(ctx, results[i].IP)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // lookups never fail the sweep
	return results
}

func (s *Scanner) lookup(ctx context.Context, ip string) string {
	lctx, cancel := context.WithTimeout(ctx, s.cfg.LookupTimeout)
	defer cancel()

	names, err := s.resolver.LookupAddr(lctx, ip)
	if err != nil || len(names) == 0 {
		return UnknownHostname
	}
	name := strings.TrimSuffix(names[0], ".")
	if name == "" {
		return UnknownHostname
	}
	return name
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
