package discovery

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/languard-core/internal/infrastructure/config"
)

// fakeTransport replays canned replies and honours read deadlines.
type fakeTransport struct {
	mu        sync.Mutex
	deadline  time.Time
	requested []netip.Addr
	closed    bool
	sendErr   error

	replies chan Reply
	wake    chan struct{}
}

func newFakeTransport(replies ...Reply) *fakeTransport {
	f := &fakeTransport{
		replies: make(chan Reply, len(replies)),
		wake:    make(chan struct{}, 1),
	}
	for _, r := range replies {
		f.replies <- r
	}
	return f
}

func (f *fakeTransport) Request(ip netip.Addr) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.requested = append(f.requested, ip)
	return nil
}

func (f *fakeTransport) Read() (Reply, error) {
	for {
		select {
		case r := <-f.replies:
			return r, nil
		default:
		}

		f.mu.Lock()
		d := f.deadline
		f.mu.Unlock()
		if !time.Now().Before(d) {
			return Reply{}, os.ErrDeadlineExceeded
		}

		select {
		case r := <-f.replies:
			return r, nil
		case <-time.After(time.Until(d)):
		case <-f.wake:
		}
	}
}

func (f *fakeTransport) SetReadDeadline(t time.Time) error {
	f.mu.Lock()
	f.deadline = t
	f.mu.Unlock()
	select {
	case f.wake <- struct{}{}:
	default:
	}
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

type fakeResolver map[string]string

func (r fakeResolver) LookupAddr(_ context.Context, addr string) ([]string, error) {
	name, ok := r[addr]
	if !ok {
		return nil, &net.DNSError{Err: "no such host", Name: addr, IsNotFound: true}
	}
	return []string{name}, nil
}

func reply(mac, ip string) Reply {
	hw, err := net.ParseMAC(mac)
	if err != nil {
		panic(err)
	}
	return Reply{MAC: hw, IP: netip.MustParseAddr(ip)}
}

func testConfig() config.ScanConfig {
	cfg := config.Default().Scan
	cfg.Timeout = 50 * time.Millisecond
	return cfg
}

func newTestScanner(t *testing.T, tr *fakeTransport, res Resolver) *Scanner {
	t.Helper()
	return New(testConfig(),
		WithDialer(func(context.Context) (Transport, error) { return tr, nil }),
		WithResolver(res),
		WithGateway(func() (net.IP, error) { return net.ParseIP("192.168.1.1"), nil }),
	)
}

func TestSweep_DedupOrderAndFilter(t *testing.T) {
	tr := newFakeTransport(
		reply("AA:AA:AA:AA:AA:01", "192.168.1.10"),
		reply("aa:aa:aa:aa:aa:02", "192.168.1.20"),
		reply("aa:aa:aa:aa:aa:03", "10.9.9.9"), // outside the range
		reply("aa:aa:aa:aa:aa:01", "192.168.1.11"),
	)
	s := newTestScanner(t, tr, fakeResolver{"192.168.1.11": "laptop.lan."})

	got, err := s.Sweep(context.Background(), netip.MustParsePrefix("192.168.1.1/24"))
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	want := []Result{
		{MAC: "aa:aa:aa:aa:aa:01", IP: "192.168.1.11", Hostname: "laptop.lan"},
		{MAC: "aa:aa:aa:aa:aa:02", IP: "192.168.1.20", Hostname: UnknownHostname},
	}
	if len(got) != len(want) {
		t.Fatalf("Sweep() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("result[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	if len(tr.requested) != 254 {
		t.Errorf("requests sent = %d, want 254", len(tr.requested))
	}
	if !tr.closed {
		t.Error("transport should be closed after the sweep")
	}
}

func TestSweep_NoResponders(t *testing.T) {
	s := newTestScanner(t, newFakeTransport(), fakeResolver{})

	got, err := s.Sweep(context.Background(), netip.MustParsePrefix("10.0.0.0/30"))
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Sweep() = %v, want empty non-nil slice", got)
	}
}

func TestSweep_OpenFailure(t *testing.T) {
	permErr := errors.New("operation not permitted")
	s := New(testConfig(), WithDialer(func(context.Context) (Transport, error) { return nil, permErr }))

	_, err := s.Sweep(context.Background(), netip.MustParsePrefix("192.168.1.0/24"))
	if !errors.Is(err, ErrScan) || !errors.Is(err, permErr) {
		t.Fatalf("Sweep() error = %v, want ScanError wrapping permission error", err)
	}
	var se *ScanError
	if !errors.As(err, &se) || se.Op != "open" {
		t.Errorf("error = %#v, want Op open", err)
	}
}

func TestSweep_SendFailure(t *testing.T) {
	tr := newFakeTransport()
	tr.sendErr = errors.New("network is down")
	s := newTestScanner(t, tr, fakeResolver{})

	_, err := s.Sweep(context.Background(), netip.MustParsePrefix("192.168.1.0/24"))
	var se *ScanError
	if !errors.As(err, &se) || se.Op != "send" {
		t.Fatalf("Sweep() error = %v, want send ScanError", err)
	}
	if !tr.closed {
		t.Error("transport should be closed on failure")
	}
}

func TestSweep_RangeTooLarge(t *testing.T) {
	s := newTestScanner(t, newFakeTransport(), fakeResolver{})

	_, err := s.Sweep(context.Background(), netip.MustParsePrefix("10.0.0.0/8"))
	if !errors.Is(err, ErrScan) || !errors.Is(err, ErrRangeTooLarge) {
		t.Fatalf("Sweep() error = %v, want ErrRangeTooLarge", err)
	}
}

func TestSweep_CancelUnblocksWait(t *testing.T) {
	tr := newFakeTransport()
	cfg := testConfig()
	cfg.Timeout = 10 * time.Second
	s := New(cfg, WithDialer(func(context.Context) (Transport, error) { return tr, nil }))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	_, err := s.Sweep(ctx, netip.MustParsePrefix("192.168.1.0/28"))
	if !errors.Is(err, ErrScan) || !errors.Is(err, context.Canceled) {
		t.Fatalf("Sweep() error = %v, want ScanError wrapping context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("cancellation took %v", elapsed)
	}
	if !tr.closed {
		t.Error("transport should be closed after cancellation")
	}
}

func TestDefaultRange(t *testing.T) {
	tests := []struct {
		name    string
		cidr    string
		gw      func() (net.IP, error)
		want    string
		wantErr bool
	}{
		{
			name: "configured cidr wins",
			cidr: "10.1.2.0/25",
			gw:   func() (net.IP, error) { return nil, errors.New("unused") },
			want: "10.1.2.0/25",
		},
		{
			name: "gateway anchored /24",
			gw:   func() (net.IP, error) { return net.ParseIP("192.168.100.1"), nil },
			want: "192.168.100.1/24",
		},
		{
			name:    "gateway failure",
			gw:      func() (net.IP, error) { return nil, errors.New("no route") },
			wantErr: true,
		},
		{
			name:    "ipv6 gateway",
			gw:      func() (net.IP, error) { return net.ParseIP("fe80::1"), nil },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.CIDR = tt.cidr
			s := New(cfg, WithGateway(tt.gw), WithDialer(func(context.Context) (Transport, error) { return nil, nil }))

			got, err := s.DefaultRange(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("DefaultRange() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrScan) {
					t.Errorf("error %v should match ErrScan", err)
				}
				return
			}
			if got.String() != tt.want {
				t.Errorf("DefaultRange() = %s, want %s", got, tt.want)
			}
		})
	}
}
