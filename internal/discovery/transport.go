package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"time"

	"github.com/mdlayher/arp"
)

// Reply is one ARP answer.
type Reply struct {
	MAC net.HardwareAddr
	IP  netip.Addr
}

// Transport sends ARP requests and reads replies on one interface.
type Transport interface {
	// Request broadcasts a who-has for ip.
	Request(ip netip.Addr) error
	// Read blocks until a reply arrives or the read deadline passes.
	Read() (Reply, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// Dialer opens a Transport for one sweep.
type Dialer func(ctx context.Context) (Transport, error)

// arpTransport adapts *arp.Client to Transport.
type arpTransport struct {
	c *arp.Client
}

func (t *arpTransport) Request(ip netip.Addr) error {
	return t.c.Request(ip)
}

func (t *arpTransport) Read() (Reply, error) {
	for {
		pkt, _, err := t.c.Read()
		if errors.Is(err, io.ErrUnexpectedEOF) {
			continue // truncated frame
		}
		if err != nil {
			return Reply{}, err
		}
		if pkt.Operation != arp.OperationReply {
			continue
		}
		return Reply{MAC: pkt.SenderHardwareAddr, IP: pkt.SenderIP}, nil
	}
}

func (t *arpTransport) SetReadDeadline(d time.Time) error {
	return t.c.SetReadDeadline(d)
}

func (t *arpTransport) Close() error {
	return t.c.Close()
}

// ARPDialer returns a Dialer opening raw ARP sockets on the named interface.
// An empty name selects the interface whose IPv4 network contains the
// default gateway reported by gatewayFn.
func ARPDialer(name string, gatewayFn func() (net.IP, error)) Dialer {
	return func(ctx context.Context) (Transport, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ifi, err := resolveInterface(name, gatewayFn)
		if err != nil {
			return nil, err
		}

		c, err := arp.Dial(ifi)
		if err != nil {
			return nil, fmt.Errorf("opening ARP socket on %s: %w", ifi.Name, err)
		}
		return &arpTransport{c: c}, nil
	}
}

func resolveInterface(name string, gatewayFn func() (net.IP, error)) (*net.Interface, error) {
	if name != "" {
		ifi, err := net.InterfaceByName(name)
		if err != nil {
			return nil, fmt.Errorf("interface %q: %w", name, err)
		}
		return ifi, nil
	}

	gw, err := gatewayFn()
	if err != nil {
		return nil, fmt.Errorf("discovering gateway: %w", err)
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("listing interfaces: %w", err)
	}
	for i := range ifaces {
		if interfaceReaches(&ifaces[i], gw) {
			return &ifaces[i], nil
		}
	}
	return nil, fmt.Errorf("no interface reaches gateway %s", gw)
}

func interfaceReaches(ifi *net.Interface, gw net.IP) bool {
	if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagLoopback != 0 {
		return false
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return false
	}
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil && ipnet.Contains(gw) {
			return true
		}
	}
	return false
}
