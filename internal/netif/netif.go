// Package netif finds the broadcast addresses of the local IPv4 networks.
//
// The set is meant to be computed once at startup. Interfaces that appear,
// disappear or change addresses later are not picked up.
package netif

import (
	"fmt"
	"net"
	"net/netip"

	"go4.org/netipx"
)

// Interface is the part of an OS network interface discovery cares about.
type Interface struct {
	Name      string
	Up        bool
	Loopback  bool
	Broadcast bool // interface supports broadcast
	Addrs     []Addr
}

// Addr is one address bound to an interface. Broadcast is the address the OS
// reports, it may be the zero Addr when the OS does not report one.
type Addr struct {
	Prefix    netip.Prefix
	Broadcast netip.Addr
}

// Lister enumerates network interfaces.
type Lister interface {
	Interfaces() ([]Interface, error)
}

// ListBroadcastAddresses returns the broadcast address of every IPv4 network
// bound to an interface that is up, not loopback and broadcast capable. The
// order follows the lister's interface and address order; duplicates are
// dropped.
func ListBroadcastAddresses(l Lister) ([]net.IP, error) {
	const op = "netif.ListBroadcastAddresses"

	ifaces, err := l.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	seen := make(map[netip.Addr]struct{})
	var out []net.IP

	for _, iface := range ifaces {
		if iface.Loopback || !iface.Up || !iface.Broadcast {
			continue
		}
		for _, a := range iface.Addrs {
			b, ok := broadcastOf(a)
			if !ok {
				continue
			}
			if _, dup := seen[b]; dup {
				continue
			}
			seen[b] = struct{}{}
			out = append(out, net.IP(b.AsSlice()))
		}
	}

	return out, nil
}

// broadcastOf picks the reported broadcast address or derives it from the
// prefix. /31 and /32 networks have none.
func broadcastOf(a Addr) (netip.Addr, bool) {
	if !a.Prefix.IsValid() || !a.Prefix.Addr().Unmap().Is4() {
		return netip.Addr{}, false
	}
	if a.Broadcast.IsValid() {
		b := a.Broadcast.Unmap()
		if b.Is4() && !b.IsUnspecified() {
			return b, true
		}
	}
	p := netip.PrefixFrom(a.Prefix.Addr().Unmap(), a.Prefix.Bits())
	if p.Bits() >= 31 {
		return netip.Addr{}, false
	}
	return netipx.PrefixLastIP(p.Masked()), true
}
