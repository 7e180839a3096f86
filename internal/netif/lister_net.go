package netif

import (
	"fmt"
	"net"

	"go4.org/netipx"
)

// NetLister reads interfaces through the net package. It works on every
// platform but can't see the broadcast address the kernel reports, so it is
// always derived from the prefix.
type NetLister struct{}

func (NetLister) Interfaces() ([]Interface, error) {
	const op = "netif.NetLister.Interfaces"

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]Interface, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			return nil, fmt.Errorf("%s: addresses of %s: %w", op, iface.Name, err)
		}

		it := Interface{
			Name:      iface.Name,
			Up:        iface.Flags&net.FlagUp != 0,
			Loopback:  iface.Flags&net.FlagLoopback != 0,
			Broadcast: iface.Flags&net.FlagBroadcast != 0,
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			prefix, ok := netipx.FromStdIPNet(ipNet)
			if !ok {
				continue
			}
			it.Addrs = append(it.Addrs, Addr{Prefix: prefix})
		}
		out = append(out, it)
	}
	return out, nil
}
