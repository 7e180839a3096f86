//go:build linux

package netif

import (
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
	"go4.org/netipx"
)

// NetlinkLister reads links and their IPv4 addresses over rtnetlink,
// including the broadcast address the kernel has configured.
type NetlinkLister struct{}

func (NetlinkLister) Interfaces() ([]Interface, error) {
	const op = "netif.NetlinkLister.Interfaces"

	links, err := netlink.LinkList()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]Interface, 0, len(links))
	for _, link := range links {
		attrs := link.Attrs()
		addrs, err := netlink.AddrList(link, netlink.FAMILY_V4)
		if err != nil {
			return nil, fmt.Errorf("%s: addresses of %s: %w", op, attrs.Name, err)
		}

		it := Interface{
			Name:      attrs.Name,
			Up:        attrs.Flags&net.FlagUp != 0,
			Loopback:  attrs.Flags&net.FlagLoopback != 0,
			Broadcast: attrs.Flags&net.FlagBroadcast != 0,
		}
		for _, a := range addrs {
			if a.IPNet == nil {
				continue
			}
			prefix, ok := netipx.FromStdIPNet(a.IPNet)
			if !ok {
				continue
			}
			addr := Addr{Prefix: prefix}
			if bcast, ok := netipx.FromStdIP(a.Broadcast); ok {
				addr.Broadcast = bcast
			}
			it.Addrs = append(it.Addrs, addr)
		}
		out = append(out, it)
	}
	return out, nil
}

// DefaultLister returns the lister for the current platform.
func DefaultLister() Lister {
	return NetlinkLister{}
}
