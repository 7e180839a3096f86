package forwarder

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"asterix/internal/netif"
)

type Option func(*Forwarder)

// WithTransport replaces the UDP transport built from Config.
func WithTransport(t Transport) Option {
	return func(f *Forwarder) {
		f.transport = t
	}
}

// WithLister sets where broadcast addresses are discovered.
func WithLister(l netif.Lister) Option {
	return func(f *Forwarder) {
		f.lister = l
	}
}

// WithClock sets the time source used for beacons without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(f *Forwarder) {
		f.now = now
	}
}

// WithRegisterer registers the forwarder's prometheus collectors with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(f *Forwarder) {
		f.reg = reg
	}
}
