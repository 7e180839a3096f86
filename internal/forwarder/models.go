package forwarder

import (
	"context"
	"net"
	"time"

	"asterix/internal/beacon"
	"asterix/internal/transport"
)

// Plugin is what a beacon host drives: metadata, lifecycle and one call per
// received beacon. Implementations must not let their own failures escape
// into the host.
type Plugin interface {
	Name() string
	Version() string
	Description() string

	// Start prepares the plugin for events.
	Start(ctx context.Context) error

	// Stop releases resources. It may be called more than once.
	Stop()

	// HandleEvent consumes one beacon. d is nil when no descriptor is known.
	HandleEvent(b beacon.Beacon, d *beacon.Descriptor)
}

// Transport delivers encoded records. Send reports how many destinations
// accepted the record alongside any failures.
type Transport interface {
	Start(ctx context.Context, broadcast []net.IP) error
	Send(record []byte) (int, error)
	Stop()
}

type Config struct {
	Transport transport.Config
	// DescriptorTTL drops cached descriptors of aircraft not seen for this
	// long. 0 keeps them forever.
	DescriptorTTL time.Duration
}

type State int

const (
	StateUninitialized State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Stats is a snapshot of the forwarder counters.
type Stats struct {
	Beacons         int64
	Dropped         int64
	RecordsSent     int64
	SendErrors      int64
	DescriptorsSent int64
	LastEvent       time.Time
}
