// Package forwarder turns beacons into cat. 62 records and hands them to a
// UDP transport. A Forwarder is the plugin a beacon host registers.
package forwarder

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"asterix/internal/beacon"
	"asterix/internal/cache"
	"asterix/internal/encoder"
	"asterix/internal/netif"
	"asterix/internal/transport"
	"asterix/internal/util/logger/sl"
)

const (
	PluginName        = "ASTERIX cat. 62 forwarder"
	PluginVersion     = "0.0.1"
	PluginDescription = "converts OGN aircraft beacons to ASTERIX cat 62 and sends (UDP broadcast/multicast)"
)

var _ Plugin = (*Forwarder)(nil)

type Forwarder struct {
	id  string
	cfg Config
	log *slog.Logger

	transport Transport
	lister    netif.Lister
	now       func() time.Time
	reg       prometheus.Registerer
	metrics   *ForwarderMetrics
	cache     *cache.DescriptorCache

	// mu serialises the lifecycle with HandleEvent so the cache check,
	// the send and the cache commit are one step.
	mu        sync.Mutex
	state     State
	active    bool
	lastSweep time.Time
}

func New(cfg Config, log *slog.Logger, opts ...Option) *Forwarder {
	id := uuid.NewString()

	f := &Forwarder{
		id:  id,
		cfg: cfg,
		log: log.With(
			slog.String("plugin", "asterix"),
			slog.String("instance", id),
		),
		now:   time.Now,
		cache: cache.New(cfg.DescriptorTTL),
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.transport == nil {
		f.transport = transport.New(cfg.Transport, f.log)
	}
	if f.lister == nil {
		f.lister = netif.DefaultLister()
	}
	f.metrics = NewForwarderMetrics(f.reg)

	return f
}

func (f *Forwarder) Name() string        { return PluginName }
func (f *Forwarder) Version() string     { return PluginVersion }
func (f *Forwarder) Description() string { return PluginDescription }

// ID identifies this instance in logs.
func (f *Forwarder) ID() string { return f.id }

// Start discovers broadcast addresses when broadcasting and opens the
// transport. Failing either leaves the forwarder running but inactive: the
// failure is logged and events are dropped until the next Stop/Start.
// The only error returned is ErrAlreadyStarted.
func (f *Forwarder) Start(ctx context.Context) error {
	const op = "forwarder.Start"

	log := f.log.With(slog.String("op", op))

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateRunning {
		return fmt.Errorf("%s: %w", op, ErrAlreadyStarted)
	}

	f.state = StateRunning
	f.active = false

	var bcast []net.IP
	if f.cfg.Transport.Mode.Has(transport.ModeBroadcast) {
		addrs, err := netif.ListBroadcastAddresses(f.lister)
		if err != nil {
			log.Error("broadcast address discovery failed, forwarder inactive", sl.Err(err))
			return nil
		}
		bcast = addrs
		for _, a := range addrs {
			log.Debug("broadcast address", slog.String("address", a.String()))
		}
	}

	if err := f.transport.Start(ctx, bcast); err != nil {
		log.Error("transport start failed, forwarder inactive", sl.Err(err))
		return nil
	}

	f.active = true
	f.lastSweep = f.now()

	log.Info("forwarder started",
		slog.String("mode", f.cfg.Transport.Mode.String()),
		slog.Int("broadcast_addresses", len(bcast)),
	)

	return nil
}

// Stop closes the transport. Safe in any state.
func (f *Forwarder) Stop() {
	const op = "forwarder.Stop"

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateRunning {
		f.state = StateStopped
		return
	}

	if f.active {
		f.transport.Stop()
	}
	f.active = false
	f.state = StateStopped

	f.log.Info("forwarder stopped", slog.String("op", op))
}

// HandleEvent encodes b and sends it. d is attached only when it is new or
// changed for its registration. Send failures are logged. A record no
// destination accepted is dropped and its descriptor stays pending for the
// next beacon; once any destination accepted it the descriptor counts as sent.
func (f *Forwarder) HandleEvent(b beacon.Beacon, d *beacon.Descriptor) {
	const op = "forwarder.HandleEvent"

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.active {
		f.metrics.RecordDropped()
		return
	}

	now := f.now()
	if b.Timestamp.IsZero() {
		b.Timestamp = now
	}
	f.metrics.RecordBeacon(now)
	f.sweep(now)

	var attach *beacon.Descriptor
	if d != nil && f.cache.ShouldSend(d.RegNumber, *d) {
		attach = d
	}

	delivered, err := f.transport.Send(encoder.Encode(b, attach))
	if err != nil {
		f.metrics.RecordSendError()
		f.log.Error("send record",
			slog.String("op", op),
			slog.String("address", beacon.FormatAddress(b.Address)),
			slog.Int("delivered", delivered),
			sl.Err(err),
		)
	}
	if delivered == 0 {
		return
	}

	f.metrics.RecordSent(attach != nil)
	if d != nil {
		// also refreshes the idle timer of an unchanged descriptor
		f.cache.Record(d.RegNumber, *d)
	}
}

// sweep drops idle descriptors at most once per TTL.
func (f *Forwarder) sweep(now time.Time) {
	ttl := f.cache.TTL()
	if ttl == 0 || now.Sub(f.lastSweep) < ttl {
		return
	}
	f.lastSweep = now

	if n := f.cache.DeleteExpired(); n > 0 {
		f.log.Debug("expired descriptors dropped", slog.Int("count", n))
	}
}

func (f *Forwarder) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.state
}

// Active reports whether events are being forwarded. A running forwarder
// whose start failed is not active.
func (f *Forwarder) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.active
}

func (f *Forwarder) Stats() Stats {
	return f.metrics.GetStats()
}
