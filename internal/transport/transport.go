// Package transport sends encoded records over UDP broadcast, multicast or
// both from a single socket.
package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"

	"golang.org/x/net/ipv4"

	"asterix/internal/util/logger/sl"
)

const (
	DefaultBroadcastPort  = 4445
	DefaultMulticastGroup = "230.0.0.0"
	DefaultMulticastPort  = 4446
	DefaultMulticastTTL   = 1
)

type Config struct {
	Mode           Mode
	BroadcastPort  int
	MulticastGroup string
	MulticastPort  int
	MulticastTTL   int
	// MulticastLoopback delivers multicast records to listeners on this host.
	MulticastLoopback bool
	// MulticastInterface names the outgoing interface, empty lets the OS pick.
	MulticastInterface string
}

// DefaultConfig is broadcast only with the well-known ports.
func DefaultConfig() Config {
	return Config{
		Mode:              ModeBroadcast,
		BroadcastPort:     DefaultBroadcastPort,
		MulticastGroup:    DefaultMulticastGroup,
		MulticastPort:     DefaultMulticastPort,
		MulticastTTL:      DefaultMulticastTTL,
		MulticastLoopback: true,
	}
}

// Transport owns one UDP socket for its whole Start..Stop lifetime. It is
// safe for concurrent use.
type Transport struct {
	cfg Config
	log *slog.Logger

	mu    sync.Mutex
	conn  *net.UDPConn
	dests []*net.UDPAddr
}

func New(cfg Config, log *slog.Logger) *Transport {
	return &Transport{
		cfg: cfg,
		log: log.With(slog.String("transport", cfg.Mode.String())),
	}
}

// Start opens the socket and fixes the destination list: every address in
// broadcast on the broadcast port when broadcasting, plus the group when
// multicasting. After Stop the transport can be started again.
func (t *Transport) Start(ctx context.Context, broadcast []net.IP) error {
	const op = "transport.Start"

	log := t.log.With(slog.String("op", op))

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return fmt.Errorf("%s: %w", op, ErrAlreadyStarted)
	}
	if t.cfg.Mode&(ModeBroadcast|ModeMulticast) == 0 {
		return fmt.Errorf("%s: %w", op, ErrNoMode)
	}

	var dests []*net.UDPAddr

	if t.cfg.Mode.Has(ModeBroadcast) {
		for _, ip := range broadcast {
			dests = append(dests, &net.UDPAddr{IP: ip, Port: t.cfg.BroadcastPort})
		}
		if len(broadcast) == 0 {
			log.Warn("no broadcast addresses, broadcast delivery disabled")
		}
	}

	var group *net.UDPAddr
	if t.cfg.Mode.Has(ModeMulticast) {
		ip := net.ParseIP(t.cfg.MulticastGroup).To4()
		if ip == nil || !ip.IsMulticast() {
			return fmt.Errorf("%s: %w: %q", op, ErrBadGroup, t.cfg.MulticastGroup)
		}
		group = &net.UDPAddr{IP: ip, Port: t.cfg.MulticastPort}
		dests = append(dests, group)
	}

	lc := net.ListenConfig{Control: control}
	pc, err := lc.ListenPacket(ctx, "udp4", ":0")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	conn := pc.(*net.UDPConn)

	if group != nil {
		if err := t.setupMulticast(conn); err != nil {
			if cerr := conn.Close(); cerr != nil {
				log.Error("close socket", sl.Err(cerr))
			}
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	t.conn = conn
	t.dests = dests

	log.Info("transport started",
		slog.String("local", conn.LocalAddr().String()),
		slog.Int("destinations", len(dests)),
	)

	return nil
}

func (t *Transport) setupMulticast(conn *net.UDPConn) error {
	p := ipv4.NewPacketConn(conn)

	if err := p.SetMulticastTTL(t.cfg.MulticastTTL); err != nil {
		return fmt.Errorf("set multicast ttl: %w", err)
	}
	if err := p.SetMulticastLoopback(t.cfg.MulticastLoopback); err != nil {
		return fmt.Errorf("set multicast loopback: %w", err)
	}
	if t.cfg.MulticastInterface != "" {
		ifi, err := net.InterfaceByName(t.cfg.MulticastInterface)
		if err != nil {
			return fmt.Errorf("multicast interface: %w", err)
		}
		if err := p.SetMulticastInterface(ifi); err != nil {
			return fmt.Errorf("set multicast interface: %w", err)
		}
	}

	return nil
}

// Send writes record to every destination and returns how many accepted it.
// A failed destination does not stop the others; all failures come back
// joined.
func (t *Transport) Send(record []byte) (int, error) {
	const op = "transport.Send"

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return 0, fmt.Errorf("%s: %w", op, ErrNotReady)
	}

	var (
		delivered int
		errs      []error
	)
	for _, dst := range t.dests {
		if _, err := t.conn.WriteToUDP(record, dst); err != nil {
			errs = append(errs, fmt.Errorf("%s: %s: %w", op, dst, err))
			continue
		}
		delivered++
	}

	return delivered, errors.Join(errs...)
}

// Stop closes the socket. Close failures are logged only. Safe to call
// any number of times.
func (t *Transport) Stop() {
	const op = "transport.Stop"

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return
	}

	if err := t.conn.Close(); err != nil {
		t.log.Error("close socket", slog.String("op", op), sl.Err(err))
	}
	t.conn = nil
	t.dests = nil

	t.log.Info("transport stopped", slog.String("op", op))
}

// Destinations lists where records go, as host:port strings.
func (t *Transport) Destinations() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, 0, len(t.dests))
	for _, d := range t.dests {
		out = append(out, net.JoinHostPort(d.IP.String(), strconv.Itoa(d.Port)))
	}
	return out
}
