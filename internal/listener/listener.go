// Package listener receives cat. 62 records over UDP and decodes them. It is
// the receiving end used to check what a forwarder puts on the wire.
package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"asterix/internal/encoder"
	"asterix/internal/util/logger/sl"
)

const (
	maxDatagram  = 64 * 1024
	readBuffer   = 1024 * 1024
	pollInterval = 250 * time.Millisecond
)

type Config struct {
	// Group is an IPv4 multicast group to join. Empty listens for unicast
	// and broadcast datagrams.
	Group string
	// Interface to join Group on, empty lets the OS pick.
	Interface string
	// Host restricts the bind address when Group is empty.
	Host string
	Port int
}

// Handler gets every decoded record with its sender.
type Handler func(rec encoder.Record, from *net.UDPAddr)

// Open binds the socket described by cfg.
func Open(cfg Config) (*net.UDPConn, error) {
	const op = "listener.Open"

	if cfg.Group == "" {
		addr := &net.UDPAddr{IP: net.ParseIP(cfg.Host), Port: cfg.Port}
		conn, err := net.ListenUDP("udp4", addr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return conn, nil
	}

	group := net.ParseIP(cfg.Group).To4()
	if group == nil || !group.IsMulticast() {
		return nil, fmt.Errorf("%s: not an IPv4 multicast group: %q", op, cfg.Group)
	}

	var ifi *net.Interface
	if cfg.Interface != "" {
		var err error
		ifi, err = net.InterfaceByName(cfg.Interface)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	conn, err := net.ListenMulticastUDP("udp4", ifi, &net.UDPAddr{IP: group, Port: cfg.Port})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return conn, nil
}

// Serve reads records from conn until ctx is done, then closes conn.
// Datagrams that do not decode are logged and skipped.
func Serve(ctx context.Context, conn *net.UDPConn, log *slog.Logger, h Handler) error {
	const op = "listener.Serve"
	log = log.With(slog.String("op", op), slog.String("local", conn.LocalAddr().String()))

	defer conn.Close()

	if err := conn.SetReadBuffer(readBuffer); err != nil {
		log.Warn("set read buffer", sl.Err(err))
	}

	log.Info("Listener started")

	buf := make([]byte, maxDatagram)
	for {
		select {
		case <-ctx.Done():
			log.Info("Shutting down listener")
			return nil
		default:
			if err := conn.SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}

			n, from, err := conn.ReadFromUDP(buf)
			if err != nil {
				var ne net.Error
				if errors.As(err, &ne) && ne.Timeout() {
					continue
				}
				if errors.Is(err, net.ErrClosed) {
					return nil
				}
				log.Warn("read datagram", sl.Err(err))
				continue
			}

			rec, err := encoder.Decode(buf[:n])
			if err != nil {
				log.Warn("skipping undecodable datagram",
					slog.String("from", from.String()),
					slog.Int("size", n),
					sl.Err(err))
				continue
			}

			h(rec, from)
		}
	}
}
