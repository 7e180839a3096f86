// Package feed reads beacons from a JSON-lines stream, one object per line.
package feed

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"asterix/internal/beacon"
	"asterix/internal/util/logger/sl"
)

const maxLineSize = 64 * 1024

// Parse decodes one line.
func Parse(line []byte) (Event, error) {
	const op = "feed.Parse"

	var jb jsonBeacon
	if err := json.Unmarshal(line, &jb); err != nil {
		return Event{}, fmt.Errorf("%s: %w", op, err)
	}

	if jb.Address == "" {
		return Event{}, fmt.Errorf("%s: %w", op, ErrMissingAddress)
	}
	addr, err := beacon.ParseAddress(jb.Address)
	if err != nil {
		return Event{}, fmt.Errorf("%s: %w", op, err)
	}

	if jb.Lat == nil || jb.Lon == nil ||
		*jb.Lat < -90 || *jb.Lat > 90 || *jb.Lon < -180 || *jb.Lon > 180 {
		return Event{}, fmt.Errorf("%s: %w", op, ErrBadPosition)
	}

	ev := Event{
		Beacon: beacon.Beacon{
			Address:      addr,
			AddressType:  beacon.AddressType(jb.AddressType),
			AircraftType: beacon.AircraftType(jb.AircraftType),
			Lat:          *jb.Lat,
			Lon:          *jb.Lon,
			Altitude:     jb.Altitude,
			ClimbRate:    jb.ClimbRate,
			GroundSpeed:  jb.GroundSpeed,
			Track:        jb.Track,
			TurnRate:     jb.TurnRate,
			ErrorCount:   jb.ErrorCount,
			Timestamp:    jb.Timestamp,
		},
	}

	if jd := jb.Descriptor; jd != nil {
		ev.Descriptor = &beacon.Descriptor{
			RegNumber:  jd.Reg,
			CN:         jd.CN,
			Owner:      jd.Owner,
			HomeBase:   jd.HomeBase,
			Model:      jd.Model,
			FreqMhz:    jd.Freq,
			Tracked:    jd.Tracked,
			Identified: jd.Identified,
		}
	}

	return ev, nil
}

// Read calls fn for every valid line of r until r is exhausted or ctx is
// done. Blank lines are skipped, invalid ones logged and skipped. It returns
// the number of events delivered.
//
// Read returns as soon as ctx is done, even while r is blocked. The scanning
// goroutine then exits once r yields or is closed.
func Read(ctx context.Context, r io.Reader, log *slog.Logger, fn func(Event)) (int, error) {
	const op = "feed.Read"
	log = log.With(slog.String("op", op))

	lines := make(chan []byte)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)

		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 4096), maxLineSize)
		for sc.Scan() {
			line := append([]byte(nil), sc.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	var n, lineNo int
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		select {
		case <-ctx.Done():
			return n, ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return n, fmt.Errorf("%s: %w", op, err)
				}
				return n, nil
			}
			if err := ctx.Err(); err != nil {
				return n, err
			}
			lineNo++

			if handleLine(log, lineNo, line, fn) {
				n++
			}
		}
	}
}

// handleLine parses one raw line and passes it to fn. It reports whether fn
// was called.
func handleLine(log *slog.Logger, lineNo int, raw []byte, fn func(Event)) bool {
	line := bytes.TrimSpace(raw)
	if len(line) == 0 {
		return false
	}

	ev, err := Parse(line)
	if err != nil {
		log.Warn("skipping invalid beacon", slog.Int("line", lineNo), sl.Err(err))
		return false
	}

	fn(ev)
	return true
}
