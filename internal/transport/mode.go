package transport

import (
	"fmt"
	"strings"
)

// Mode is the set of delivery methods a Transport uses. Both bits may be set.
type Mode uint8

const (
	ModeBroadcast Mode = 1 << iota
	ModeMulticast
)

func (m Mode) Has(f Mode) bool {
	return m&f != 0
}

func (m Mode) String() string {
	switch m {
	case 0:
		return "none"
	case ModeBroadcast:
		return "broadcast"
	case ModeMulticast:
		return "multicast"
	case ModeBroadcast | ModeMulticast:
		return "both"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ParseMode accepts "broadcast", "multicast", "both" or a "+" or ","
// separated list like "broadcast+multicast".
func ParseMode(s string) (Mode, error) {
	const op = "transport.ParseMode"

	var m Mode
	for _, part := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == '+' || r == ',' || r == ' '
	}) {
		switch part {
		case "broadcast":
			m |= ModeBroadcast
		case "multicast":
			m |= ModeMulticast
		case "both":
			m |= ModeBroadcast | ModeMulticast
		default:
			return 0, fmt.Errorf("%s: %w: %q", op, ErrUnknownMode, part)
		}
	}
	if m == 0 {
		return 0, fmt.Errorf("%s: %w", op, ErrNoMode)
	}

	return m, nil
}
