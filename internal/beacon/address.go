package beacon

import (
	"fmt"
	"strconv"
	"strings"
)

const addressMask = 0xFFFFFF

// ParseAddress converts the hex form of an aircraft address ("DD1234",
// optionally prefixed with "0x") into its 24-bit value.
func ParseAddress(id string) (uint32, error) {
	s := strings.TrimSpace(id)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" || len(s) > 6 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, id)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, id)
	}
	return uint32(v) & addressMask, nil
}

// FormatAddress is the inverse of ParseAddress.
func FormatAddress(addr uint32) string {
	return fmt.Sprintf("%06X", addr&addressMask)
}
