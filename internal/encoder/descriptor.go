package encoder

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"asterix/internal/beacon"
)

// Descriptor block: a uint16 length of the entries that follow, then a
// sequence of tag(1) len(1) value(len) entries. Empty strings are left out,
// values longer than 255 bytes are cut.
const (
	tagRegNumber uint8 = 1
	tagCN        uint8 = 2
	tagOwner     uint8 = 3
	tagHomeBase  uint8 = 4
	tagModel     uint8 = 5
	tagFreqMhz   uint8 = 6
	tagFlags     uint8 = 7

	descTracked    uint8 = 0x01
	descIdentified uint8 = 0x02

	blockLenSize = 2
	maxValueLen  = 255
)

func encodeDescriptor(d *beacon.Descriptor) []byte {
	entries := make([]byte, 0, 64)

	entries = appendString(entries, tagRegNumber, d.RegNumber)
	entries = appendString(entries, tagCN, d.CN)
	entries = appendString(entries, tagOwner, d.Owner)
	entries = appendString(entries, tagHomeBase, d.HomeBase)
	entries = appendString(entries, tagModel, d.Model)
	entries = appendString(entries, tagFreqMhz, d.FreqMhz)

	var flags uint8
	if d.Tracked {
		flags |= descTracked
	}
	if d.Identified {
		flags |= descIdentified
	}
	entries = append(entries, tagFlags, 1, flags)

	block := make([]byte, blockLenSize, blockLenSize+len(entries))
	binary.BigEndian.PutUint16(block, uint16(len(entries)))
	return append(block, entries...)
}

func appendString(dst []byte, tag uint8, s string) []byte {
	if s == "" {
		return dst
	}
	if len(s) > maxValueLen {
		// cut on a rune boundary so the value stays valid UTF-8
		cut := maxValueLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	dst = append(dst, tag, uint8(len(s)))
	return append(dst, s...)
}

// decodeDescriptor parses a descriptor block and returns the descriptor and
// the number of bytes consumed. Unknown tags are skipped.
func decodeDescriptor(b []byte) (*beacon.Descriptor, int, error) {
	const op = "encoder.decodeDescriptor"

	if len(b) < blockLenSize {
		return nil, 0, fmt.Errorf("%s: %w", op, ErrBadDescriptorBlock)
	}
	n := int(binary.BigEndian.Uint16(b))
	if len(b) < blockLenSize+n {
		return nil, 0, fmt.Errorf("%s: block length %d exceeds record: %w", op, n, ErrBadDescriptorBlock)
	}

	d := &beacon.Descriptor{}
	entries := b[blockLenSize : blockLenSize+n]
	for len(entries) > 0 {
		if len(entries) < 2 {
			return nil, 0, fmt.Errorf("%s: truncated entry: %w", op, ErrBadDescriptorBlock)
		}
		tag, l := entries[0], int(entries[1])
		if len(entries) < 2+l {
			return nil, 0, fmt.Errorf("%s: entry %d overruns block: %w", op, tag, ErrBadDescriptorBlock)
		}
		value := entries[2 : 2+l]
		entries = entries[2+l:]

		switch tag {
		case tagRegNumber:
			d.RegNumber = string(value)
		case tagCN:
			d.CN = string(value)
		case tagOwner:
			d.Owner = string(value)
		case tagHomeBase:
			d.HomeBase = string(value)
		case tagModel:
			d.Model = string(value)
		case tagFreqMhz:
			d.FreqMhz = string(value)
		case tagFlags:
			if l != 1 {
				return nil, 0, fmt.Errorf("%s: flags entry length %d: %w", op, l, ErrBadDescriptorBlock)
			}
			d.Tracked = value[0]&descTracked != 0
			d.Identified = value[0]&descIdentified != 0
		}
	}

	return d, blockLenSize + n, nil
}
