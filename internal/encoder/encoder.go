// Package encoder packs beacons into the fixed-layout ASTERIX cat. 62
// variant record and unpacks them again.
//
// Record layout, all multi-byte fields big-endian:
//
//	off size field
//	  0    4 extended id: address | addrType<<24 | acftType<<26
//	  4    4 unix timestamp, seconds
//	  8    4 latitude, 1e-7 deg
//	 12    4 longitude, 1e-7 deg
//	 16    2 altitude, m
//	 18    2 vertical rate, 0.1 m/s
//	 20    2 ground speed, 0.1 m/s
//	 22    2 track, 360/65536 deg
//	 24    2 turn rate, 360/65536 units
//	 26    1 aircraft type
//	 27    1 receive error count
//	 28    1 horizontal accuracy (reserved)
//	 29    1 vertical accuracy (reserved)
//	 30    1 movement mode (reserved)
//	 31    1 flags
//
// When FlagDescriptor is set the descriptor block follows the header.
package encoder

import (
	"encoding/binary"
	"math"

	"asterix/internal/beacon"
)

const (
	HeaderLen = 32

	// FlagDescriptor marks a record carrying a descriptor block.
	FlagDescriptor uint8 = 0x01
)

const (
	offExtendedID   = 0
	offTimestamp    = 4
	offLat          = 8
	offLon          = 12
	offAltitude     = 16
	offClimbRate    = 18
	offGroundSpeed  = 20
	offTrack        = 22
	offTurnRate     = 24
	offAircraftType = 26
	offErrorCount   = 27
	offAccHor       = 28
	offAccVer       = 29
	offMovementMode = 30
	offFlags        = 31
)

const (
	addressMask      = 0xFFFFFF
	addressTypeMask  = 0x03
	aircraftTypeMask = 0x3F

	coordScale  = 1e7
	rateScale   = 10.0
	kmhPerMs    = 3.6
	angleScale  = 65536.0 / 360.0
	fullCircle  = 360.0
	trackModulo = 65536
)

// Encode serializes b, and d when it is not nil, into a new record. It never
// fails: values outside a field's range are clamped to the nearest
// representable value and NaN encodes as zero.
func Encode(b beacon.Beacon, d *beacon.Descriptor) []byte {
	var block []byte
	if d != nil {
		block = encodeDescriptor(d)
	}

	buf := make([]byte, HeaderLen, HeaderLen+len(block))

	binary.BigEndian.PutUint32(buf[offExtendedID:], ExtendedID(b.Address, b.AddressType, b.AircraftType))
	binary.BigEndian.PutUint32(buf[offTimestamp:], uint32(b.Timestamp.Unix()))
	binary.BigEndian.PutUint32(buf[offLat:], uint32(scaleInt32(b.Lat*coordScale)))
	binary.BigEndian.PutUint32(buf[offLon:], uint32(scaleInt32(b.Lon*coordScale)))
	binary.BigEndian.PutUint16(buf[offAltitude:], uint16(scaleInt16(float64(b.Altitude))))
	binary.BigEndian.PutUint16(buf[offClimbRate:], uint16(scaleInt16(b.ClimbRate*rateScale)))
	binary.BigEndian.PutUint16(buf[offGroundSpeed:], uint16(scaleInt16(b.GroundSpeed/kmhPerMs*rateScale)))
	binary.BigEndian.PutUint16(buf[offTrack:], scaleTrack(b.Track))
	binary.BigEndian.PutUint16(buf[offTurnRate:], uint16(scaleInt16(b.TurnRate*angleScale)))

	buf[offAircraftType] = uint8(b.AircraftType)
	buf[offErrorCount] = clampUint8(b.ErrorCount)
	buf[offAccHor] = 0
	buf[offAccVer] = 0
	buf[offMovementMode] = 0

	if d != nil {
		buf[offFlags] |= FlagDescriptor
		buf = append(buf, block...)
	}

	return buf
}

// ExtendedID packs the aircraft address with its address and aircraft type
// codes. Each part is masked to its bit width.
func ExtendedID(addr uint32, at beacon.AddressType, ac beacon.AircraftType) uint32 {
	return addr&addressMask |
		(uint32(at)&addressTypeMask)<<24 |
		(uint32(ac)&aircraftTypeMask)<<26
}

func scaleInt32(v float64) int32 {
	return int32(saturate(v, math.MinInt32, math.MaxInt32))
}

func scaleInt16(v float64) int16 {
	return int16(saturate(v, math.MinInt16, math.MaxInt16))
}

// scaleTrack maps a compass angle onto the full uint16 circle. Angles outside
// [0, 360) wrap, they are not clamped.
func scaleTrack(deg float64) uint16 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	deg = math.Mod(deg, fullCircle)
	if deg < 0 {
		deg += fullCircle
	}
	v := int64(math.Round(deg * angleScale))
	return uint16(v % trackModulo)
}

// saturate rounds half away from zero and clamps into [lo, hi].
func saturate(v, lo, hi float64) int64 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Round(v)
	if v < lo {
		return int64(lo)
	}
	if v > hi {
		return int64(hi)
	}
	return int64(v)
}

func clampUint8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > math.MaxUint8 {
		return math.MaxUint8
	}
	return uint8(v)
}
