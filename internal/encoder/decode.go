package encoder

import (
	"encoding/binary"
	"fmt"
	"time"

	"asterix/internal/beacon"
)

// Record is a decoded record in semantic units.
type Record struct {
	Beacon     beacon.Beacon
	Descriptor *beacon.Descriptor

	HorizontalAccuracy uint8
	VerticalAccuracy   uint8
	MovementMode       uint8
	Flags              uint8
}

// Decode parses a record produced by Encode. Scaled fields come back with the
// precision of their wire representation.
func Decode(b []byte) (Record, error) {
	const op = "encoder.Decode"

	if len(b) < HeaderLen {
		return Record{}, fmt.Errorf("%s: %d bytes: %w", op, len(b), ErrShortRecord)
	}

	ext := binary.BigEndian.Uint32(b[offExtendedID:])

	rec := Record{
		Beacon: beacon.Beacon{
			Address:      ext & addressMask,
			AddressType:  beacon.AddressType((ext >> 24) & addressTypeMask),
			AircraftType: beacon.AircraftType(b[offAircraftType]),
			Timestamp:    time.Unix(int64(binary.BigEndian.Uint32(b[offTimestamp:])), 0).UTC(),
			Lat:          float64(int32(binary.BigEndian.Uint32(b[offLat:]))) / coordScale,
			Lon:          float64(int32(binary.BigEndian.Uint32(b[offLon:]))) / coordScale,
			Altitude:     int(int16(binary.BigEndian.Uint16(b[offAltitude:]))),
			ClimbRate:    float64(int16(binary.BigEndian.Uint16(b[offClimbRate:]))) / rateScale,
			GroundSpeed:  float64(int16(binary.BigEndian.Uint16(b[offGroundSpeed:]))) / rateScale * kmhPerMs,
			Track:        float64(binary.BigEndian.Uint16(b[offTrack:])) / angleScale,
			TurnRate:     float64(int16(binary.BigEndian.Uint16(b[offTurnRate:]))) / angleScale,
			ErrorCount:   int(b[offErrorCount]),
		},
		HorizontalAccuracy: b[offAccHor],
		VerticalAccuracy:   b[offAccVer],
		MovementMode:       b[offMovementMode],
		Flags:              b[offFlags],
	}

	if rec.Flags&FlagDescriptor != 0 {
		d, _, err := decodeDescriptor(b[HeaderLen:])
		if err != nil {
			return Record{}, fmt.Errorf("%s: %w", op, err)
		}
		rec.Descriptor = d
	}

	return rec, nil
}
