// Package beacon holds the aircraft report types the forwarder consumes.
package beacon

import "time"

// AddressType is the kind of the 24-bit aircraft address.
type AddressType uint8

const (
	AddressUnknown AddressType = 0
	AddressICAO    AddressType = 1
	AddressFLARM   AddressType = 2
	AddressOGN     AddressType = 3
)

// AircraftType is the OGN aircraft category code.
type AircraftType uint8

const (
	AircraftUnknown      AircraftType = 0
	AircraftGlider       AircraftType = 1
	AircraftTowPlane     AircraftType = 2
	AircraftHelicopter   AircraftType = 3
	AircraftParachute    AircraftType = 4
	AircraftDropPlane    AircraftType = 5
	AircraftHangGlider   AircraftType = 6
	AircraftParaglider   AircraftType = 7
	AircraftPowered      AircraftType = 8
	AircraftJet          AircraftType = 9
	AircraftUFO          AircraftType = 10
	AircraftBalloon      AircraftType = 11
	AircraftAirship      AircraftType = 12
	AircraftUAV          AircraftType = 13
	AircraftStaticObject AircraftType = 15
)

// Beacon is one aircraft position report. It is produced per event and
// never stored.
type Beacon struct {
	Address      uint32 // 24-bit
	AddressType  AddressType
	AircraftType AircraftType
	Lat          float64 // degrees
	Lon          float64 // degrees
	Altitude     int     // meters
	ClimbRate    float64 // m/s
	GroundSpeed  float64 // km/h
	Track        float64 // degrees
	TurnRate     float64
	ErrorCount   int
	Timestamp    time.Time
}

// Descriptor is the identity metadata of an aircraft. Two descriptors are
// the same iff they compare equal with ==.
type Descriptor struct {
	RegNumber  string
	CN         string
	Owner      string
	HomeBase   string
	Model      string
	FreqMhz    string
	Tracked    bool
	Identified bool
}
