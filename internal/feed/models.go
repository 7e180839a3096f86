package feed

import (
	"time"

	"asterix/internal/beacon"
)

// Event is one beacon with its optional descriptor.
type Event struct {
	Beacon     beacon.Beacon
	Descriptor *beacon.Descriptor
}

// jsonBeacon is the line format of a beacon feed:
//
//	{"address":"DD1234","address_type":2,"aircraft_type":1,"lat":50.1,"lon":19.7,
//	 "altitude":1000,"climb_rate":2.5,"ground_speed":180,"track":90,
//	 "timestamp":"2024-05-01T12:00:00Z","descriptor":{"reg":"ABC123"}}
type jsonBeacon struct {
	Address      string          `json:"address"`
	AddressType  uint8           `json:"address_type"`
	AircraftType uint8           `json:"aircraft_type"`
	Lat          *float64        `json:"lat"`
	Lon          *float64        `json:"lon"`
	Altitude     int             `json:"altitude"`
	ClimbRate    float64         `json:"climb_rate"`
	GroundSpeed  float64         `json:"ground_speed"`
	Track        float64         `json:"track"`
	TurnRate     float64         `json:"turn_rate"`
	ErrorCount   int             `json:"error_count"`
	Timestamp    time.Time       `json:"timestamp"`
	Descriptor   *jsonDescriptor `json:"descriptor,omitempty"`
}

type jsonDescriptor struct {
	Reg        string `json:"reg"`
	CN         string `json:"cn,omitempty"`
	Owner      string `json:"owner,omitempty"`
	HomeBase   string `json:"home_base,omitempty"`
	Model      string `json:"model,omitempty"`
	Freq       string `json:"freq,omitempty"`
	Tracked    bool   `json:"tracked,omitempty"`
	Identified bool   `json:"identified,omitempty"`
}
