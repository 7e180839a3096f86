package feed

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"asterix/internal/beacon"
	"asterix/internal/util/logger/handlers/slogdiscard"
)

func TestParse(t *testing.T) {
	line := `{"address":"DD1234","address_type":2,"aircraft_type":1,"lat":50.1234567,"lon":19.7654321,
		"altitude":1000,"climb_rate":2.5,"ground_speed":180,"track":90,"turn_rate":-1.5,"error_count":3,
		"timestamp":"2024-05-01T12:00:00Z",
		"descriptor":{"reg":"ABC123","cn":"XY","owner":"Aeroklub","home_base":"EPKP","model":"ASK-21","freq":"123.500","tracked":true}}`

	ev, err := Parse([]byte(line))
	require.NoError(t, err)

	assert.Equal(t, beacon.Beacon{
		Address:      0xDD1234,
		AddressType:  beacon.AddressFLARM,
		AircraftType: beacon.AircraftGlider,
		Lat:          50.1234567,
		Lon:          19.7654321,
		Altitude:     1000,
		ClimbRate:    2.5,
		GroundSpeed:  180,
		Track:        90,
		TurnRate:     -1.5,
		ErrorCount:   3,
		Timestamp:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}, ev.Beacon)

	require.NotNil(t, ev.Descriptor)
	assert.Equal(t, beacon.Descriptor{
		RegNumber: "ABC123",
		CN:        "XY",
		Owner:     "Aeroklub",
		HomeBase:  "EPKP",
		Model:     "ASK-21",
		FreqMhz:   "123.500",
		Tracked:   true,
	}, *ev.Descriptor)
}

func TestParse_Minimal(t *testing.T) {
	ev, err := Parse([]byte(`{"address":"0x3f00aa","lat":-33.9,"lon":151.2}`))
	require.NoError(t, err)

	assert.Equal(t, uint32(0x3F00AA), ev.Beacon.Address)
	assert.True(t, ev.Beacon.Timestamp.IsZero())
	assert.Nil(t, ev.Descriptor)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr error
	}{
		{name: "not json", line: `DD1234 50.1 19.7`},
		{name: "missing address", line: `{"lat":1,"lon":2}`, wantErr: ErrMissingAddress},
		{name: "bad address", line: `{"address":"XYZ","lat":1,"lon":2}`, wantErr: beacon.ErrInvalidAddress},
		{name: "missing position", line: `{"address":"DD1234","lat":1}`, wantErr: ErrBadPosition},
		{name: "latitude out of range", line: `{"address":"DD1234","lat":91,"lon":2}`, wantErr: ErrBadPosition},
		{name: "longitude out of range", line: `{"address":"DD1234","lat":1,"lon":-180.5}`, wantErr: ErrBadPosition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.line))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestRead(t *testing.T) {
	in := strings.Join([]string{
		`{"address":"DD1234","lat":50,"lon":19,"descriptor":{"reg":"ABC123"}}`,
		``,
		`garbage`,
		`   {"address":"DD1235","lat":51,"lon":20}   `,
		`{"address":"DD1236","lat":95,"lon":20}`,
	}, "\n")

	var got []Event
	n, err := Read(context.Background(), strings.NewReader(in), slogdiscard.NewDiscardLogger(), func(ev Event) {
		got = append(got, ev)
	})
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	require.Len(t, got, 2)
	assert.Equal(t, uint32(0xDD1234), got[0].Beacon.Address)
	require.NotNil(t, got[0].Descriptor)
	assert.Equal(t, "ABC123", got[0].Descriptor.RegNumber)
	assert.Equal(t, uint32(0xDD1235), got[1].Beacon.Address)
	assert.Nil(t, got[1].Descriptor)
}

func TestRead_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	n, err := Read(ctx, strings.NewReader(`{"address":"DD1234","lat":50,"lon":19}`), slogdiscard.NewDiscardLogger(), func(Event) {
		called = true
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
	assert.False(t, called)
}

func TestRead_CancelledWhileIdle(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())

	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := Read(ctx, pr, slogdiscard.NewDiscardLogger(), func(Event) {})
		done <- result{n, err}
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case res := <-done:
		assert.ErrorIs(t, res.err, context.Canceled)
		assert.Zero(t, res.n)
	case <-time.After(2 * time.Second):
		t.Fatal("Read did not return after cancel on idle input")
	}
}

func TestRead_LineTooLong(t *testing.T) {
	in := `{"address":"` + strings.Repeat("A", maxLineSize+1) + `"}`

	_, err := Read(context.Background(), strings.NewReader(in), slogdiscard.NewDiscardLogger(), func(Event) {})
	require.Error(t, err)
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
