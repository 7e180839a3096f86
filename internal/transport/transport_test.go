package transport

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/ipv4"

	"asterix/internal/util/logger/handlers/slogdiscard"
)

func listenLocal(t *testing.T, addr string) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.ParseIP(addr)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readOne(t *testing.T, conn *net.UDPConn) []byte {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 1500)
	n, _, err := conn.ReadFromUDP(buf)
	require.NoError(t, err)
	return buf[:n]
}

func broadcastConfig(port int) Config {
	cfg := DefaultConfig()
	cfg.BroadcastPort = port
	return cfg
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr error
	}{
		{in: "broadcast", want: ModeBroadcast},
		{in: "multicast", want: ModeMulticast},
		{in: "both", want: ModeBroadcast | ModeMulticast},
		{in: "Broadcast+Multicast", want: ModeBroadcast | ModeMulticast},
		{in: "multicast, broadcast", want: ModeBroadcast | ModeMulticast},
		{in: "", wantErr: ErrNoMode},
		{in: "unicast", wantErr: ErrUnknownMode},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "none", Mode(0).String())
	assert.Equal(t, "broadcast", ModeBroadcast.String())
	assert.Equal(t, "multicast", ModeMulticast.String())
	assert.Equal(t, "both", (ModeBroadcast | ModeMulticast).String())
	assert.True(t, (ModeBroadcast | ModeMulticast).Has(ModeMulticast))
	assert.False(t, ModeBroadcast.Has(ModeMulticast))
}

func TestSend_NotReady(t *testing.T) {
	tr := New(DefaultConfig(), slogdiscard.NewDiscardLogger())

	n, err := tr.Send([]byte{1})
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Zero(t, n)

	require.NoError(t, tr.Start(context.Background(), nil))
	tr.Stop()

	_, err = tr.Send([]byte{1})
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestStop_Idempotent(t *testing.T) {
	tr := New(DefaultConfig(), slogdiscard.NewDiscardLogger())

	assert.NotPanics(t, func() {
		tr.Stop()
		tr.Stop()
	})

	require.NoError(t, tr.Start(context.Background(), nil))
	assert.NotPanics(t, func() {
		tr.Stop()
		tr.Stop()
	})
}

func TestStart_Twice(t *testing.T) {
	tr := New(DefaultConfig(), slogdiscard.NewDiscardLogger())
	require.NoError(t, tr.Start(context.Background(), nil))
	defer tr.Stop()

	err := tr.Start(context.Background(), nil)
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestStart_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name:    "no mode",
			cfg:     Config{},
			wantErr: ErrNoMode,
		},
		{
			name:    "group not multicast",
			cfg:     Config{Mode: ModeMulticast, MulticastGroup: "127.0.0.1", MulticastPort: 4446},
			wantErr: ErrBadGroup,
		},
		{
			name:    "group not an address",
			cfg:     Config{Mode: ModeMulticast, MulticastGroup: "group", MulticastPort: 4446},
			wantErr: ErrBadGroup,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(tt.cfg, slogdiscard.NewDiscardLogger())
			err := tr.Start(context.Background(), nil)
			assert.ErrorIs(t, err, tt.wantErr)
			_, err = tr.Send([]byte{1})
			assert.ErrorIs(t, err, ErrNotReady)
		})
	}
}

func TestSend_Broadcast(t *testing.T) {
	rx := listenLocal(t, "127.0.0.1")
	port := rx.LocalAddr().(*net.UDPAddr).Port

	tr := New(broadcastConfig(port), slogdiscard.NewDiscardLogger())
	require.NoError(t, tr.Start(context.Background(), []net.IP{net.IPv4(127, 0, 0, 1)}))
	defer tr.Stop()

	assert.Equal(t, []string{net.JoinHostPort("127.0.0.1", strconv.Itoa(port))}, tr.Destinations())

	payload := []byte{0xCA, 0xFE, 0x62}
	n, err := tr.Send(payload)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, payload, readOne(t, rx))
}

func TestSend_EveryDestination(t *testing.T) {
	rx1 := listenLocal(t, "127.0.0.1")
	port := rx1.LocalAddr().(*net.UDPAddr).Port

	rx2, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.ParseIP("127.0.0.2"), Port: port})
	if err != nil {
		t.Skipf("second loopback address unavailable: %v", err)
	}
	defer rx2.Close()

	tr := New(broadcastConfig(port), slogdiscard.NewDiscardLogger())
	require.NoError(t, tr.Start(context.Background(), []net.IP{
		net.IPv4(127, 0, 0, 1),
		net.IPv4(127, 0, 0, 2),
	}))
	defer tr.Stop()

	payload := []byte("record")
	n, err := tr.Send(payload)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, payload, readOne(t, rx1))
	assert.Equal(t, payload, readOne(t, rx2))
}

func TestSend_PartialFailure(t *testing.T) {
	rx := listenLocal(t, "127.0.0.1")
	port := rx.LocalAddr().(*net.UDPAddr).Port

	tr := New(broadcastConfig(port), slogdiscard.NewDiscardLogger())
	require.NoError(t, tr.Start(context.Background(), []net.IP{net.IPv4(127, 0, 0, 1)}))
	defer tr.Stop()

	// the kernel refuses UDP datagrams to port 0
	tr.dests = append([]*net.UDPAddr{{IP: net.IPv4(127, 0, 0, 1), Port: 0}}, tr.dests...)

	payload := []byte("record")
	n, err := tr.Send(payload)
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, payload, readOne(t, rx))
}

func TestStart_AfterStopRebinds(t *testing.T) {
	rx := listenLocal(t, "127.0.0.1")
	port := rx.LocalAddr().(*net.UDPAddr).Port

	tr := New(broadcastConfig(port), slogdiscard.NewDiscardLogger())
	bcast := []net.IP{net.IPv4(127, 0, 0, 1)}

	for i := 0; i < 3; i++ {
		require.NoError(t, tr.Start(context.Background(), bcast))
		_, err := tr.Send([]byte{byte(i)})
		require.NoError(t, err)
		assert.Equal(t, []byte{byte(i)}, readOne(t, rx))
		tr.Stop()
	}
}

func TestStart_MulticastOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeMulticast
	cfg.MulticastTTL = 3
	cfg.MulticastLoopback = false

	tr := New(cfg, slogdiscard.NewDiscardLogger())
	require.NoError(t, tr.Start(context.Background(), []net.IP{net.IPv4(127, 0, 0, 1)}))
	defer tr.Stop()

	// broadcast addresses are ignored without ModeBroadcast
	assert.Equal(t, []string{"230.0.0.0:4446"}, tr.Destinations())

	p := ipv4.NewPacketConn(tr.conn)
	ttl, err := p.MulticastTTL()
	require.NoError(t, err)
	assert.Equal(t, 3, ttl)

	loop, err := p.MulticastLoopback()
	require.NoError(t, err)
	assert.False(t, loop)
}

func TestStart_UnknownMulticastInterface(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeMulticast
	cfg.MulticastInterface = "does-not-exist0"

	tr := New(cfg, slogdiscard.NewDiscardLogger())
	err := tr.Start(context.Background(), nil)
	require.Error(t, err)
	_, err = tr.Send([]byte{1})
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestStart_BothModes(t *testing.T) {
	cfg := broadcastConfig(4999)
	cfg.Mode = ModeBroadcast | ModeMulticast

	tr := New(cfg, slogdiscard.NewDiscardLogger())
	require.NoError(t, tr.Start(context.Background(), []net.IP{net.IPv4(10, 0, 0, 255)}))
	defer tr.Stop()

	assert.Equal(t, []string{"10.0.0.255:4999", "230.0.0.0:4446"}, tr.Destinations())
}
