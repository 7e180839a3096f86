package feed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asterix/internal/util/logger/handlers/slogdiscard"
)

type followResult struct {
	n   int
	err error
}

func startFollow(t *testing.T, ctx context.Context, path string) (<-chan Event, <-chan followResult) {
	t.Helper()

	events := make(chan Event, 16)
	done := make(chan followResult, 1)
	go func() {
		n, err := Follow(ctx, path, slogdiscard.NewDiscardLogger(), func(ev Event) {
			events <- ev
		})
		done <- followResult{n: n, err: err}
	}()
	return events, done
}

func nextEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("no event")
		return Event{}
	}
}

func appendTo(t *testing.T, path, s string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteString(s)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestFollow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beacons.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"address":"000001","lat":1,"lon":1}`+"\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, done := startFollow(t, ctx, path)

	assert.Equal(t, uint32(1), nextEvent(t, events).Beacon.Address)

	appendTo(t, path, `{"address":"000002","lat":2,"lon":2}`+"\n"+`{"address":"0000`)
	assert.Equal(t, uint32(2), nextEvent(t, events).Beacon.Address)

	appendTo(t, path, `03","lat":3,"lon":3}`+"\n")
	assert.Equal(t, uint32(3), nextEvent(t, events).Beacon.Address)

	cancel()
	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Equal(t, 3, res.n)
	case <-time.After(3 * time.Second):
		t.Fatal("follow did not stop")
	}
}

func TestFollow_Truncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beacons.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(
		`{"address":"000001","lat":1,"lon":1}`+"\n"+
			`{"address":"000002","lat":2,"lon":2}`+"\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, done := startFollow(t, ctx, path)

	assert.Equal(t, uint32(1), nextEvent(t, events).Beacon.Address)
	assert.Equal(t, uint32(2), nextEvent(t, events).Beacon.Address)

	require.NoError(t, os.Truncate(path, 0))
	appendTo(t, path, `{"address":"000003","lat":3,"lon":3}`+"\n")
	assert.Equal(t, uint32(3), nextEvent(t, events).Beacon.Address)

	cancel()
	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Equal(t, 3, res.n)
	case <-time.After(3 * time.Second):
		t.Fatal("follow did not stop")
	}
}

func TestFollow_Removed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beacons.jsonl")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, done := startFollow(t, ctx, path)

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.Remove(path))

	select {
	case res := <-done:
		assert.ErrorIs(t, res.err, ErrInputGone)
	case <-time.After(3 * time.Second):
		t.Fatal("follow did not notice removal")
	}
}

func TestFollow_Missing(t *testing.T) {
	_, err := Follow(context.Background(), filepath.Join(t.TempDir(), "nope"), slogdiscard.NewDiscardLogger(), func(Event) {})
	assert.Error(t, err)
}
