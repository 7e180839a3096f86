package cache

import (
	"sync"
	"testing"
	"time"

	"asterix/internal/beacon"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorCache_SendPolicy(t *testing.T) {
	dc := New(0)
	d := beacon.Descriptor{RegNumber: "ABC123", Model: "ASK-21"}

	require.True(t, dc.ShouldSend("ABC123", d), "first sighting must be sent")
	dc.Record("ABC123", d)

	assert.False(t, dc.ShouldSend("ABC123", d), "unchanged descriptor must be suppressed")

	changed := d
	changed.Owner = "new owner"
	assert.True(t, dc.ShouldSend("ABC123", changed), "changed descriptor must be sent")

	dc.Record("ABC123", changed)
	assert.False(t, dc.ShouldSend("ABC123", changed))
	assert.True(t, dc.ShouldSend("ABC123", d), "reverting to the old value is a change too")
}

func TestDescriptorCache_ShouldSendDoesNotCommit(t *testing.T) {
	dc := New(0)
	d := beacon.Descriptor{RegNumber: "ABC123"}

	assert.True(t, dc.ShouldSend("ABC123", d))
	assert.True(t, dc.ShouldSend("ABC123", d))
	assert.Equal(t, 0, dc.Len())
}

func TestDescriptorCache_EmptyRegistration(t *testing.T) {
	dc := New(0)
	d := beacon.Descriptor{Model: "unknown"}

	dc.Record("", d)
	assert.True(t, dc.ShouldSend("", d))
	assert.Equal(t, 0, dc.Len())
}

func TestDescriptorCache_IndependentKeys(t *testing.T) {
	dc := New(0)
	a := beacon.Descriptor{RegNumber: "AAA"}
	b := beacon.Descriptor{RegNumber: "BBB"}

	dc.Record("AAA", a)
	assert.False(t, dc.ShouldSend("AAA", a))
	assert.True(t, dc.ShouldSend("BBB", b))
	assert.Equal(t, 1, dc.Len())
}

func TestDescriptorCache_IdleExpiry(t *testing.T) {
	dc := New(20 * time.Millisecond)
	d := beacon.Descriptor{RegNumber: "ABC123"}
	assert.Equal(t, 20*time.Millisecond, dc.TTL())

	dc.Record("ABC123", d)
	assert.False(t, dc.ShouldSend("ABC123", d))

	time.Sleep(40 * time.Millisecond)
	assert.True(t, dc.ShouldSend("ABC123", d), "expired entry must be sent again")

	assert.Equal(t, 1, dc.DeleteExpired())
	assert.Equal(t, 0, dc.Len())
}

func TestDescriptorCache_NoExpiryByDefault(t *testing.T) {
	dc := New(0)
	assert.Equal(t, time.Duration(0), dc.TTL())

	dc.Record("ABC123", beacon.Descriptor{RegNumber: "ABC123"})
	assert.Equal(t, 0, dc.DeleteExpired())
	assert.Equal(t, 1, dc.Len())
}

func TestDescriptorCache_ConcurrentAccess(t *testing.T) {
	dc := New(0)
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d := beacon.Descriptor{RegNumber: "ABC123", CN: string(rune('A' + i))}
			for j := 0; j < 100; j++ {
				if dc.ShouldSend(d.RegNumber, d) {
					dc.Record(d.RegNumber, d)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, dc.Len())
}
