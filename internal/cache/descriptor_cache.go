// Package cache remembers, per registration number, the last descriptor that
// went out on the wire so unchanged descriptors are not repeated.
package cache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"asterix/internal/beacon"
)

// DescriptorCache maps registration numbers to the last transmitted
// descriptor. Entries live forever unless an idle TTL is configured, in which
// case an entry not refreshed within the TTL is dropped and the descriptor is
// sent again on the next sighting.
type DescriptorCache struct {
	// Do not embed, keeps the go-cache API out of ours.
	c   *gocache.Cache
	ttl time.Duration
	mu  sync.RWMutex
}

// New creates a cache. ttl <= 0 disables eviction.
func New(ttl time.Duration) *DescriptorCache {
	exp := gocache.NoExpiration
	if ttl > 0 {
		exp = ttl
	}
	// Expired entries are removed by DeleteExpired, there is no janitor
	// goroutine to stop.
	return &DescriptorCache{
		c:   gocache.New(exp, 0),
		ttl: exp,
	}
}

// ShouldSend reports whether d has to be attached to the next record for reg:
// true on first sighting or when d differs from the last recorded value.
// An empty registration number can't be tracked and always sends.
func (dc *DescriptorCache) ShouldSend(reg string, d beacon.Descriptor) bool {
	if reg == "" {
		return true
	}

	dc.mu.RLock()
	defer dc.mu.RUnlock()

	last, ok := dc.get(reg)
	return !ok || last != d
}

// Record commits d as the last transmitted descriptor for reg and restarts
// its idle timer. Call it only after d, or an equal descriptor, was handed to
// the transport.
func (dc *DescriptorCache) Record(reg string, d beacon.Descriptor) {
	if reg == "" {
		return
	}

	dc.mu.Lock()
	defer dc.mu.Unlock()

	dc.c.Set(reg, d, gocache.DefaultExpiration)
}

// DeleteExpired removes idle entries and returns how many were dropped.
func (dc *DescriptorCache) DeleteExpired() int {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	var cnt int
	dc.c.OnEvicted(func(string, interface{}) {
		cnt++
	})
	dc.c.DeleteExpired()
	dc.c.OnEvicted(nil)
	return cnt
}

// Len returns the number of cached registrations, expired ones included.
func (dc *DescriptorCache) Len() int {
	dc.mu.RLock()
	defer dc.mu.RUnlock()

	return dc.c.ItemCount()
}

// TTL returns the idle timeout, or 0 when entries never expire.
func (dc *DescriptorCache) TTL() time.Duration {
	if dc.ttl == gocache.NoExpiration {
		return 0
	}
	return dc.ttl
}

func (dc *DescriptorCache) get(reg string) (beacon.Descriptor, bool) {
	obj, ok := dc.c.Get(reg)
	if !ok {
		return beacon.Descriptor{}, false
	}
	return obj.(beacon.Descriptor), true
}
