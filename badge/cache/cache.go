// Package cache provides the in-process TTL store for recent verification
// outcomes. Entries are read-only once written and expire purely by elapsed
// time; there is no explicit invalidation.
package cache

import (
	"sync"
	"time"

	"github.com/scrolluniversity/go-badge-sdk/badge/common/model"
)

// Entry is a cached verification report with its expiry instant.
type Entry struct {
	Report    *model.VerificationReport
	ExpiresAt time.Time
}

// Opt configures a cache.
type Opt func(*Cache)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Opt {
	return func(c *Cache) {
		c.now = now
	}
}

// WithJanitor starts a background sweep at the given interval. Expiry is
// lazy regardless; the janitor only bounds memory for rarely-read keys.
func WithJanitor(interval time.Duration) Opt {
	return func(c *Cache) {
		c.janitorEvery = interval
	}
}

// Cache is a concurrent-safe TTL cache keyed by credential reference.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry

	now          func() time.Time
	janitorEvery time.Duration
	stopJanitor  chan struct{}
}

// New creates a cache.
func New(opts ...Opt) *Cache {
	c := &Cache{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.janitorEvery > 0 {
		c.stopJanitor = make(chan struct{})
		go c.janitor()
	}
	return c
}

// Get returns the cached report for the key, or false once the entry has
// expired or was never written.
func (c *Cache) Get(key string) (*model.VerificationReport, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Report, true
}

// Put stores a report under the key for the given TTL. A non-positive TTL
// stores nothing.
func (c *Cache) Put(key string, report *model.VerificationReport, ttl time.Duration) {
	if report == nil || ttl <= 0 {
		return
	}
	entry := Entry{
		Report:    report,
		ExpiresAt: c.now().Add(ttl),
	}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included until the
// next sweep.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stop terminates the janitor, if one was started.
func (c *Cache) Stop() {
	if c.stopJanitor != nil {
		close(c.stopJanitor)
	}
}

func (c *Cache) janitor() {
	ticker := time.NewTicker(c.janitorEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stopJanitor:
			return
		}
	}
}

func (c *Cache) sweep() {
	now := c.now()
	c.mu.Lock()
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}
