// Aurora Sensa - Telemetry Gateway for the Aurora Monitoring Backend
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub002

// Package cache provides a thread-safe in-memory TTL cache for gateway
// responses.
//
// Keys are request descriptors ("GET /api/sensors/list"), kept human-readable
// so that InvalidatePattern can match on path substrings after mutations.
// Entries older than their TTL are treated as absent; a background janitor
// sweeps expired entries periodically.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/tophatsecurity/aurorasensa-sub002/internal/metrics"
)

// janitorInterval is how often the background sweep removes expired entries.
const janitorInterval = 5 * time.Minute

// Entry is a cached value with its expiry deadline.
type Entry struct {
	Data      interface{}
	ExpiresAt time.Time
}

// Stats tracks cache performance counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	TotalKeys int64
}

// Cache is a thread-safe in-memory cache with per-entry TTL.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	name    string // metrics cache_type label

	statsMu sync.Mutex
	stats   Stats

	stop chan struct{}
	once sync.Once
}

// New creates a cache with the given default TTL and starts the janitor.
// The name labels this cache's prometheus series.
func New(name string, ttl time.Duration) *Cache {
	c := &Cache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		name:    name,
		stop:    make(chan struct{}),
	}
	go c.janitor()
	return c
}

// Stop terminates the background janitor. The cache remains usable.
func (c *Cache) Stop() {
	c.once.Do(func() { close(c.stop) })
}

// Get returns the cached value for key if present and fresh.
// Expired entries are removed and reported as misses.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		c.recordMiss()
		c.recordEvictions(1)
		return nil, false
	}

	c.recordHit()
	return entry.Data, true
}

// Set stores a value with the cache's default TTL.
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with an explicit TTL, overwriting any existing
// entry for the key.
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = Entry{
		Data:      value,
		ExpiresAt: time.Now().Add(ttl),
	}
	total := int64(len(c.entries))
	c.mu.Unlock()

	c.statsMu.Lock()
	c.stats.TotalKeys = total
	c.statsMu.Unlock()
}

// Delete removes a single entry.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	_, existed := c.entries[key]
	delete(c.entries, key)
	c.mu.Unlock()

	if existed {
		c.recordEvictions(1)
	}
}

// InvalidatePattern removes every entry whose key contains the given
// substring. An empty pattern clears the whole cache. Returns the number of
// entries removed.
func (c *Cache) InvalidatePattern(pattern string) int {
	c.mu.Lock()
	var removed int64
	if pattern == "" {
		removed = int64(len(c.entries))
		c.entries = make(map[string]Entry)
	} else {
		for key := range c.entries {
			if strings.Contains(key, pattern) {
				delete(c.entries, key)
				removed++
			}
		}
	}
	total := int64(len(c.entries))
	c.mu.Unlock()

	c.recordEvictions(removed)
	c.statsMu.Lock()
	c.stats.TotalKeys = total
	c.statsMu.Unlock()
	return int(removed)
}

// GetStats returns a snapshot of the cache counters.
func (c *Cache) GetStats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

// HitRate returns the hit percentage over the cache's lifetime.
func (c *Cache) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

// janitor periodically sweeps expired entries until Stop is called.
func (c *Cache) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

// sweep removes all expired entries.
func (c *Cache) sweep() {
	now := time.Now()
	c.mu.Lock()
	var evicted int64
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	total := int64(len(c.entries))
	c.mu.Unlock()

	c.recordEvictions(evicted)
	c.statsMu.Lock()
	c.stats.TotalKeys = total
	c.statsMu.Unlock()
}

func (c *Cache) recordHit() {
	c.statsMu.Lock()
	c.stats.Hits++
	c.statsMu.Unlock()
	metrics.CacheHits.WithLabelValues(c.name).Inc()
}

func (c *Cache) recordMiss() {
	c.statsMu.Lock()
	c.stats.Misses++
	c.statsMu.Unlock()
	metrics.CacheMisses.WithLabelValues(c.name).Inc()
}

func (c *Cache) recordEvictions(n int64) {
	if n == 0 {
		return
	}
	c.statsMu.Lock()
	c.stats.Evictions += n
	c.statsMu.Unlock()
	metrics.CacheEvictions.WithLabelValues(c.name).Add(float64(n))
}
