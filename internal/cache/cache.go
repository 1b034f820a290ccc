// Package cache implements a small in-memory TTL store for response
// bundles. Entries expire lazily on read and eagerly via a background
// janitor; last write wins under concurrency since equal inputs produce
// equivalent bundles.
package cache

import (
	"context"
	"sync"
	"time"

	"tokenlens/logger"
)

var log = logger.GetLogger()

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Store is a key to value map with per-entry TTL.
type Store struct {
	mu         sync.RWMutex
	entries    map[string]entry
	defaultTTL time.Duration
}

// New creates a store with the given default TTL.
func New(defaultTTL time.Duration) *Store {
	return &Store{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
	}
}

// Get returns the cached value, or nil and false when the key is absent or
// expired.
func (s *Store) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		logger.IncrementCacheMiss()
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock, another writer may have refreshed it.
		if cur, ok := s.entries[key]; ok && time.Now().After(cur.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		logger.IncrementCacheMiss()
		return nil, false
	}
	logger.IncrementCacheHit()
	return e.value, true
}

// Set stores a value with the default TTL. Nil values are never cached so a
// failed fetch cannot mask later successful ones.
func (s *Store) Set(key string, value interface{}) {
	s.SetWithTTL(key, value, s.defaultTTL)
}

// SetWithTTL stores a value with an explicit TTL.
func (s *Store) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	if value == nil {
		return
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	s.mu.Lock()
	s.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
}

// Delete removes a key.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Len returns the number of stored entries, including not yet collected
// expired ones.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// StartJanitor removes expired entries on the given interval until the
// context is cancelled.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := s.evictExpired()
				if removed > 0 {
					log.WithComponent("cache").WithFields(logger.Fields{"removed": removed}).Debug("expired cache entries evicted")
				}
			}
		}
	}()
}

func (s *Store) evictExpired() int {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// BundleKey builds the cache key for a base token data bundle.
func BundleKey(chain, address string) string {
	return "baseTokenData:" + chain + ":" + address
}

// AnalyticsKey builds the cache key for the analytics-only response.
func AnalyticsKey(chain, address string) string {
	return "tokenAnalytics:" + chain + ":" + address
}
