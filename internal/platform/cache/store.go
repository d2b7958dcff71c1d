package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Store is an in-process TTL cache whose loads are deduplicated per key.
type Store[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration
	flight  singleflight.Group
	now     func() time.Time
}

func NewStore[V any](ttl time.Duration) *Store[V] {
	return &Store[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *Store[V]) Get(key string) (V, bool) {
	var zero V
	if key == "" {
		return zero, false
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if s.ttl > 0 && !e.expiresAt.After(s.now()) {
		s.Delete(key)
		return zero, false
	}

	return e.value, true
}

func (s *Store[V]) Set(key string, value V) {
	if key == "" {
		return
	}

	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry[V]{value: value, expiresAt: expiresAt}
	s.mu.Unlock()
}

func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

func (s *Store[V]) DeletePrefix(prefix string) {
	if prefix == "" {
		return
	}

	s.mu.Lock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()
}

// GetOrLoad returns the cached value or runs loader once for all concurrent
// callers of the same key. Loader errors are not cached.
func (s *Store[V]) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (V, error)) (V, error) {
	var zero V
	if loader == nil {
		return zero, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}
	if value, ok := s.Get(key); ok {
		return value, nil
	}

	value, err, _ := s.flight.Do(key, func() (any, error) {
		if cached, ok := s.Get(key); ok {
			return cached, nil
		}
		loaded, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		s.Set(key, loaded)
		return loaded, nil
	})
	if err != nil {
		return zero, err
	}

	return value.(V), nil
}
