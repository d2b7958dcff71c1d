package lock

import (
	"context"
	"sync"
)

// Keyed hands out one exclusive slot per key. Acquisition honours context
// cancellation, unlike sync.Mutex.
type Keyed struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch      chan struct{}
	waiters int
}

func NewKeyed() *Keyed {
	return &Keyed{slots: make(map[string]*slot)}
}

// Lock blocks until the key is free or ctx is done. The returned func
// releases the key and must be called exactly once.
func (k *Keyed) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	s, ok := k.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.waiters++
	k.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		k.leave(key, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			k.leave(key, s)
		})
	}, nil
}

func (k *Keyed) leave(key string, s *slot) {
	k.mu.Lock()
	s.waiters--
	if s.waiters == 0 {
		delete(k.slots, key)
	}
	k.mu.Unlock()
}
