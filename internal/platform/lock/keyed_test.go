package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestKeyed_SerializesSameKey(t *testing.T) {
	k := NewKeyed()
	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := k.Lock(context.Background(), "league:epl")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			mu.Lock()
			active++
			maxSeen = max(maxSeen, active)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Fatalf("expected exclusive access, saw %d holders", maxSeen)
	}
	if len(k.slots) != 0 {
		t.Fatalf("expected slots to be cleaned up, got %d", len(k.slots))
	}
}

func TestKeyed_DifferentKeysDoNotBlock(t *testing.T) {
	k := NewKeyed()
	unlockA, err := k.Lock(context.Background(), "a")
	if err != nil {
		t.Fatalf("lock a: %v", err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := k.Lock(ctx, "b")
	if err != nil {
		t.Fatalf("lock b should not wait on a: %v", err)
	}
	unlockB()
}

func TestKeyed_HonoursContext(t *testing.T) {
	k := NewKeyed()
	unlock, err := k.Lock(context.Background(), "a")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := k.Lock(ctx, "a"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	unlock()
	unlock()
	if len(k.slots) != 0 {
		t.Fatalf("expected slot cleanup after release, got %d", len(k.slots))
	}
}
