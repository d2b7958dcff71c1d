package memory

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/riskibarqy/fantasy-waivers/internal/domain/jobscheduler"
)

// JobDispatchRepository keeps the latest event per dispatch id.
type JobDispatchRepository struct {
	mu     sync.RWMutex
	events map[string]jobscheduler.DispatchEvent
}

func NewJobDispatchRepository() *JobDispatchRepository {
	return &JobDispatchRepository{events: make(map[string]jobscheduler.DispatchEvent)}
}

func (r *JobDispatchRepository) UpsertEvent(_ context.Context, event jobscheduler.DispatchEvent) error {
	dispatchID := strings.TrimSpace(event.DispatchID)
	if dispatchID == "" {
		return fmt.Errorf("dispatch id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.events[dispatchID]; ok && !event.Status.Supersedes(prev.Status) {
		return nil
	}
	event.Payload = maps.Clone(event.Payload)
	r.events[dispatchID] = event
	return nil
}

func (r *JobDispatchRepository) Get(dispatchID string) (jobscheduler.DispatchEvent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, ok := r.events[dispatchID]
	return event, ok
}
