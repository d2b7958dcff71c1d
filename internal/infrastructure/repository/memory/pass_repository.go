package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/fantasy-waivers/internal/domain/waiver"
)

type PassRepository struct {
	mu      sync.RWMutex
	records map[string]waiver.PassRecord
}

func NewPassRepository() *PassRepository {
	return &PassRepository{records: make(map[string]waiver.PassRecord)}
}

func passKey(leagueID string, cutoff time.Time) string {
	return leagueID + "|" + cutoff.UTC().Format(time.RFC3339Nano)
}

func (r *PassRepository) GetByCutoff(_ context.Context, leagueID string, cutoff time.Time) (waiver.PassRecord, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[passKey(leagueID, cutoff)]
	return record, ok, nil
}

func (r *PassRepository) Start(_ context.Context, record waiver.PassRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := passKey(record.LeagueID, record.Cutoff)
	if existing, ok := r.records[key]; ok && existing.Status == waiver.PassCompleted {
		return fmt.Errorf("pass for league=%s cutoff=%s already completed", record.LeagueID, record.Cutoff.UTC().Format(time.RFC3339))
	}
	r.records[key] = record
	return nil
}

func (r *PassRepository) Finish(_ context.Context, record waiver.PassRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := passKey(record.LeagueID, record.Cutoff)
	existing, ok := r.records[key]
	if !ok || existing.ID != record.ID {
		return fmt.Errorf("%w: pass=%s", waiver.ErrPassNotFound, record.ID)
	}
	r.records[key] = record
	return nil
}
