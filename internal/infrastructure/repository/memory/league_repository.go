package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/riskibarqy/fantasy-waivers/internal/domain/league"
)

// LeagueRepository serves a fixed set of leagues. Waiver settings are cloned
// on the way in and out so callers never share the slot cap map.
type LeagueRepository struct {
	mu    sync.RWMutex
	items map[string]league.League
	ids   []string
}

func NewLeagueRepository(leagues []league.League) *LeagueRepository {
	items := make(map[string]league.League, len(leagues))
	for _, l := range leagues {
		l.Waiver = l.Waiver.Clone()
		items[l.ID] = l
	}

	return &LeagueRepository{
		items: items,
		ids:   slices.Sorted(maps.Keys(items)),
	}
}

func (r *LeagueRepository) List(_ context.Context) ([]league.League, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]league.League, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, cloneLeague(r.items[id]))
	}
	return out, nil
}

func (r *LeagueRepository) GetByID(_ context.Context, leagueID string) (league.League, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.items[leagueID]
	if !ok {
		return league.League{}, false, nil
	}
	return cloneLeague(l), true, nil
}

func cloneLeague(l league.League) league.League {
	l.Waiver = l.Waiver.Clone()
	return l
}
