package cache

import (
	"context"
	"time"

	"github.com/riskibarqy/fantasy-waivers/internal/domain/league"
	basecache "github.com/riskibarqy/fantasy-waivers/internal/platform/cache"
)

type cachedLeagues struct {
	items  []league.League
	exists bool
}

// LeagueRepository caches league settings. Rosters and claims are never
// cached: every pass must see the committed state.
type LeagueRepository struct {
	next  league.Repository
	cache *basecache.Store[cachedLeagues]
}

func NewLeagueRepository(next league.Repository, ttl time.Duration) *LeagueRepository {
	return &LeagueRepository{next: next, cache: basecache.NewStore[cachedLeagues](ttl)}
}

func (r *LeagueRepository) List(ctx context.Context) ([]league.League, error) {
	v, err := r.cache.GetOrLoad(ctx, "league:list", func(ctx context.Context) (cachedLeagues, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return cachedLeagues{}, err
		}
		return cachedLeagues{items: cloneLeagues(items), exists: true}, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneLeagues(v.items), nil
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	key := "league:id:" + leagueID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (cachedLeagues, error) {
		item, exists, err := r.next.GetByID(ctx, leagueID)
		if err != nil {
			return cachedLeagues{}, err
		}
		if !exists {
			return cachedLeagues{}, nil
		}
		return cachedLeagues{items: cloneLeagues([]league.League{item}), exists: true}, nil
	})
	if err != nil {
		return league.League{}, false, err
	}
	if !v.exists || len(v.items) == 0 {
		return league.League{}, false, nil
	}
	return cloneLeagues(v.items)[0], true, nil
}

// Invalidate drops every cached league entry.
func (r *LeagueRepository) Invalidate() {
	r.cache.DeletePrefix("league:")
}

func cloneLeagues(items []league.League) []league.League {
	out := make([]league.League, 0, len(items))
	for _, item := range items {
		item.Waiver = item.Waiver.Clone()
		out = append(out, item)
	}
	return out
}
