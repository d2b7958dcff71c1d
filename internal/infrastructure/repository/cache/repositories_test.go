package cache

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-waivers/internal/domain/league"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/player"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/waiver"
)

type countingLeagueRepository struct {
	items []league.League
	calls int
}

func (r *countingLeagueRepository) List(_ context.Context) ([]league.League, error) {
	r.calls++
	return r.items, nil
}

func (r *countingLeagueRepository) GetByID(_ context.Context, leagueID string) (league.League, bool, error) {
	r.calls++
	for _, item := range r.items {
		if item.ID == leagueID {
			return item, true, nil
		}
	}
	return league.League{}, false, nil
}

func TestLeagueRepository_CachesAndClones(t *testing.T) {
	next := &countingLeagueRepository{items: []league.League{{
		ID:   "idn-liga-1-2025",
		Name: "Liga 1 Indonesia",
		Waiver: waiver.Settings{
			Mode:            waiver.ModeFAAB,
			RosterCap:       15,
			RosterCapBySlot: map[player.Position]int{player.PositionGoalkeeper: 2},
		},
	}}}
	repo := NewLeagueRepository(next, time.Minute)
	ctx := t.Context()

	first, ok, err := repo.GetByID(ctx, "idn-liga-1-2025")
	if err != nil || !ok {
		t.Fatalf("get league: ok=%v err=%v", ok, err)
	}
	first.Waiver.RosterCapBySlot[player.PositionGoalkeeper] = 9

	second, _, _ := repo.GetByID(ctx, "idn-liga-1-2025")
	if second.Waiver.RosterCapBySlot[player.PositionGoalkeeper] != 2 {
		t.Fatalf("cached league was mutated through a returned copy")
	}
	if next.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", next.calls)
	}

	if _, ok, _ := repo.GetByID(ctx, "missing"); ok {
		t.Fatalf("expected missing league")
	}

	repo.Invalidate()
	if _, _, err := repo.GetByID(ctx, "idn-liga-1-2025"); err != nil {
		t.Fatalf("get after invalidate: %v", err)
	}
	if next.calls != 3 {
		t.Fatalf("expected reload after invalidate, got %d calls", next.calls)
	}
}
