package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/riskibarqy/fantasy-waivers/internal/domain/player"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/roster"
)

// RosterStore keeps one snapshot per league and hands out copies.
type RosterStore struct {
	mu        sync.RWMutex
	snapshots map[string]roster.Snapshot
}

func NewRosterStore(players []player.Player, teams []roster.TeamState) *RosterStore {
	snapshots := make(map[string]roster.Snapshot)
	get := func(leagueID string) roster.Snapshot {
		snap, ok := snapshots[leagueID]
		if !ok {
			snap = roster.Snapshot{
				LeagueID: leagueID,
				Teams:    make(map[string]roster.TeamState),
				Players:  make(map[string]player.Player),
			}
			snapshots[leagueID] = snap
		}
		return snap
	}

	for _, p := range players {
		get(p.LeagueID).Players[p.ID] = p
	}
	for _, team := range teams {
		get(team.LeagueID).Teams[team.TeamID] = team
	}

	for id, snap := range snapshots {
		snapshots[id] = snap.Clone()
	}
	return &RosterStore{snapshots: snapshots}
}

func (s *RosterStore) LoadSnapshot(_ context.Context, leagueID string) (roster.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[leagueID]
	if !ok {
		return roster.Snapshot{
			LeagueID: leagueID,
			Teams:    map[string]roster.TeamState{},
			Players:  map[string]player.Player{},
		}, nil
	}
	return snap.Clone(), nil
}

// prepare computes the snapshot a change would produce. Callers hold s.mu.
func (s *RosterStore) prepare(leagueID string, change roster.Change) (roster.Snapshot, error) {
	snap, ok := s.snapshots[leagueID]
	if !ok {
		return roster.Snapshot{}, fmt.Errorf("%w: no roster state for league=%s", roster.ErrConflict, leagueID)
	}
	return snap.Apply(change)
}
