package roster

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/riskibarqy/fantasy-waivers/internal/domain/player"
)

var (
	ErrConflict     = errors.New("roster state conflict")
	ErrTeamNotFound = errors.New("team not found")
)

// TeamState is a fantasy team's roster plus its waiver budget and priority.
type TeamState struct {
	TeamID         string
	LeagueID       string
	Name           string
	OwnerUserID    string
	PlayerIDs      []string
	TotalFaab      int64
	SpentFaab      int64
	WaiverPriority int
}

func (t TeamState) RemainingFaab() int64 {
	return t.TotalFaab - t.SpentFaab
}

func (t TeamState) Has(playerID string) bool {
	return slices.Contains(t.PlayerIDs, playerID)
}

func (t TeamState) clone() TeamState {
	t.PlayerIDs = slices.Clone(t.PlayerIDs)
	return t
}

// Snapshot is a point-in-time view of every team and the player pool of one league.
type Snapshot struct {
	LeagueID string
	Teams    map[string]TeamState
	Players  map[string]player.Player
}

func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		LeagueID: s.LeagueID,
		Teams:    make(map[string]TeamState, len(s.Teams)),
		Players:  make(map[string]player.Player, len(s.Players)),
	}
	for id, team := range s.Teams {
		out.Teams[id] = team.clone()
	}
	for id, p := range s.Players {
		out.Players[id] = p
	}
	return out
}

// OwnerOf returns the team currently rostering the player.
func (s Snapshot) OwnerOf(playerID string) (string, bool) {
	for _, teamID := range s.TeamIDs() {
		if s.Teams[teamID].Has(playerID) {
			return teamID, true
		}
	}
	return "", false
}

// IsFreeAgent reports whether the player is in the league pool and rostered by no team.
func (s Snapshot) IsFreeAgent(playerID string) bool {
	if _, ok := s.Players[playerID]; !ok {
		return false
	}
	_, owned := s.OwnerOf(playerID)
	return !owned
}

// TeamIDs returns team ids in lexical order.
func (s Snapshot) TeamIDs() []string {
	out := make([]string, 0, len(s.Teams))
	for id := range s.Teams {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// PriorityOrder returns team ids from first (rank 1) to last waiver priority.
func (s Snapshot) PriorityOrder() []string {
	out := s.TeamIDs()
	sort.SliceStable(out, func(i, j int) bool {
		return s.Teams[out[i]].WaiverPriority < s.Teams[out[j]].WaiverPriority
	})
	return out
}

// CountPosition counts rostered players of the team in the given position.
func (s Snapshot) CountPosition(teamID string, position player.Position) int {
	count := 0
	for _, playerID := range s.Teams[teamID].PlayerIDs {
		if s.Players[playerID].Position == position {
			count++
		}
	}
	return count
}

// Mutation moves players on and off one team's roster and charges its budget.
type Mutation struct {
	TeamID       string
	AddPlayerID  string
	DropPlayerID string
	SpendFaab    int64
}

// Change is applied atomically: either every part succeeds or nothing changes.
type Change struct {
	Mutations  []Mutation
	Priorities map[string]int
}

func (c Change) IsEmpty() bool {
	return len(c.Mutations) == 0 && len(c.Priorities) == 0
}

// Apply returns a new snapshot with the change applied. Any violated
// precondition yields ErrConflict and leaves the receiver untouched.
func (s Snapshot) Apply(change Change) (Snapshot, error) {
	next := s.Clone()
	for _, m := range change.Mutations {
		team, ok := next.Teams[m.TeamID]
		if !ok {
			return s, fmt.Errorf("%w: team=%s", ErrTeamNotFound, m.TeamID)
		}
		if m.DropPlayerID != "" {
			idx := slices.Index(team.PlayerIDs, m.DropPlayerID)
			if idx < 0 {
				return s, fmt.Errorf("%w: player=%s is not on team=%s", ErrConflict, m.DropPlayerID, m.TeamID)
			}
			team.PlayerIDs = slices.Delete(team.PlayerIDs, idx, idx+1)
			next.Teams[m.TeamID] = team
		}
		if m.AddPlayerID != "" {
			if _, known := next.Players[m.AddPlayerID]; !known {
				return s, fmt.Errorf("%w: player=%s is not in league pool", ErrConflict, m.AddPlayerID)
			}
			if owner, owned := next.OwnerOf(m.AddPlayerID); owned {
				return s, fmt.Errorf("%w: player=%s already rostered by team=%s", ErrConflict, m.AddPlayerID, owner)
			}
			team.PlayerIDs = append(team.PlayerIDs, m.AddPlayerID)
		}
		if m.SpendFaab < 0 {
			return s, fmt.Errorf("%w: negative spend %d", ErrConflict, m.SpendFaab)
		}
		if m.SpendFaab > team.RemainingFaab() {
			return s, fmt.Errorf("%w: team=%s remaining=%d spend=%d", ErrConflict, m.TeamID, team.RemainingFaab(), m.SpendFaab)
		}
		team.SpentFaab += m.SpendFaab
		next.Teams[m.TeamID] = team
	}

	if len(change.Priorities) > 0 {
		if len(change.Priorities) != len(next.Teams) {
			return s, fmt.Errorf("%w: priority order covers %d of %d teams", ErrConflict, len(change.Priorities), len(next.Teams))
		}
		seen := make(map[int]string, len(change.Priorities))
		for teamID, rank := range change.Priorities {
			team, ok := next.Teams[teamID]
			if !ok {
				return s, fmt.Errorf("%w: team=%s", ErrTeamNotFound, teamID)
			}
			if other, dup := seen[rank]; dup {
				return s, fmt.Errorf("%w: priority %d assigned to %s and %s", ErrConflict, rank, other, teamID)
			}
			seen[rank] = teamID
			team.WaiverPriority = rank
			next.Teams[teamID] = team
		}
	}

	return next, nil
}

// MoveToBack returns renumbered priorities (1..N) with the team placed last.
func (s Snapshot) MoveToBack(teamID string) map[string]int {
	order := s.PriorityOrder()
	out := make(map[string]int, len(order))
	rank := 1
	for _, id := range order {
		if id == teamID {
			continue
		}
		out[id] = rank
		rank++
	}
	out[teamID] = rank
	return out
}
