package waiver

import (
	"slices"
	"sort"
)

// Group is every still-eligible claim targeting the same player.
type Group struct {
	PlayerID string
	Claims   []Claim
}

// SortClaims orders claims canonically in place.
func SortClaims(claims []Claim) {
	sort.SliceStable(claims, func(i, j int) bool {
		return claims[i].Before(claims[j])
	})
}

// GroupByPlayer splits claims into drop-only claims and add groups. Groups are
// ordered by player id ascending and claims within them canonically.
func GroupByPlayer(claims []Claim) ([]Claim, []Group) {
	sorted := slices.Clone(claims)
	SortClaims(sorted)

	var drops []Claim
	byPlayer := make(map[string][]Claim)
	for _, c := range sorted {
		if c.Kind == KindDrop {
			drops = append(drops, c)
			continue
		}
		byPlayer[c.AddPlayerID] = append(byPlayer[c.AddPlayerID], c)
	}

	groups := make([]Group, 0, len(byPlayer))
	for playerID, members := range byPlayer {
		groups = append(groups, Group{PlayerID: playerID, Claims: members})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].PlayerID < groups[j].PlayerID
	})

	return drops, groups
}
