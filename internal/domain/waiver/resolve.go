package waiver

import (
	"fmt"

	"github.com/riskibarqy/fantasy-waivers/internal/domain/roster"
)

// Resolution is the outcome of one contested group.
type Resolution struct {
	Winner      Claim
	Losers      []Claim
	LoserReason Reason
}

// Resolve picks exactly one winner from a non-empty group. In faab mode the
// highest bid wins with ties broken canonically; in priority mode the team
// with the lowest priority number in the snapshot wins.
func Resolve(g Group, mode Mode, snap roster.Snapshot) (Resolution, error) {
	if len(g.Claims) == 0 {
		return Resolution{}, fmt.Errorf("resolve empty group for player=%s", g.PlayerID)
	}

	var (
		best   int
		reason Reason
	)
	switch mode {
	case ModeFAAB:
		reason = ReasonOutbid
		for i := 1; i < len(g.Claims); i++ {
			if beatsByBid(g.Claims[i], g.Claims[best]) {
				best = i
			}
		}
	case ModePriority:
		reason = ReasonOutPrioritized
		rank := func(c Claim) (int, error) {
			team, ok := snap.Teams[c.TeamID]
			if !ok {
				return 0, fmt.Errorf("%w: claim=%s references unknown team=%s", ErrIntegrityFault, c.ID, c.TeamID)
			}
			return team.WaiverPriority, nil
		}
		bestRank, err := rank(g.Claims[0])
		if err != nil {
			return Resolution{}, err
		}
		for i := 1; i < len(g.Claims); i++ {
			r, err := rank(g.Claims[i])
			if err != nil {
				return Resolution{}, err
			}
			if r == bestRank {
				return Resolution{}, fmt.Errorf("%w: teams %s and %s share priority %d",
					ErrIntegrityFault, g.Claims[best].TeamID, g.Claims[i].TeamID, r)
			}
			if r < bestRank {
				best, bestRank = i, r
			}
		}
	default:
		return Resolution{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidSettings, mode)
	}

	out := Resolution{Winner: g.Claims[best], LoserReason: reason}
	for i, c := range g.Claims {
		if i != best {
			out.Losers = append(out.Losers, c)
		}
	}
	return out, nil
}

func beatsByBid(c, incumbent Claim) bool {
	if c.BidAmount != incumbent.BidAmount {
		return c.BidAmount > incumbent.BidAmount
	}
	return c.Before(incumbent)
}
