package waiver

import (
	"fmt"
	"slices"

	"github.com/riskibarqy/fantasy-waivers/internal/domain/roster"
)

// Validate runs the eligibility checks against the given snapshot. It returns
// ErrClaimNotPending for claims that are no longer pending, a *RejectionError
// for ineligible claims and a wrapped roster.ErrTeamNotFound for unknown teams.
func Validate(c Claim, snap roster.Snapshot, settings Settings) error {
	return validate(c, snap, settings, nil)
}

// held lists players released earlier in the pass that still occupy roster
// slots because same-pass chaining is disabled.
func validate(c Claim, snap roster.Snapshot, settings Settings, held map[string][]string) error {
	if c.Status != StatusPending {
		return fmt.Errorf("%w: claim=%s status=%s", ErrClaimNotPending, c.ID, c.Status)
	}

	team, ok := snap.Teams[c.TeamID]
	if !ok {
		return fmt.Errorf("%w: team=%s", roster.ErrTeamNotFound, c.TeamID)
	}

	adds := c.Kind != KindDrop
	drops := c.Kind != KindAdd

	if adds && (!snap.IsFreeAgent(c.AddPlayerID) || isHeld(held, c.AddPlayerID)) {
		return reject(ReasonPlayerUnavailable, "player=%s", c.AddPlayerID)
	}

	if drops && !team.Has(c.DropPlayerID) {
		return reject(ReasonDropNotRostered, "player=%s team=%s", c.DropPlayerID, c.TeamID)
	}

	if adds {
		occupied := len(team.PlayerIDs) + len(held[c.TeamID]) + 1
		if drops {
			occupied--
		}
		if occupied > settings.RosterCap {
			return reject(ReasonRosterCapExceeded, "cap=%d after=%d", settings.RosterCap, occupied)
		}

		position := snap.Players[c.AddPlayerID].Position
		if limit, capped := settings.RosterCapBySlot[position]; capped {
			inSlot := snap.CountPosition(c.TeamID, position) + 1
			for _, playerID := range held[c.TeamID] {
				if snap.Players[playerID].Position == position {
					inSlot++
				}
			}
			if drops && snap.Players[c.DropPlayerID].Position == position {
				inSlot--
			}
			if inSlot > limit {
				return reject(ReasonPositionCapExceeded, "slot=%s cap=%d after=%d", position, limit, inSlot)
			}
		}
	}

	switch settings.Mode {
	case ModeFAAB:
		if adds {
			if c.BidAmount > team.RemainingFaab() {
				return reject(ReasonInsufficientBudget, "bid=%d remaining=%d", c.BidAmount, team.RemainingFaab())
			}
			if c.BidAmount < settings.MinBid {
				return reject(ReasonBelowMinBid, "bid=%d min=%d", c.BidAmount, settings.MinBid)
			}
		}
	case ModePriority:
		if c.BidAmount != 0 {
			return reject(ReasonBidNotAllowed, "bid=%d", c.BidAmount)
		}
	}

	return nil
}

func isHeld(held map[string][]string, playerID string) bool {
	for _, players := range held {
		if slices.Contains(players, playerID) {
			return true
		}
	}
	return false
}
