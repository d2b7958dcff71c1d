package memory

import (
	"context"

	"github.com/riskibarqy/fantasy-waivers/internal/domain/roster"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/waiver"
)

// SettlementWriter commits a settlement to the roster store and the claim
// ledger under both locks, so either both change or neither does.
type SettlementWriter struct {
	rosters *RosterStore
	claims  *ClaimLedger
}

func NewSettlementWriter(rosters *RosterStore, claims *ClaimLedger) *SettlementWriter {
	return &SettlementWriter{rosters: rosters, claims: claims}
}

func (w *SettlementWriter) Settle(ctx context.Context, s waiver.Settlement) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.rosters.mu.Lock()
	defer w.rosters.mu.Unlock()
	w.claims.mu.Lock()
	defer w.claims.mu.Unlock()

	var (
		next    roster.Snapshot
		changed = !s.Change.IsEmpty()
	)
	if changed {
		var err error
		next, err = w.rosters.prepare(s.LeagueID, s.Change)
		if err != nil {
			return err
		}
	}
	decided, err := w.claims.prepare(s)
	if err != nil {
		return err
	}

	if changed {
		w.rosters.snapshots[s.LeagueID] = next
	}
	for id, c := range decided {
		w.claims.claims[id] = c
	}
	return nil
}
