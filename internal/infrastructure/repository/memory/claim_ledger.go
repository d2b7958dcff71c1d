package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/fantasy-waivers/internal/domain/waiver"
)

// ClaimLedger is the in-process claim store.
type ClaimLedger struct {
	mu     sync.RWMutex
	claims map[string]waiver.Claim
}

func NewClaimLedger(claims []waiver.Claim) *ClaimLedger {
	items := make(map[string]waiver.Claim, len(claims))
	for _, c := range claims {
		items[c.ID] = c
	}
	return &ClaimLedger{claims: items}
}

func (l *ClaimLedger) Create(_ context.Context, claim waiver.Claim) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.claims[claim.ID]; exists {
		return fmt.Errorf("%w: claim id=%s", waiver.ErrDuplicateClaim, claim.ID)
	}
	if claim.Kind != waiver.KindDrop {
		for _, existing := range l.claims {
			if existing.Status == waiver.StatusPending &&
				existing.Kind != waiver.KindDrop &&
				existing.TeamID == claim.TeamID &&
				existing.AddPlayerID == claim.AddPlayerID {
				return fmt.Errorf("%w: team=%s player=%s", waiver.ErrDuplicateClaim, claim.TeamID, claim.AddPlayerID)
			}
		}
	}

	l.claims[claim.ID] = claim
	return nil
}

func (l *ClaimLedger) GetByID(_ context.Context, leagueID, claimID string) (waiver.Claim, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	c, ok := l.claims[claimID]
	if !ok || c.LeagueID != leagueID {
		return waiver.Claim{}, false, nil
	}
	return c, true, nil
}

func (l *ClaimLedger) ListByLeague(_ context.Context, leagueID string, filter waiver.ClaimFilter) ([]waiver.Claim, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]waiver.Claim, 0)
	for _, c := range l.claims {
		if c.LeagueID != leagueID {
			continue
		}
		if filter.TeamID != "" && c.TeamID != filter.TeamID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.PassID != "" && c.ProcessingPassID != filter.PassID {
			continue
		}
		out = append(out, c)
	}
	waiver.SortClaims(out)

	return out, nil
}

func (l *ClaimLedger) Cancel(_ context.Context, leagueID, claimID string, at time.Time) (waiver.Claim, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.claims[claimID]
	if !ok || c.LeagueID != leagueID {
		return waiver.Claim{}, fmt.Errorf("%w: claim=%s", waiver.ErrClaimNotFound, claimID)
	}
	if c.Status != waiver.StatusPending {
		return waiver.Claim{}, fmt.Errorf("%w: claim=%s status=%s", waiver.ErrClaimNotPending, claimID, c.Status)
	}
	if c.ProcessingPassID != "" {
		return waiver.Claim{}, fmt.Errorf("%w: claim=%s pass=%s", waiver.ErrClaimLocked, claimID, c.ProcessingPassID)
	}

	processedAt := at.UTC()
	c.Status = waiver.StatusCancelled
	c.ProcessedAt = &processedAt
	l.claims[claimID] = c
	return c, nil
}

func (l *ClaimLedger) BeginPass(_ context.Context, leagueID, passID string, cutoff, asOf time.Time) ([]waiver.Claim, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]waiver.Claim, 0)
	for id, c := range l.claims {
		if c.LeagueID != leagueID || c.Status != waiver.StatusPending || c.ProcessingPassID != "" {
			continue
		}
		if c.ExpiresAt.After(cutoff) || c.SubmittedAt.After(asOf) {
			continue
		}
		c.ProcessingPassID = passID
		l.claims[id] = c
		out = append(out, c)
	}
	waiver.SortClaims(out)

	return out, nil
}

func (l *ClaimLedger) ReleasePass(_ context.Context, leagueID, passID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, c := range l.claims {
		if c.LeagueID == leagueID && c.Status == waiver.StatusPending && c.ProcessingPassID == passID {
			c.ProcessingPassID = ""
			l.claims[id] = c
		}
	}
	return nil
}

// prepare returns the terminal versions of the claims a settlement decides.
// Callers hold l.mu.
func (l *ClaimLedger) prepare(s waiver.Settlement) (map[string]waiver.Claim, error) {
	processedAt := s.ProcessedAt.UTC()
	out := make(map[string]waiver.Claim, len(s.Results))
	for _, result := range s.Results {
		c, ok := l.claims[result.ClaimID]
		if !ok || c.LeagueID != s.LeagueID {
			return nil, fmt.Errorf("%w: claim=%s", waiver.ErrClaimNotFound, result.ClaimID)
		}
		if c.Status != waiver.StatusPending || c.ProcessingPassID != s.PassID {
			return nil, fmt.Errorf("%w: claim=%s status=%s pass=%s", waiver.ErrClaimNotPending, c.ID, c.Status, c.ProcessingPassID)
		}
		c.Status = result.Outcome.Status()
		c.FailureReason = result.Reason
		c.ProcessedAt = &processedAt
		out[c.ID] = c
	}
	return out, nil
}
