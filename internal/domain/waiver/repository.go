package waiver

import (
	"context"
	"time"

	"github.com/riskibarqy/fantasy-waivers/internal/domain/roster"
)

type ClaimFilter struct {
	TeamID string
	Status Status
	// PassID selects claims stamped by one processing pass.
	PassID string
}

// ClaimRepository is the claim ledger.
type ClaimRepository interface {
	Create(ctx context.Context, claim Claim) error
	GetByID(ctx context.Context, leagueID, claimID string) (Claim, bool, error)
	ListByLeague(ctx context.Context, leagueID string, filter ClaimFilter) ([]Claim, error)
	Cancel(ctx context.Context, leagueID, claimID string, at time.Time) (Claim, error)
	// BeginPass stamps every pending claim due at cutoff and submitted no later
	// than asOf with the pass id and returns them. Stamped claims cannot be cancelled.
	BeginPass(ctx context.Context, leagueID, passID string, cutoff, asOf time.Time) ([]Claim, error)
	// ReleasePass clears the stamp from claims the pass left pending.
	ReleasePass(ctx context.Context, leagueID, passID string) error
}

// Settlement is one atomic unit of a pass: an optional roster change and the
// terminal results of the claims it decides.
type Settlement struct {
	LeagueID    string
	PassID      string
	ProcessedAt time.Time
	Change      roster.Change
	Results     []ClaimResult
}

// Settler persists a settlement atomically. A roster precondition failure is
// reported as roster.ErrConflict.
type Settler interface {
	Settle(ctx context.Context, s Settlement) error
}

type PassStatus string

const (
	PassRunning   PassStatus = "running"
	PassCompleted PassStatus = "completed"
	PassAborted   PassStatus = "aborted"
)

// PassRecord tracks a processing pass for one league cutoff.
type PassRecord struct {
	ID          string
	LeagueID    string
	Cutoff      time.Time
	Mode        Mode
	Status      PassStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Report      *SettlementReport
	LastError   string
}

type PassRepository interface {
	GetByCutoff(ctx context.Context, leagueID string, cutoff time.Time) (PassRecord, bool, error)
	// Start records a running pass, replacing an unfinished record for the same cutoff.
	Start(ctx context.Context, record PassRecord) error
	Finish(ctx context.Context, record PassRecord) error
}
