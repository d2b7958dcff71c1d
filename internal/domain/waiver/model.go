package waiver

import (
	"fmt"
	"strings"
	"time"
)

// Kind tags which of a claim's player fields are meaningful.
type Kind string

const (
	KindAdd     Kind = "add"
	KindDrop    Kind = "drop"
	KindAddDrop Kind = "add_drop"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusSuccessful Status = "successful"
	StatusFailed     Status = "failed"
	StatusRejected   Status = "rejected"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Terminal() bool {
	return s != StatusPending
}

// Mode selects how contested claims are resolved.
type Mode string

const (
	ModeFAAB     Mode = "faab"
	ModePriority Mode = "priority"
)

func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeFAAB:
		return ModeFAAB, nil
	case ModePriority:
		return ModePriority, nil
	default:
		return "", fmt.Errorf("unknown waiver mode %q", raw)
	}
}

// Reason explains why a claim did not succeed.
type Reason string

const (
	ReasonPlayerUnavailable   Reason = "player_unavailable"
	ReasonDropNotRostered     Reason = "drop_player_not_rostered"
	ReasonRosterCapExceeded   Reason = "roster_cap_exceeded"
	ReasonPositionCapExceeded Reason = "position_cap_exceeded"
	ReasonInsufficientBudget  Reason = "insufficient_budget"
	ReasonBelowMinBid         Reason = "below_min_bid"
	ReasonBidNotAllowed       Reason = "bid_not_allowed"
	ReasonOutbid              Reason = "outbid"
	ReasonOutPrioritized      Reason = "out_prioritized"
	ReasonSettlementConflict  Reason = "settlement_conflict"
)

// Claim is a team's request to add and/or drop a player at the next processing cutoff.
type Claim struct {
	ID                   string
	LeagueID             string
	TeamID               string
	Kind                 Kind
	AddPlayerID          string
	DropPlayerID         string
	BidAmount            int64
	PriorityAtSubmission int
	Status               Status
	FailureReason        Reason
	SubmittedAt          time.Time
	ExpiresAt            time.Time
	ProcessedAt          *time.Time
	ProcessingPassID     string
}

type ClaimParams struct {
	ID                   string
	LeagueID             string
	TeamID               string
	AddPlayerID          string
	DropPlayerID         string
	BidAmount            int64
	PriorityAtSubmission int
	SubmittedAt          time.Time
	ExpiresAt            time.Time
}

// NewClaim builds a pending claim, deriving its kind from the player fields present.
func NewClaim(p ClaimParams) (Claim, error) {
	addID := strings.TrimSpace(p.AddPlayerID)
	dropID := strings.TrimSpace(p.DropPlayerID)

	var kind Kind
	switch {
	case addID != "" && dropID != "":
		kind = KindAddDrop
	case addID != "":
		kind = KindAdd
	case dropID != "":
		kind = KindDrop
	default:
		return Claim{}, fmt.Errorf("%w: add or drop player is required", ErrInvalidClaim)
	}

	claim := Claim{
		ID:                   strings.TrimSpace(p.ID),
		LeagueID:             strings.TrimSpace(p.LeagueID),
		TeamID:               strings.TrimSpace(p.TeamID),
		Kind:                 kind,
		AddPlayerID:          addID,
		DropPlayerID:         dropID,
		BidAmount:            p.BidAmount,
		PriorityAtSubmission: p.PriorityAtSubmission,
		Status:               StatusPending,
		SubmittedAt:          p.SubmittedAt.UTC(),
		ExpiresAt:            p.ExpiresAt.UTC(),
	}
	if err := claim.Validate(); err != nil {
		return Claim{}, err
	}
	return claim, nil
}

// Validate checks the claim's shape; it does not look at league state.
func (c Claim) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: claim id is required", ErrInvalidClaim)
	}
	if c.LeagueID == "" {
		return fmt.Errorf("%w: league id is required", ErrInvalidClaim)
	}
	if c.TeamID == "" {
		return fmt.Errorf("%w: team id is required", ErrInvalidClaim)
	}
	if c.BidAmount < 0 {
		return fmt.Errorf("%w: bid amount must be >= 0", ErrInvalidClaim)
	}

	switch c.Kind {
	case KindAdd:
		if c.AddPlayerID == "" || c.DropPlayerID != "" {
			return fmt.Errorf("%w: add claim needs only an add player", ErrInvalidClaim)
		}
	case KindDrop:
		if c.DropPlayerID == "" || c.AddPlayerID != "" {
			return fmt.Errorf("%w: drop claim needs only a drop player", ErrInvalidClaim)
		}
		if c.BidAmount != 0 {
			return fmt.Errorf("%w: drop claim cannot carry a bid", ErrInvalidClaim)
		}
	case KindAddDrop:
		if c.AddPlayerID == "" || c.DropPlayerID == "" {
			return fmt.Errorf("%w: add_drop claim needs add and drop players", ErrInvalidClaim)
		}
		if c.AddPlayerID == c.DropPlayerID {
			return fmt.Errorf("%w: cannot add and drop the same player", ErrInvalidClaim)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidClaim, c.Kind)
	}

	if c.SubmittedAt.IsZero() {
		return fmt.Errorf("%w: submitted at is required", ErrInvalidClaim)
	}
	if !c.ExpiresAt.IsZero() && c.ExpiresAt.Before(c.SubmittedAt) {
		return fmt.Errorf("%w: expires at precedes submission", ErrInvalidClaim)
	}

	return nil
}

// Before orders claims canonically: earliest submission first, then lexical id.
func (c Claim) Before(other Claim) bool {
	if !c.SubmittedAt.Equal(other.SubmittedAt) {
		return c.SubmittedAt.Before(other.SubmittedAt)
	}
	return c.ID < other.ID
}
