package postgres

import (
	"time"

	"github.com/riskibarqy/fantasy-waivers/internal/domain/waiver"
)

const claimColumns = `public_id, league_public_id, team_public_id, kind, add_player_public_id, drop_player_public_id,
bid_amount, priority_at_submission, status, failure_reason, submitted_at, expires_at, processed_at, processing_pass_id`

type claimTableModel struct {
	PublicID             string     `db:"public_id"`
	LeaguePublicID       string     `db:"league_public_id"`
	TeamPublicID         string     `db:"team_public_id"`
	Kind                 string     `db:"kind"`
	AddPlayerPublicID    *string    `db:"add_player_public_id"`
	DropPlayerPublicID   *string    `db:"drop_player_public_id"`
	BidAmount            int64      `db:"bid_amount"`
	PriorityAtSubmission int        `db:"priority_at_submission"`
	Status               string     `db:"status"`
	FailureReason        *string    `db:"failure_reason"`
	SubmittedAt          time.Time  `db:"submitted_at"`
	ExpiresAt            time.Time  `db:"expires_at"`
	ProcessedAt          *time.Time `db:"processed_at"`
	ProcessingPassID     *string    `db:"processing_pass_id"`
}

func claimModelFrom(c waiver.Claim) claimTableModel {
	return claimTableModel{
		PublicID:             c.ID,
		LeaguePublicID:       c.LeagueID,
		TeamPublicID:         c.TeamID,
		Kind:                 string(c.Kind),
		AddPlayerPublicID:    optionalString(c.AddPlayerID),
		DropPlayerPublicID:   optionalString(c.DropPlayerID),
		BidAmount:            c.BidAmount,
		PriorityAtSubmission: c.PriorityAtSubmission,
		Status:               string(c.Status),
		FailureReason:        optionalString(string(c.FailureReason)),
		SubmittedAt:          c.SubmittedAt.UTC(),
		ExpiresAt:            c.ExpiresAt.UTC(),
		ProcessedAt:          optionalTime(c.ProcessedAt),
		ProcessingPassID:     optionalString(c.ProcessingPassID),
	}
}

func (m claimTableModel) toDomain() waiver.Claim {
	c := waiver.Claim{
		ID:                   m.PublicID,
		LeagueID:             m.LeaguePublicID,
		TeamID:               m.TeamPublicID,
		Kind:                 waiver.Kind(m.Kind),
		AddPlayerID:          stringValue(m.AddPlayerPublicID),
		DropPlayerID:         stringValue(m.DropPlayerPublicID),
		BidAmount:            m.BidAmount,
		PriorityAtSubmission: m.PriorityAtSubmission,
		Status:               waiver.Status(m.Status),
		FailureReason:        waiver.Reason(stringValue(m.FailureReason)),
		SubmittedAt:          m.SubmittedAt.UTC(),
		ExpiresAt:            m.ExpiresAt.UTC(),
		ProcessingPassID:     stringValue(m.ProcessingPassID),
	}
	if m.ProcessedAt != nil {
		processedAt := m.ProcessedAt.UTC()
		c.ProcessedAt = &processedAt
	}
	return c
}

func claimsFromRows(rows []claimTableModel) []waiver.Claim {
	out := make([]waiver.Claim, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	waiver.SortClaims(out)
	return out
}
