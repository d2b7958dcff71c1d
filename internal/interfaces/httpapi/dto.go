package httpapi

import (
	"time"

	"github.com/riskibarqy/fantasy-waivers/internal/domain/waiver"
	"github.com/riskibarqy/fantasy-waivers/internal/usecase"
)

type submitClaimRequest struct {
	TeamID       string `json:"team_id" validate:"required,max=64"`
	AddPlayerID  string `json:"add_player_id" validate:"required_without=DropPlayerID,max=64"`
	DropPlayerID string `json:"drop_player_id" validate:"omitempty,max=64"`
	BidAmount    int64  `json:"bid_amount" validate:"gte=0"`
}

type processWaiversJobRequest struct {
	LeagueID   string `json:"league_id" validate:"omitempty,max=64"`
	Cutoff     string `json:"cutoff" validate:"omitempty"`
	DispatchID string `json:"dispatch_id" validate:"omitempty,max=200"`
}

type scheduleWaiversJobRequest struct {
	LeagueID string `json:"league_id" validate:"omitempty,max=64"`
}

type claimDTO struct {
	ID                   string  `json:"id"`
	LeagueID             string  `json:"league_id"`
	TeamID               string  `json:"team_id"`
	Kind                 string  `json:"kind"`
	AddPlayerID          string  `json:"add_player_id,omitempty"`
	DropPlayerID         string  `json:"drop_player_id,omitempty"`
	BidAmount            int64   `json:"bid_amount"`
	PriorityAtSubmission int     `json:"priority_at_submission"`
	Status               string  `json:"status"`
	FailureReason        string  `json:"failure_reason,omitempty"`
	SubmittedAt          string  `json:"submitted_at"`
	ExpiresAt            string  `json:"expires_at"`
	ProcessedAt          *string `json:"processed_at,omitempty"`
	Locked               bool    `json:"locked"`
}

type passDTO struct {
	PassID      string                   `json:"pass_id"`
	LeagueID    string                   `json:"league_id"`
	Cutoff      string                   `json:"cutoff"`
	Mode        string                   `json:"mode"`
	Status      string                   `json:"status"`
	StartedAt   string                   `json:"started_at"`
	CompletedAt *string                  `json:"completed_at,omitempty"`
	LastError   string                   `json:"last_error,omitempty"`
	Report      *waiver.SettlementReport `json:"report,omitempty"`
}

type passResultDTO struct {
	PassID     string                  `json:"pass_id"`
	LeagueID   string                  `json:"league_id"`
	Cutoff     string                  `json:"cutoff"`
	Replayed   bool                    `json:"replayed"`
	Successful int                     `json:"successful"`
	Failed     int                     `json:"failed"`
	Rejected   int                     `json:"rejected"`
	Report     waiver.SettlementReport `json:"report"`
}

func claimToDTO(c waiver.Claim) claimDTO {
	return claimDTO{
		ID:                   c.ID,
		LeagueID:             c.LeagueID,
		TeamID:               c.TeamID,
		Kind:                 string(c.Kind),
		AddPlayerID:          c.AddPlayerID,
		DropPlayerID:         c.DropPlayerID,
		BidAmount:            c.BidAmount,
		PriorityAtSubmission: c.PriorityAtSubmission,
		Status:               string(c.Status),
		FailureReason:        string(c.FailureReason),
		SubmittedAt:          formatTime(c.SubmittedAt),
		ExpiresAt:            formatTime(c.ExpiresAt),
		ProcessedAt:          formatOptionalTime(c.ProcessedAt),
		Locked:               c.Status == waiver.StatusPending && c.ProcessingPassID != "",
	}
}

func claimsToDTO(items []waiver.Claim) []claimDTO {
	out := make([]claimDTO, 0, len(items))
	for _, c := range items {
		out = append(out, claimToDTO(c))
	}
	return out
}

func passToDTO(p waiver.PassRecord) passDTO {
	return passDTO{
		PassID:      p.ID,
		LeagueID:    p.LeagueID,
		Cutoff:      formatTime(p.Cutoff),
		Mode:        string(p.Mode),
		Status:      string(p.Status),
		StartedAt:   formatTime(p.StartedAt),
		CompletedAt: formatOptionalTime(p.CompletedAt),
		LastError:   p.LastError,
		Report:      p.Report,
	}
}

func passResultToDTO(p usecase.PassResult) passResultDTO {
	return passResultDTO{
		PassID:     p.PassID,
		LeagueID:   p.LeagueID,
		Cutoff:     formatTime(p.Cutoff),
		Replayed:   p.Replayed,
		Successful: p.Report.Count(waiver.OutcomeSuccessful),
		Failed:     p.Report.Count(waiver.OutcomeFailed),
		Rejected:   p.Report.Count(waiver.OutcomeRejected),
		Report:     p.Report,
	}
}

func formatTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}

func formatOptionalTime(v *time.Time) *string {
	if v == nil || v.IsZero() {
		return nil
	}
	s := formatTime(*v)
	return &s
}
