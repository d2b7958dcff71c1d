package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/fantasy-waivers/internal/domain/league"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/roster"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/waiver"
	"github.com/riskibarqy/fantasy-waivers/internal/platform/id"
	"github.com/riskibarqy/fantasy-waivers/internal/platform/logging"
)

type SubmitClaimInput struct {
	LeagueID     string
	TeamID       string
	UserID       string
	AddPlayerID  string
	DropPlayerID string
	BidAmount    int64
}

type CancelClaimInput struct {
	LeagueID string
	ClaimID  string
	UserID   string
}

type ListClaimsInput struct {
	LeagueID string
	TeamID   string
	Status   string
}

type TeamBudget struct {
	TeamID         string `json:"team_id"`
	Name           string `json:"name"`
	TotalFaab      int64  `json:"total_faab"`
	SpentFaab      int64  `json:"spent_faab"`
	RemainingFaab  int64  `json:"remaining_faab"`
	WaiverPriority int    `json:"waiver_priority"`
	RosterSize     int    `json:"roster_size"`
}

type LeagueBudgets struct {
	LeagueID   string       `json:"league_id"`
	Mode       waiver.Mode  `json:"mode"`
	NextCutoff time.Time    `json:"next_cutoff"`
	Teams      []TeamBudget `json:"teams"`
}

// WaiverClaimService handles claim submission and the read views teams use
// between cutoffs.
type WaiverClaimService struct {
	leagueRepo  league.Repository
	rosterStore roster.Store
	claimRepo   waiver.ClaimRepository
	idGen       id.Generator
	logger      *logging.Logger
	now         func() time.Time
}

func NewWaiverClaimService(
	leagueRepo league.Repository,
	rosterStore roster.Store,
	claimRepo waiver.ClaimRepository,
	idGen id.Generator,
	logger *logging.Logger,
) *WaiverClaimService {
	if logger == nil {
		logger = logging.Default()
	}

	return &WaiverClaimService{
		leagueRepo:  leagueRepo,
		rosterStore: rosterStore,
		claimRepo:   claimRepo,
		idGen:       idGen,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *WaiverClaimService) Submit(ctx context.Context, input SubmitClaimInput) (waiver.Claim, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WaiverClaimService.Submit")
	defer span.End()

	input.LeagueID = strings.TrimSpace(input.LeagueID)
	input.TeamID = strings.TrimSpace(input.TeamID)
	input.UserID = strings.TrimSpace(input.UserID)
	switch {
	case input.LeagueID == "":
		return waiver.Claim{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	case input.TeamID == "":
		return waiver.Claim{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	case input.UserID == "":
		return waiver.Claim{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}

	lg, err := s.getLeague(ctx, input.LeagueID)
	if err != nil {
		return waiver.Claim{}, err
	}
	snap, err := s.rosterStore.LoadSnapshot(ctx, lg.ID)
	if err != nil {
		return waiver.Claim{}, fmt.Errorf("load roster snapshot: %w", err)
	}
	team, err := ownedTeam(snap, input.TeamID, input.UserID)
	if err != nil {
		return waiver.Claim{}, err
	}

	claimID, err := s.idGen.NewID()
	if err != nil {
		return waiver.Claim{}, fmt.Errorf("generate claim id: %w", err)
	}
	now := s.now().UTC()
	claim, err := waiver.NewClaim(waiver.ClaimParams{
		ID:                   claimID,
		LeagueID:             lg.ID,
		TeamID:               team.TeamID,
		AddPlayerID:          input.AddPlayerID,
		DropPlayerID:         input.DropPlayerID,
		BidAmount:            input.BidAmount,
		PriorityAtSubmission: team.WaiverPriority,
		SubmittedAt:          now,
		ExpiresAt:            lg.Schedule.NextCutoff(now),
	})
	if err != nil {
		return waiver.Claim{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	pending, err := s.claimRepo.ListByLeague(ctx, lg.ID, waiver.ClaimFilter{TeamID: team.TeamID, Status: waiver.StatusPending})
	if err != nil {
		return waiver.Claim{}, fmt.Errorf("list pending claims: %w", err)
	}
	for _, existing := range pending {
		if sameTarget(existing, claim) {
			return waiver.Claim{}, fmt.Errorf("%w: team=%s already has pending claim=%s for this player", ErrConflict, team.TeamID, existing.ID)
		}
	}

	if err := waiver.Validate(claim, snap, lg.Waiver); err != nil {
		return waiver.Claim{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if err := s.claimRepo.Create(ctx, claim); err != nil {
		if errors.Is(err, waiver.ErrDuplicateClaim) {
			return waiver.Claim{}, fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return waiver.Claim{}, fmt.Errorf("create claim: %w", err)
	}

	s.logger.InfoContext(ctx, "waiver claim submitted",
		"league_id", claim.LeagueID,
		"team_id", claim.TeamID,
		"claim_id", claim.ID,
		"kind", claim.Kind,
		"bid_amount", claim.BidAmount,
		"expires_at", claim.ExpiresAt,
	)
	return claim, nil
}

func (s *WaiverClaimService) Cancel(ctx context.Context, input CancelClaimInput) (waiver.Claim, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WaiverClaimService.Cancel")
	defer span.End()

	input.LeagueID = strings.TrimSpace(input.LeagueID)
	input.ClaimID = strings.TrimSpace(input.ClaimID)
	input.UserID = strings.TrimSpace(input.UserID)
	if input.LeagueID == "" || input.ClaimID == "" {
		return waiver.Claim{}, fmt.Errorf("%w: league id and claim id are required", ErrInvalidInput)
	}
	if input.UserID == "" {
		return waiver.Claim{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}

	claim, exists, err := s.claimRepo.GetByID(ctx, input.LeagueID, input.ClaimID)
	if err != nil {
		return waiver.Claim{}, fmt.Errorf("get claim: %w", err)
	}
	if !exists {
		return waiver.Claim{}, fmt.Errorf("%w: claim=%s", ErrNotFound, input.ClaimID)
	}

	snap, err := s.rosterStore.LoadSnapshot(ctx, input.LeagueID)
	if err != nil {
		return waiver.Claim{}, fmt.Errorf("load roster snapshot: %w", err)
	}
	if _, err := ownedTeam(snap, claim.TeamID, input.UserID); err != nil {
		return waiver.Claim{}, err
	}

	cancelled, err := s.claimRepo.Cancel(ctx, input.LeagueID, input.ClaimID, s.now().UTC())
	switch {
	case err == nil:
	case errors.Is(err, waiver.ErrClaimNotFound):
		return waiver.Claim{}, fmt.Errorf("%w: claim=%s", ErrNotFound, input.ClaimID)
	case errors.Is(err, waiver.ErrClaimNotPending), errors.Is(err, waiver.ErrClaimLocked):
		return waiver.Claim{}, fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		return waiver.Claim{}, fmt.Errorf("cancel claim: %w", err)
	}

	s.logger.InfoContext(ctx, "waiver claim cancelled",
		"league_id", cancelled.LeagueID,
		"team_id", cancelled.TeamID,
		"claim_id", cancelled.ID,
	)
	return cancelled, nil
}

func (s *WaiverClaimService) List(ctx context.Context, input ListClaimsInput) ([]waiver.Claim, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WaiverClaimService.List")
	defer span.End()

	input.LeagueID = strings.TrimSpace(input.LeagueID)
	if input.LeagueID == "" {
		return nil, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	filter := waiver.ClaimFilter{TeamID: strings.TrimSpace(input.TeamID)}
	if raw := strings.TrimSpace(input.Status); raw != "" {
		status := waiver.Status(strings.ToLower(raw))
		switch status {
		case waiver.StatusPending, waiver.StatusSuccessful, waiver.StatusFailed, waiver.StatusRejected, waiver.StatusCancelled:
			filter.Status = status
		default:
			return nil, fmt.Errorf("%w: unknown claim status %q", ErrInvalidInput, raw)
		}
	}

	if _, err := s.getLeague(ctx, input.LeagueID); err != nil {
		return nil, err
	}
	claims, err := s.claimRepo.ListByLeague(ctx, input.LeagueID, filter)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	waiver.SortClaims(claims)

	return claims, nil
}

// ListBudgets returns every team's FAAB position ordered by waiver priority.
func (s *WaiverClaimService) ListBudgets(ctx context.Context, leagueID string) (LeagueBudgets, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WaiverClaimService.ListBudgets")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return LeagueBudgets{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	lg, err := s.getLeague(ctx, leagueID)
	if err != nil {
		return LeagueBudgets{}, err
	}
	snap, err := s.rosterStore.LoadSnapshot(ctx, lg.ID)
	if err != nil {
		return LeagueBudgets{}, fmt.Errorf("load roster snapshot: %w", err)
	}

	out := LeagueBudgets{
		LeagueID:   lg.ID,
		Mode:       lg.Waiver.Mode,
		NextCutoff: lg.Schedule.NextCutoff(s.now()),
		Teams:      make([]TeamBudget, 0, len(snap.Teams)),
	}
	for _, team := range snap.Teams {
		out.Teams = append(out.Teams, TeamBudget{
			TeamID:         team.TeamID,
			Name:           team.Name,
			TotalFaab:      team.TotalFaab,
			SpentFaab:      team.SpentFaab,
			RemainingFaab:  team.RemainingFaab(),
			WaiverPriority: team.WaiverPriority,
			RosterSize:     len(team.PlayerIDs),
		})
	}
	sort.Slice(out.Teams, func(i, j int) bool {
		if out.Teams[i].WaiverPriority != out.Teams[j].WaiverPriority {
			return out.Teams[i].WaiverPriority < out.Teams[j].WaiverPriority
		}
		return out.Teams[i].TeamID < out.Teams[j].TeamID
	})

	return out, nil
}

func (s *WaiverClaimService) getLeague(ctx context.Context, leagueID string) (league.League, error) {
	lg, exists, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return league.League{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return league.League{}, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}
	return lg, nil
}

func ownedTeam(snap roster.Snapshot, teamID, userID string) (roster.TeamState, error) {
	team, ok := snap.Teams[teamID]
	if !ok {
		return roster.TeamState{}, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}
	if team.OwnerUserID != userID {
		return roster.TeamState{}, fmt.Errorf("%w: team=%s is not managed by user=%s", ErrForbidden, teamID, userID)
	}
	return team, nil
}

func sameTarget(existing, candidate waiver.Claim) bool {
	if candidate.Kind == waiver.KindDrop {
		return existing.Kind == waiver.KindDrop && existing.DropPlayerID == candidate.DropPlayerID
	}
	return existing.Kind != waiver.KindDrop && existing.AddPlayerID == candidate.AddPlayerID
}
