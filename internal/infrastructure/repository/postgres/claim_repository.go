package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/waiver"
	qb "github.com/riskibarqy/fantasy-waivers/internal/platform/querybuilder"
)

type ClaimRepository struct {
	db *sqlx.DB
}

func NewClaimRepository(db *sqlx.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

func (r *ClaimRepository) Create(ctx context.Context, claim waiver.Claim) error {
	query, args, err := qb.InsertModel("waiver_claims", claimModelFrom(claim), "")
	if err != nil {
		return fmt.Errorf("build insert waiver claim query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: team=%s player=%s", waiver.ErrDuplicateClaim, claim.TeamID, claim.AddPlayerID)
		}
		return fmt.Errorf("insert waiver claim: %w", err)
	}
	return nil
}

func (r *ClaimRepository) GetByID(ctx context.Context, leagueID, claimID string) (waiver.Claim, bool, error) {
	query, args, err := qb.Select(claimColumns).From("waiver_claims").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("public_id", claimID),
		).
		ToSQL()
	if err != nil {
		return waiver.Claim{}, false, fmt.Errorf("build get waiver claim query: %w", err)
	}

	var row claimTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return waiver.Claim{}, false, nil
		}
		return waiver.Claim{}, false, fmt.Errorf("get waiver claim: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *ClaimRepository) ListByLeague(ctx context.Context, leagueID string, filter waiver.ClaimFilter) ([]waiver.Claim, error) {
	conditions := []qb.Condition{qb.Eq("league_public_id", leagueID)}
	if filter.TeamID != "" {
		conditions = append(conditions, qb.Eq("team_public_id", filter.TeamID))
	}
	if filter.Status != "" {
		conditions = append(conditions, qb.Eq("status", string(filter.Status)))
	}
	if filter.PassID != "" {
		conditions = append(conditions, qb.Eq("processing_pass_id", filter.PassID))
	}

	query, args, err := qb.Select(claimColumns).From("waiver_claims").
		Where(conditions...).
		OrderBy("submitted_at", "public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list waiver claims query: %w", err)
	}

	var rows []claimTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list waiver claims: %w", err)
	}
	return claimsFromRows(rows), nil
}

func (r *ClaimRepository) Cancel(ctx context.Context, leagueID, claimID string, at time.Time) (waiver.Claim, error) {
	query, args, err := qb.Update("waiver_claims").
		Set("status", string(waiver.StatusCancelled)).
		Set("processed_at", at.UTC()).
		Set("updated_at", at.UTC()).
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("public_id", claimID),
			qb.Eq("status", string(waiver.StatusPending)),
			qb.IsNull("processing_pass_id"),
		).
		Suffix("RETURNING " + claimColumns).
		ToSQL()
	if err != nil {
		return waiver.Claim{}, fmt.Errorf("build cancel waiver claim query: %w", err)
	}

	var row claimTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err == nil {
		return row.toDomain(), nil
	} else if !isNotFound(err) {
		return waiver.Claim{}, fmt.Errorf("cancel waiver claim: %w", err)
	}

	current, exists, err := r.GetByID(ctx, leagueID, claimID)
	switch {
	case err != nil:
		return waiver.Claim{}, err
	case !exists:
		return waiver.Claim{}, fmt.Errorf("%w: claim=%s", waiver.ErrClaimNotFound, claimID)
	case current.Status != waiver.StatusPending:
		return waiver.Claim{}, fmt.Errorf("%w: claim=%s status=%s", waiver.ErrClaimNotPending, claimID, current.Status)
	default:
		return waiver.Claim{}, fmt.Errorf("%w: claim=%s pass=%s", waiver.ErrClaimLocked, claimID, current.ProcessingPassID)
	}
}

func (r *ClaimRepository) BeginPass(ctx context.Context, leagueID, passID string, cutoff, asOf time.Time) ([]waiver.Claim, error) {
	query, args, err := qb.Update("waiver_claims").
		Set("processing_pass_id", passID).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("status", string(waiver.StatusPending)),
			qb.IsNull("processing_pass_id"),
			qb.Lte("expires_at", cutoff.UTC()),
			qb.Lte("submitted_at", asOf.UTC()),
		).
		Suffix("RETURNING " + claimColumns).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build begin pass query: %w", err)
	}

	var rows []claimTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("stamp pending claims for pass=%s: %w", passID, err)
	}
	return claimsFromRows(rows), nil
}

func (r *ClaimRepository) ReleasePass(ctx context.Context, leagueID, passID string) error {
	query, args, err := qb.Update("waiver_claims").
		Set("processing_pass_id", nil).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("processing_pass_id", passID),
			qb.Eq("status", string(waiver.StatusPending)),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build release pass query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("release claims of pass=%s: %w", passID, err)
	}
	return nil
}
