package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/roster"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/waiver"
	qb "github.com/riskibarqy/fantasy-waivers/internal/platform/querybuilder"
)

const insertRosterEntrySQL = `
INSERT INTO roster_entries (league_public_id, team_public_id, player_public_id, acquired_at)
SELECT $1, $2, $3, $4
WHERE EXISTS (
    SELECT 1 FROM players
    WHERE league_public_id = $1 AND public_id = $3 AND deleted_at IS NULL
)
ON CONFLICT DO NOTHING`

// SettlementRepository writes a settlement inside one transaction. Every
// guarded statement that touches no row rolls the whole settlement back.
type SettlementRepository struct {
	db *sqlx.DB
}

func NewSettlementRepository(db *sqlx.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

func (r *SettlementRepository) Settle(ctx context.Context, s waiver.Settlement) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx settle pass=%s: %w", s.PassID, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	processedAt := s.ProcessedAt.UTC()
	for _, m := range s.Change.Mutations {
		if err := applyMutation(ctx, tx, s.LeagueID, m, processedAt); err != nil {
			return err
		}
	}
	if err := applyPriorities(ctx, tx, s.LeagueID, s.Change.Priorities); err != nil {
		return err
	}

	for _, result := range s.Results {
		query, args, err := buildSettleClaimQuery(s.LeagueID, s.PassID, result, processedAt)
		if err != nil {
			return err
		}
		n, err := execAffected(ctx, tx, query, args...)
		if err != nil {
			return fmt.Errorf("settle claim=%s: %w", result.ClaimID, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: claim=%s pass=%s", waiver.ErrClaimNotPending, result.ClaimID, s.PassID)
		}
	}

	return commitError(tx.Commit(), s.PassID)
}

// commitError maps a deferred unique priority violation to a roster conflict.
func commitError(err error, passID string) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: duplicate priority on commit pass=%s: %v", roster.ErrConflict, passID, err)
	}
	return fmt.Errorf("commit settle pass=%s: %w", passID, err)
}

func buildSettleClaimQuery(leagueID, passID string, result waiver.ClaimResult, at time.Time) (string, []any, error) {
	query, args, err := qb.Update("waiver_claims").
		Set("status", string(result.Outcome.Status())).
		Set("failure_reason", optionalString(string(result.Reason))).
		Set("processed_at", at).
		Set("updated_at", at).
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("public_id", result.ClaimID),
			qb.Eq("status", string(waiver.StatusPending)),
			qb.Eq("processing_pass_id", passID),
		).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build settle claim query: %w", err)
	}
	return query, args, nil
}

// buildDropQuery soft deletes the dropped entry; it touches no row when the
// player is not on the team.
func buildDropQuery(leagueID string, m roster.Mutation, at time.Time) (string, []any, error) {
	query, args, err := qb.Update("roster_entries").
		Set("deleted_at", at).
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("team_public_id", m.TeamID),
			qb.Eq("player_public_id", m.DropPlayerID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build drop roster entry query: %w", err)
	}
	return query, args, nil
}

// buildSpendQuery charges the bid; it touches no row when the spend would
// exceed the team's total budget.
func buildSpendQuery(leagueID string, m roster.Mutation, at time.Time) (string, []any, error) {
	query, args, err := qb.Update("fantasy_teams").
		SetExpr("spent_faab", "spent_faab + ?", m.SpendFaab).
		Set("updated_at", at).
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("public_id", m.TeamID),
			qb.Expr("spent_faab + ? <= total_faab", m.SpendFaab),
		).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build spend faab query: %w", err)
	}
	return query, args, nil
}

func buildPriorityQuery(leagueID, teamID string, rank int) (string, []any, error) {
	query, args, err := qb.Update("fantasy_teams").
		Set("waiver_priority", rank).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("public_id", teamID),
		).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build update priority query: %w", err)
	}
	return query, args, nil
}

func applyMutation(ctx context.Context, tx *sqlx.Tx, leagueID string, m roster.Mutation, at time.Time) error {
	if m.SpendFaab < 0 {
		return fmt.Errorf("%w: negative spend %d", roster.ErrConflict, m.SpendFaab)
	}

	if m.DropPlayerID != "" {
		query, args, err := buildDropQuery(leagueID, m, at)
		if err != nil {
			return err
		}
		n, err := execAffected(ctx, tx, query, args...)
		if err != nil {
			return fmt.Errorf("drop player=%s team=%s: %w", m.DropPlayerID, m.TeamID, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: player=%s is not on team=%s", roster.ErrConflict, m.DropPlayerID, m.TeamID)
		}
	}

	if m.AddPlayerID != "" {
		n, err := execAffected(ctx, tx, insertRosterEntrySQL, leagueID, m.TeamID, m.AddPlayerID, at)
		if err != nil {
			return fmt.Errorf("add player=%s team=%s: %w", m.AddPlayerID, m.TeamID, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: player=%s is rostered or not in league pool", roster.ErrConflict, m.AddPlayerID)
		}
	}

	query, args, err := buildSpendQuery(leagueID, m, at)
	if err != nil {
		return err
	}
	n, err := execAffected(ctx, tx, query, args...)
	if err != nil {
		return fmt.Errorf("spend faab team=%s: %w", m.TeamID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: team=%s missing or spend=%d exceeds budget", roster.ErrConflict, m.TeamID, m.SpendFaab)
	}
	return nil
}

// applyPriorities rewrites the whole league order. The unique priority
// constraint is deferred, so intermediate duplicates are allowed.
func applyPriorities(ctx context.Context, tx *sqlx.Tx, leagueID string, priorities map[string]int) error {
	if len(priorities) == 0 {
		return nil
	}

	var teamCount int
	if err := tx.GetContext(ctx, &teamCount, `SELECT COUNT(*) FROM fantasy_teams WHERE league_public_id = $1`, leagueID); err != nil {
		return fmt.Errorf("count fantasy teams: %w", err)
	}
	if teamCount != len(priorities) {
		return fmt.Errorf("%w: priority order covers %d of %d teams", roster.ErrConflict, len(priorities), teamCount)
	}

	for teamID, rank := range priorities {
		query, args, err := buildPriorityQuery(leagueID, teamID, rank)
		if err != nil {
			return err
		}
		n, err := execAffected(ctx, tx, query, args...)
		if err != nil {
			return fmt.Errorf("update priority team=%s: %w", teamID, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: team=%s", roster.ErrTeamNotFound, teamID)
		}
	}
	return nil
}

func execAffected(ctx context.Context, tx *sqlx.Tx, query string, args ...any) (int64, error) {
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return affected(result)
}
