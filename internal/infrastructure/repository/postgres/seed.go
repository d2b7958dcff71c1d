package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/league"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/waiver"
	"github.com/riskibarqy/fantasy-waivers/internal/infrastructure/repository/memory"
)

// BootstrapSeed loads the demo leagues into an empty database.
func BootstrapSeed(ctx context.Context, db *sqlx.DB, defaults waiver.Settings, faabBudget int64, schedule league.ProcessingSchedule) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM leagues WHERE deleted_at IS NULL`); err != nil {
		return fmt.Errorf("count leagues for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, l := range memory.SeedLeagues(defaults, faabBudget, schedule) {
		slotCaps, err := encodeSlotCaps(l.Waiver.RosterCapBySlot)
		if err != nil {
			return fmt.Errorf("encode seed league %s slot caps: %w", l.ID, err)
		}
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO leagues (public_id, name, season, faab_budget, waiver_mode, min_bid, roster_cap, roster_cap_by_slot,
                     allow_same_pass_chaining, processing_schedule, schedule_timezone)
VALUES (:public_id, :name, :season, :faab_budget, :waiver_mode, :min_bid, :roster_cap, CAST(:roster_cap_by_slot AS JSONB),
        :allow_same_pass_chaining, :processing_schedule, :schedule_timezone)
ON CONFLICT (public_id) DO NOTHING`, map[string]any{
			"public_id":                l.ID,
			"name":                     l.Name,
			"season":                   l.Season,
			"faab_budget":              l.FaabBudget,
			"waiver_mode":              string(l.Waiver.Mode),
			"min_bid":                  l.Waiver.MinBid,
			"roster_cap":               l.Waiver.RosterCap,
			"roster_cap_by_slot":       slotCaps,
			"allow_same_pass_chaining": l.Waiver.AllowSamePassChaining,
			"processing_schedule":      l.Schedule.String(),
			"schedule_timezone":        l.Schedule.Location,
		})
		if err != nil {
			return fmt.Errorf("bind seed league %s query: %w", l.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed league %s: %w", l.ID, err)
		}
	}

	for _, p := range memory.SeedPlayers() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO players (public_id, league_public_id, name, position)
VALUES (:public_id, :league_public_id, :name, :position)
ON CONFLICT (league_public_id, public_id) DO NOTHING`, map[string]any{
			"public_id":        p.ID,
			"league_public_id": p.LeagueID,
			"name":             p.Name,
			"position":         string(p.Position),
		})
		if err != nil {
			return fmt.Errorf("bind seed player %s query: %w", p.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed player %s: %w", p.ID, err)
		}
	}

	for _, t := range memory.SeedTeams(faabBudget) {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO fantasy_teams (public_id, league_public_id, name, owner_user_id, total_faab, spent_faab, waiver_priority)
VALUES (:public_id, :league_public_id, :name, :owner_user_id, :total_faab, :spent_faab, :waiver_priority)
ON CONFLICT (public_id) DO NOTHING`, map[string]any{
			"public_id":        t.TeamID,
			"league_public_id": t.LeagueID,
			"name":             t.Name,
			"owner_user_id":    t.OwnerUserID,
			"total_faab":       t.TotalFaab,
			"spent_faab":       t.SpentFaab,
			"waiver_priority":  t.WaiverPriority,
		})
		if err != nil {
			return fmt.Errorf("bind seed team %s query: %w", t.TeamID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed team %s: %w", t.TeamID, err)
		}

		for _, playerID := range t.PlayerIDs {
			if _, err := tx.ExecContext(ctx, insertRosterEntrySQL, t.LeagueID, t.TeamID, playerID, nowUTC()); err != nil {
				return fmt.Errorf("seed roster entry team=%s player=%s: %w", t.TeamID, playerID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}

	return nil
}
