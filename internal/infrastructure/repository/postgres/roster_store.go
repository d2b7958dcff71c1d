package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/player"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/roster"
	qb "github.com/riskibarqy/fantasy-waivers/internal/platform/querybuilder"
)

type RosterStore struct {
	db *sqlx.DB
}

func NewRosterStore(db *sqlx.DB) *RosterStore {
	return &RosterStore{db: db}
}

// LoadSnapshot reads teams, rosters and the player pool inside one
// repeatable-read transaction so the three views agree.
func (s *RosterStore) LoadSnapshot(ctx context.Context, leagueID string) (roster.Snapshot, error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return roster.Snapshot{}, fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const teamsQuery = `
SELECT t.public_id, t.name, t.owner_user_id, t.total_faab, t.spent_faab, t.waiver_priority,
       COALESCE(ARRAY_AGG(e.player_public_id ORDER BY e.id) FILTER (WHERE e.id IS NOT NULL), '{}') AS player_ids
FROM fantasy_teams t
LEFT JOIN roster_entries e
       ON e.team_public_id = t.public_id
      AND e.deleted_at IS NULL
WHERE t.league_public_id = $1
GROUP BY t.id
ORDER BY t.waiver_priority, t.public_id`

	var teamRows []fantasyTeamRow
	if err := tx.SelectContext(ctx, &teamRows, teamsQuery, leagueID); err != nil {
		return roster.Snapshot{}, fmt.Errorf("select fantasy teams: %w", err)
	}

	playersQuery, args, err := qb.Select("public_id", "name", "position").From("players").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("public_id").
		ToSQL()
	if err != nil {
		return roster.Snapshot{}, fmt.Errorf("build select players query: %w", err)
	}
	var playerRows []playerTableModel
	if err := tx.SelectContext(ctx, &playerRows, playersQuery, args...); err != nil {
		return roster.Snapshot{}, fmt.Errorf("select players: %w", err)
	}

	snap := roster.Snapshot{
		LeagueID: leagueID,
		Teams:    make(map[string]roster.TeamState, len(teamRows)),
		Players:  make(map[string]player.Player, len(playerRows)),
	}
	for _, row := range teamRows {
		snap.Teams[row.PublicID] = roster.TeamState{
			TeamID:         row.PublicID,
			LeagueID:       leagueID,
			Name:           row.Name,
			OwnerUserID:    row.OwnerUserID,
			PlayerIDs:      []string(row.PlayerIDs),
			TotalFaab:      row.TotalFaab,
			SpentFaab:      row.SpentFaab,
			WaiverPriority: row.WaiverPriority,
		}
	}
	for _, row := range playerRows {
		snap.Players[row.PublicID] = player.Player{
			ID:       row.PublicID,
			LeagueID: leagueID,
			Name:     row.Name,
			Position: player.Position(row.Position),
		}
	}

	return snap, nil
}
