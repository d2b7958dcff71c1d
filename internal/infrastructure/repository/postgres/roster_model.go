package postgres

import "github.com/lib/pq"

type playerTableModel struct {
	PublicID string `db:"public_id"`
	Name     string `db:"name"`
	Position string `db:"position"`
}

type fantasyTeamRow struct {
	PublicID       string         `db:"public_id"`
	Name           string         `db:"name"`
	OwnerUserID    string         `db:"owner_user_id"`
	TotalFaab      int64          `db:"total_faab"`
	SpentFaab      int64          `db:"spent_faab"`
	WaiverPriority int            `db:"waiver_priority"`
	PlayerIDs      pq.StringArray `db:"player_ids"`
}
