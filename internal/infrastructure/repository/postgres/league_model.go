package postgres

import "time"

type leagueTableModel struct {
	ID                    int64      `db:"id"`
	PublicID              string     `db:"public_id"`
	Name                  string     `db:"name"`
	Season                string     `db:"season"`
	FaabBudget            int64      `db:"faab_budget"`
	WaiverMode            string     `db:"waiver_mode"`
	MinBid                int64      `db:"min_bid"`
	RosterCap             int        `db:"roster_cap"`
	RosterCapBySlot       []byte     `db:"roster_cap_by_slot"`
	AllowSamePassChaining bool       `db:"allow_same_pass_chaining"`
	ProcessingSchedule    string     `db:"processing_schedule"`
	ScheduleTimezone      string     `db:"schedule_timezone"`
	CreatedAt             time.Time  `db:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at"`
	DeletedAt             *time.Time `db:"deleted_at"`
}
