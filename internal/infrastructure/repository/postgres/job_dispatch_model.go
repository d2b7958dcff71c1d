package postgres

import (
	"time"

	"github.com/riskibarqy/fantasy-waivers/internal/domain/jobscheduler"
)

// dispatchStampPrefix names the lifecycle columns (<prefix>_at,
// <prefix>_trace_id, <prefix>_span_id) an event of each status writes.
var dispatchStampPrefix = map[jobscheduler.DispatchStatus]string{
	jobscheduler.StatusSent:      "sent",
	jobscheduler.StatusCompleted: "completed",
	jobscheduler.StatusFailed:    "failed",
}

type jobDispatchRow struct {
	DispatchID string     `db:"dispatch_id"`
	JobName    string     `db:"job_name"`
	JobPath    string     `db:"job_path"`
	LeagueID   string     `db:"league_public_id"`
	CutoffAt   *time.Time `db:"cutoff_at"`
	Payload    string     `db:"payload"`
	Status     string     `db:"status"`
	LastError  *string    `db:"last_error"`
}

func (r jobDispatchRow) columns() ([]string, []any) {
	return []string{"dispatch_id", "job_name", "job_path", "league_public_id", "cutoff_at", "payload", "status", "last_error"},
		[]any{r.DispatchID, r.JobName, r.JobPath, r.LeagueID, r.CutoffAt, r.Payload, r.Status, r.LastError}
}
