package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/jobscheduler"
	qb "github.com/riskibarqy/fantasy-waivers/internal/platform/querybuilder"
)

type JobDispatchRepository struct {
	db *sqlx.DB
}

func NewJobDispatchRepository(db *sqlx.DB) *JobDispatchRepository {
	return &JobDispatchRepository{db: db}
}

func (r *JobDispatchRepository) UpsertEvent(ctx context.Context, event jobscheduler.DispatchEvent) error {
	query, args, err := buildDispatchUpsert(event)
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert job dispatch dispatch_id=%s status=%s: %w", event.DispatchID, event.Status, err)
	}
	return nil
}

func buildDispatchUpsert(event jobscheduler.DispatchEvent) (string, []any, error) {
	dispatchID := strings.TrimSpace(event.DispatchID)
	if dispatchID == "" {
		return "", nil, fmt.Errorf("dispatch id is required")
	}
	prefix, ok := dispatchStampPrefix[event.Status]
	if !ok {
		return "", nil, fmt.Errorf("unknown dispatch status %q", event.Status)
	}

	payload, err := marshalPayload(event.Payload)
	if err != nil {
		return "", nil, fmt.Errorf("marshal job dispatch payload: %w", err)
	}
	occurredAt := event.OccurredAt.UTC()
	if event.OccurredAt.IsZero() {
		occurredAt = nowUTC()
	}

	row := jobDispatchRow{
		DispatchID: dispatchID,
		JobName:    orUnknown(event.JobName),
		JobPath:    orUnknown(event.JobPath),
		LeagueID:   orUnknown(event.LeagueID),
		CutoffAt:   optionalTime(&event.Cutoff),
		Payload:    payload,
		Status:     string(event.Status),
	}
	if event.Status == jobscheduler.StatusFailed {
		row.LastError = optionalString(event.ErrorMessage)
	}

	cols, vals := row.columns()
	cols = append(cols, prefix+"_at", prefix+"_trace_id", prefix+"_span_id")
	vals = append(vals, occurredAt, optionalString(event.TraceID), optionalString(event.SpanID))

	return qb.InsertInto("job_dispatches").
		Columns(cols...).
		Values(vals...).
		Suffix(dispatchConflictClause(prefix, event.Status)).
		ToSQL()
}

// dispatchConflictClause refreshes the row for a newer event. The status
// guard mirrors DispatchStatus.Supersedes: a late "sent" leaves a completed
// dispatch untouched.
func dispatchConflictClause(prefix string, status jobscheduler.DispatchStatus) string {
	var b strings.Builder
	b.WriteString(`ON CONFLICT (dispatch_id) WHERE deleted_at IS NULL DO UPDATE SET
    job_name = EXCLUDED.job_name,
    job_path = EXCLUDED.job_path,
    league_public_id = EXCLUDED.league_public_id,
    cutoff_at = COALESCE(EXCLUDED.cutoff_at, job_dispatches.cutoff_at),
    payload = EXCLUDED.payload,
    status = EXCLUDED.status,
    last_error = EXCLUDED.last_error,
`)
	fmt.Fprintf(&b, "    %[1]s_at = EXCLUDED.%[1]s_at,\n", prefix)
	fmt.Fprintf(&b, "    %[1]s_trace_id = EXCLUDED.%[1]s_trace_id,\n", prefix)
	fmt.Fprintf(&b, "    %[1]s_span_id = EXCLUDED.%[1]s_span_id,\n", prefix)
	if status == jobscheduler.StatusCompleted {
		b.WriteString("    failed_at = NULL,\n")
	}
	b.WriteString("    updated_at = NOW(),\n    deleted_at = NULL")
	if status == jobscheduler.StatusSent {
		b.WriteString("\nWHERE job_dispatches.status <> 'completed'")
	}
	return b.String()
}

func orUnknown(value string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return "unknown"
}

func marshalPayload(payload map[string]any) (string, error) {
	if len(payload) == 0 {
		return "{}", nil
	}
	raw, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
