package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/waiver"
	qb "github.com/riskibarqy/fantasy-waivers/internal/platform/querybuilder"
)

type passTableModel struct {
	PublicID       string     `db:"public_id"`
	LeaguePublicID string     `db:"league_public_id"`
	CutoffAt       time.Time  `db:"cutoff_at"`
	Mode           string     `db:"mode"`
	Status         string     `db:"status"`
	StartedAt      time.Time  `db:"started_at"`
	CompletedAt    *time.Time `db:"completed_at"`
	Report         *string    `db:"report"`
	LastError      *string    `db:"last_error"`
}

type PassRepository struct {
	db *sqlx.DB
}

func NewPassRepository(db *sqlx.DB) *PassRepository {
	return &PassRepository{db: db}
}

func (r *PassRepository) GetByCutoff(ctx context.Context, leagueID string, cutoff time.Time) (waiver.PassRecord, bool, error) {
	query, args, err := qb.Select("public_id", "league_public_id", "cutoff_at", "mode", "status", "started_at", "completed_at", "report::text AS report", "last_error").
		From("waiver_passes").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("cutoff_at", cutoff.UTC()),
		).
		ToSQL()
	if err != nil {
		return waiver.PassRecord{}, false, fmt.Errorf("build get waiver pass query: %w", err)
	}

	var row passTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return waiver.PassRecord{}, false, nil
		}
		return waiver.PassRecord{}, false, fmt.Errorf("get waiver pass: %w", err)
	}

	record, err := passFromRow(row)
	if err != nil {
		return waiver.PassRecord{}, false, err
	}
	return record, true, nil
}

// Start replaces a running or aborted record for the same cutoff; a completed
// one is never overwritten.
func (r *PassRepository) Start(ctx context.Context, record waiver.PassRecord) error {
	model := passTableModel{
		PublicID:       record.ID,
		LeaguePublicID: record.LeagueID,
		CutoffAt:       record.Cutoff.UTC(),
		Mode:           string(record.Mode),
		Status:         string(record.Status),
		StartedAt:      record.StartedAt.UTC(),
	}
	query, args, err := qb.InsertModel("waiver_passes", model, `ON CONFLICT (league_public_id, cutoff_at)
DO UPDATE SET
    public_id = EXCLUDED.public_id,
    mode = EXCLUDED.mode,
    status = EXCLUDED.status,
    started_at = EXCLUDED.started_at,
    completed_at = NULL,
    report = NULL,
    last_error = NULL
WHERE waiver_passes.status <> 'completed'`)
	if err != nil {
		return fmt.Errorf("build start waiver pass query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("start waiver pass league=%s: %w", record.LeagueID, err)
	}
	n, err := affected(result)
	if err != nil {
		return fmt.Errorf("start waiver pass rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("pass for league=%s cutoff=%s already completed", record.LeagueID, record.Cutoff.UTC().Format(time.RFC3339))
	}
	return nil
}

func (r *PassRepository) Finish(ctx context.Context, record waiver.PassRecord) error {
	var report *string
	if record.Report != nil {
		raw, err := sonic.Marshal(record.Report)
		if err != nil {
			return fmt.Errorf("marshal settlement report: %w", err)
		}
		encoded := string(raw)
		report = &encoded
	}

	query, args, err := qb.Update("waiver_passes").
		Set("status", string(record.Status)).
		Set("completed_at", optionalTime(record.CompletedAt)).
		SetExpr("report", "?::jsonb", report).
		Set("last_error", optionalString(record.LastError)).
		Where(
			qb.Eq("public_id", record.ID),
			qb.Eq("league_public_id", record.LeagueID),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build finish waiver pass query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("finish waiver pass=%s: %w", record.ID, err)
	}
	n, err := affected(result)
	if err != nil {
		return fmt.Errorf("finish waiver pass rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: pass=%s", waiver.ErrPassNotFound, record.ID)
	}
	return nil
}

func passFromRow(row passTableModel) (waiver.PassRecord, error) {
	record := waiver.PassRecord{
		ID:        row.PublicID,
		LeagueID:  row.LeaguePublicID,
		Cutoff:    row.CutoffAt.UTC(),
		Mode:      waiver.Mode(row.Mode),
		Status:    waiver.PassStatus(row.Status),
		StartedAt: row.StartedAt.UTC(),
		LastError: stringValue(row.LastError),
	}
	if row.CompletedAt != nil {
		completedAt := row.CompletedAt.UTC()
		record.CompletedAt = &completedAt
	}
	if raw := stringValue(row.Report); raw != "" {
		var report waiver.SettlementReport
		if err := sonic.UnmarshalString(raw, &report); err != nil {
			return waiver.PassRecord{}, fmt.Errorf("decode settlement report pass=%s: %w", row.PublicID, err)
		}
		record.Report = &report
	}
	return record, nil
}
