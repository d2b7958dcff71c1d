package postgres

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/league"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/player"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/waiver"
	qb "github.com/riskibarqy/fantasy-waivers/internal/platform/querybuilder"
)

type LeagueRepository struct {
	db *sqlx.DB
}

func NewLeagueRepository(db *sqlx.DB) *LeagueRepository {
	return &LeagueRepository{db: db}
}

func (r *LeagueRepository) List(ctx context.Context) ([]league.League, error) {
	query, args, err := qb.Select("*").From("leagues").
		Where(qb.IsNull("deleted_at")).
		OrderBy("public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select leagues query: %w", err)
	}

	var rows []leagueTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select leagues: %w", err)
	}

	out := make([]league.League, 0, len(rows))
	for _, row := range rows {
		item, err := leagueFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}

	return out, nil
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	query, args, err := qb.Select("*").From("leagues").
		Where(
			qb.Eq("public_id", leagueID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return league.League{}, false, fmt.Errorf("build get league by id query: %w", err)
	}

	var row leagueTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return league.League{}, false, nil
		}
		return league.League{}, false, fmt.Errorf("get league by id: %w", err)
	}

	item, err := leagueFromRow(row)
	if err != nil {
		return league.League{}, false, err
	}
	return item, true, nil
}

func leagueFromRow(row leagueTableModel) (league.League, error) {
	mode, err := waiver.ParseMode(row.WaiverMode)
	if err != nil {
		return league.League{}, fmt.Errorf("league=%s: %w", row.PublicID, err)
	}
	slots, err := decodeSlotCaps(row.RosterCapBySlot)
	if err != nil {
		return league.League{}, fmt.Errorf("league=%s: decode roster_cap_by_slot: %w", row.PublicID, err)
	}
	schedule, err := league.ParseSchedule(row.ProcessingSchedule, row.ScheduleTimezone)
	if err != nil {
		return league.League{}, fmt.Errorf("league=%s: %w", row.PublicID, err)
	}

	return league.League{
		ID:         row.PublicID,
		Name:       row.Name,
		Season:     row.Season,
		FaabBudget: row.FaabBudget,
		Waiver: waiver.Settings{
			Mode:                  mode,
			MinBid:                row.MinBid,
			RosterCap:             row.RosterCap,
			RosterCapBySlot:       slots,
			AllowSamePassChaining: row.AllowSamePassChaining,
		},
		Schedule: schedule,
	}, nil
}

func decodeSlotCaps(raw []byte) (map[player.Position]int, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var decoded map[string]int
	if err := sonic.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	if len(decoded) == 0 {
		return nil, nil
	}
	out := make(map[player.Position]int, len(decoded))
	for pos, limit := range decoded {
		out[player.Position(pos)] = limit
	}
	return out, nil
}

func encodeSlotCaps(caps map[player.Position]int) (string, error) {
	if len(caps) == 0 {
		return "{}", nil
	}
	raw, err := sonic.Marshal(caps)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
