package postgres

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/player"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/waiver"
)

func TestIsUniqueViolation(t *testing.T) {
	t.Run("matches wrapped unique violation", func(t *testing.T) {
		err := fmt.Errorf("insert waiver claim: %w", &pq.Error{Code: "23505"})
		if !isUniqueViolation(err) {
			t.Fatalf("expected true for unique violation")
		}
	})

	t.Run("ignores other pq codes", func(t *testing.T) {
		if isUniqueViolation(&pq.Error{Code: "23503"}) {
			t.Fatalf("expected false for foreign key violation")
		}
	})

	t.Run("ignores plain errors", func(t *testing.T) {
		if isUniqueViolation(errors.New("pq: duplicate key")) {
			t.Fatalf("expected false for non pq error")
		}
	})
}

func TestOptionalString(t *testing.T) {
	if got := optionalString("   "); got != nil {
		t.Fatalf("expected nil for blank string, got %q", *got)
	}
	got := optionalString(" outbid ")
	if got == nil || *got != "outbid" {
		t.Fatalf("unexpected value: %v", got)
	}
	if stringValue(nil) != "" {
		t.Fatalf("expected empty string for nil")
	}
}

func TestOptionalTime(t *testing.T) {
	if optionalTime(nil) != nil {
		t.Fatalf("expected nil for nil time")
	}
	zero := time.Time{}
	if optionalTime(&zero) != nil {
		t.Fatalf("expected nil for zero time")
	}
	jakarta := time.FixedZone("WIB", 7*3600)
	at := time.Date(2026, 10, 21, 10, 0, 0, 0, jakarta)
	got := optionalTime(&at)
	if got == nil || got.Location() != time.UTC || !got.Equal(at) {
		t.Fatalf("unexpected time: %v", got)
	}
}

func TestSlotCapsRoundTrip(t *testing.T) {
	encoded, err := encodeSlotCaps(map[player.Position]int{player.PositionGoalkeeper: 2})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := decodeSlotCaps([]byte(encoded))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded[player.PositionGoalkeeper] != 2 || len(decoded) != 1 {
		t.Fatalf("unexpected caps: %+v", decoded)
	}

	empty, err := decodeSlotCaps([]byte("{}"))
	if err != nil || empty != nil {
		t.Fatalf("expected nil caps for empty object, got %+v err=%v", empty, err)
	}
	if raw, _ := encodeSlotCaps(nil); raw != "{}" {
		t.Fatalf("unexpected empty encoding: %s", raw)
	}
}

func TestLeagueFromRow(t *testing.T) {
	row := leagueTableModel{
		PublicID:           "idn-liga-1-2025",
		Name:               "Liga 1 Indonesia",
		WaiverMode:         "FAAB",
		MinBid:             1,
		RosterCap:          15,
		RosterCapBySlot:    []byte(`{"GK":2}`),
		ProcessingSchedule: "wed@03:00",
		ScheduleTimezone:   "UTC",
	}
	got, err := leagueFromRow(row)
	if err != nil {
		t.Fatalf("league from row: %v", err)
	}
	if got.Waiver.Mode != waiver.ModeFAAB || got.Waiver.RosterCapBySlot[player.PositionGoalkeeper] != 2 {
		t.Fatalf("unexpected league: %+v", got)
	}
	if got.Schedule.Weekday != time.Wednesday || got.Schedule.Hour != 3 {
		t.Fatalf("unexpected schedule: %+v", got.Schedule)
	}

	row.WaiverMode = "auction"
	if _, err := leagueFromRow(row); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestClaimModelRoundTrip(t *testing.T) {
	processedAt := time.Date(2026, 10, 21, 3, 0, 0, 0, time.UTC)
	claim := waiver.Claim{
		ID:            "wc-1",
		LeagueID:      "idn-liga-1-2025",
		TeamID:        "ft-garuda",
		Kind:          waiver.KindAddDrop,
		AddPlayerID:   "idn-mid-04",
		DropPlayerID:  "idn-mid-01",
		BidAmount:     12,
		Status:        waiver.StatusFailed,
		FailureReason: waiver.ReasonOutbid,
		SubmittedAt:   processedAt.Add(-time.Hour),
		ExpiresAt:     processedAt,
		ProcessedAt:   &processedAt,
	}

	model := claimModelFrom(claim)
	if model.ProcessingPassID != nil {
		t.Fatalf("expected nil pass id column")
	}
	got := model.toDomain()
	if got.FailureReason != waiver.ReasonOutbid || got.DropPlayerID != "idn-mid-01" || got.ProcessedAt == nil || !got.ProcessedAt.Equal(processedAt) {
		t.Fatalf("unexpected claim: %+v", got)
	}
}
