package league

import (
	"testing"
	"time"
)

func TestProcessingSchedule_Cutoffs(t *testing.T) {
	schedule, err := ParseSchedule("wed@03:00", "")
	if err != nil {
		t.Fatalf("parse schedule: %v", err)
	}

	wednesday := time.Date(2026, 10, 21, 3, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		at       time.Time
		previous time.Time
		next     time.Time
	}{
		{
			name:     "mid week",
			at:       time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
			previous: wednesday.AddDate(0, 0, -7),
			next:     wednesday,
		},
		{
			name:     "exactly at cutoff",
			at:       wednesday,
			previous: wednesday,
			next:     wednesday.AddDate(0, 0, 7),
		},
		{
			name:     "same day before cutoff",
			at:       wednesday.Add(-time.Minute),
			previous: wednesday.AddDate(0, 0, -7),
			next:     wednesday,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := schedule.PreviousCutoff(tc.at); !got.Equal(tc.previous) {
				t.Fatalf("previous = %s, want %s", got, tc.previous)
			}
			if got := schedule.NextCutoff(tc.at); !got.Equal(tc.next) {
				t.Fatalf("next = %s, want %s", got, tc.next)
			}
		})
	}
}

func TestParseSchedule_Invalid(t *testing.T) {
	for _, raw := range []string{"", "wed", "xyz@03:00", "wed@25:00"} {
		if _, err := ParseSchedule(raw, ""); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
	if _, err := ParseSchedule("wed@03:00", "Mars/Olympus"); err == nil {
		t.Fatalf("expected error for unknown location")
	}
}

func TestProcessingSchedule_String(t *testing.T) {
	s := ProcessingSchedule{Weekday: time.Tuesday, Hour: 9, Minute: 5}
	if got := s.String(); got != "tue@09:05" {
		t.Fatalf("unexpected schedule string %q", got)
	}
}
