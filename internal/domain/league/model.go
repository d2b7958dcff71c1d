package league

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/fantasy-waivers/internal/domain/waiver"
)

// League is a fantasy league whose free-agent claims settle on a weekly cutoff.
type League struct {
	ID         string
	Name       string
	Season     string
	FaabBudget int64
	Waiver     waiver.Settings
	Schedule   ProcessingSchedule
}

func (l League) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("league id is required")
	}
	if l.Name == "" {
		return fmt.Errorf("league name is required")
	}
	if l.FaabBudget < 0 {
		return fmt.Errorf("league faab budget must be >= 0")
	}
	if err := l.Waiver.Validate(); err != nil {
		return err
	}
	if err := l.Schedule.Validate(); err != nil {
		return err
	}

	return nil
}

// ProcessingSchedule is the fixed weekly instant at which claims are processed.
type ProcessingSchedule struct {
	Weekday  time.Weekday
	Hour     int
	Minute   int
	Location string
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// ParseSchedule reads "wed@03:00" style expressions.
func ParseSchedule(raw, location string) (ProcessingSchedule, error) {
	day, clock, ok := strings.Cut(strings.ToLower(strings.TrimSpace(raw)), "@")
	if !ok {
		return ProcessingSchedule{}, fmt.Errorf("invalid schedule %q, expected day@HH:MM", raw)
	}
	weekday, ok := weekdays[strings.TrimSpace(day)]
	if !ok {
		return ProcessingSchedule{}, fmt.Errorf("invalid schedule weekday %q", day)
	}
	at, err := time.Parse("15:04", strings.TrimSpace(clock))
	if err != nil {
		return ProcessingSchedule{}, fmt.Errorf("invalid schedule time %q: %w", clock, err)
	}

	s := ProcessingSchedule{
		Weekday:  weekday,
		Hour:     at.Hour(),
		Minute:   at.Minute(),
		Location: strings.TrimSpace(location),
	}
	return s, s.Validate()
}

func (s ProcessingSchedule) Validate() error {
	if s.Hour < 0 || s.Hour > 23 || s.Minute < 0 || s.Minute > 59 {
		return fmt.Errorf("invalid schedule clock %02d:%02d", s.Hour, s.Minute)
	}
	if _, err := s.location(); err != nil {
		return err
	}
	return nil
}

func (s ProcessingSchedule) location() (*time.Location, error) {
	if s.Location == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(s.Location)
	if err != nil {
		return nil, fmt.Errorf("load schedule location %q: %w", s.Location, err)
	}
	return loc, nil
}

// NextCutoff returns the first processing instant strictly after t.
func (s ProcessingSchedule) NextCutoff(t time.Time) time.Time {
	prev := s.PreviousCutoff(t)
	loc, err := s.location()
	if err != nil {
		loc = time.UTC
	}
	local := prev.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()+7, s.Hour, s.Minute, 0, 0, loc).UTC()
}

// PreviousCutoff returns the latest processing instant at or before t.
func (s ProcessingSchedule) PreviousCutoff(t time.Time) time.Time {
	loc, err := s.location()
	if err != nil {
		loc = time.UTC
	}
	local := t.In(loc)
	back := (int(local.Weekday()) - int(s.Weekday) + 7) % 7
	candidate := time.Date(local.Year(), local.Month(), local.Day()-back, s.Hour, s.Minute, 0, 0, loc)
	if candidate.After(local) {
		candidate = time.Date(candidate.Year(), candidate.Month(), candidate.Day()-7, s.Hour, s.Minute, 0, 0, loc)
	}
	return candidate.UTC()
}

func (s ProcessingSchedule) String() string {
	for name, day := range weekdays {
		if day == s.Weekday {
			return fmt.Sprintf("%s@%02d:%02d", name, s.Hour, s.Minute)
		}
	}
	return fmt.Sprintf("%d@%02d:%02d", s.Weekday, s.Hour, s.Minute)
}
