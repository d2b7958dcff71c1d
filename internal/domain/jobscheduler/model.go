package jobscheduler

import (
	"regexp"
	"strings"
	"time"
)

type DispatchStatus string

const (
	StatusSent      DispatchStatus = "sent"
	StatusCompleted DispatchStatus = "completed"
	StatusFailed    DispatchStatus = "failed"
)

// Supersedes reports whether an event with status s may replace a stored
// event with status prev. A redelivered or late "sent" never reopens a
// dispatch that already completed.
func (s DispatchStatus) Supersedes(prev DispatchStatus) bool {
	return !(prev == StatusCompleted && s == StatusSent)
}

const (
	JobProcessWaivers  = "process-waivers"
	JobScheduleWaivers = "schedule-waivers"
)

// DispatchEvent is one lifecycle step of a queued waiver job.
type DispatchEvent struct {
	DispatchID   string
	JobName      string
	JobPath      string
	LeagueID     string
	Cutoff       time.Time
	Status       DispatchStatus
	Payload      map[string]any
	ErrorMessage string
	OccurredAt   time.Time
	TraceID      string
	SpanID       string
}

var dedupUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// DispatchID derives the dedup key shared by QStash and the audit table.
// QStash rejects colons, so every segment is reduced to [a-zA-Z0-9_-].
func DispatchID(jobName, leagueID string, cutoff time.Time) string {
	return sanitize(jobName) + "-" + sanitize(leagueID) + "-" + cutoff.UTC().Format("20060102T150405Z")
}

func sanitize(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return dedupUnsafe.ReplaceAllString(value, "-")
}
