package jobscheduler

import "context"

// Repository is the audit trail of queued waiver jobs, one row per dispatch id.
// Implementations apply an event only when its status Supersedes the stored one.
type Repository interface {
	UpsertEvent(ctx context.Context, event DispatchEvent) error
}
