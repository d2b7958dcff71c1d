package league

import "context"

// Repository loads leagues with their waiver settings and processing schedule.
// A missing league is reported through the bool, never as an error.
type Repository interface {
	List(ctx context.Context) ([]League, error)
	GetByID(ctx context.Context, leagueID string) (League, bool, error)
}
