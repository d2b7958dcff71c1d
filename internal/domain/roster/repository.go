package roster

import "context"

// Store loads league-wide roster and budget state.
type Store interface {
	LoadSnapshot(ctx context.Context, leagueID string) (Snapshot, error)
}
