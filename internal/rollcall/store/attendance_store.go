package store

import (
	"context"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

// AttendanceStore persists enter/leave actions as an append-only log.
// Duplicate rapid actions are recorded as-is; the log is raw history.
type AttendanceStore interface {
	Append(ctx context.Context, userID, userName string, action types.Action) (types.AttendanceEvent, error)
	// LatestPerUser returns, for every user in the log, the event with the
	// highest id.
	LatestPerUser(ctx context.Context) (map[string]types.UserState, error)
	// Recent returns at most limit events, newest first.
	Recent(ctx context.Context, limit int) ([]types.AttendanceEvent, error)
}
