package store

import "github.com/BrandonDHaskell/rollcall/internal/rollcall/types"

// FoldLatest keeps the max-id event per user. Stores feed it events in any
// order; the result does not depend on that order.
func FoldLatest(latest map[string]types.UserState, ev types.AttendanceEvent) {
	cur, ok := latest[ev.UserID]
	if ok && cur.ID >= ev.ID {
		return
	}
	latest[ev.UserID] = types.UserState{
		ID:        ev.ID,
		UserName:  ev.UserName,
		Action:    ev.Action,
		Timestamp: ev.Timestamp,
	}
}
