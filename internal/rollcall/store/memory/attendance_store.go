package memory

import (
	"context"
	"sync"
	"time"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

// AttendanceStore is an in-memory append-only attendance log.
// It is intended for use in tests and dev environments.
type AttendanceStore struct {
	mu     sync.Mutex
	now    func() time.Time
	nextID int64
	events []types.AttendanceEvent
}

func NewAttendanceStore() *AttendanceStore {
	return NewAttendanceStoreWithClock(time.Now)
}

// NewAttendanceStoreWithClock lets tests pin the timestamps assigned on append.
func NewAttendanceStoreWithClock(now func() time.Time) *AttendanceStore {
	return &AttendanceStore{now: now, nextID: 1}
}

func (s *AttendanceStore) Append(_ context.Context, userID, userName string, action types.Action) (types.AttendanceEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev := types.AttendanceEvent{
		ID:        s.nextID,
		UserID:    userID,
		UserName:  userName,
		Action:    action,
		Timestamp: s.now().Truncate(time.Second),
	}
	s.nextID++
	s.events = append(s.events, ev)
	return ev, nil
}

func (s *AttendanceStore) LatestPerUser(_ context.Context) (map[string]types.UserState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest := make(map[string]types.UserState)
	for _, ev := range s.events {
		store.FoldLatest(latest, ev)
	}
	return latest, nil
}

func (s *AttendanceStore) Recent(_ context.Context, limit int) ([]types.AttendanceEvent, error) {
	if limit <= 0 {
		return []types.AttendanceEvent{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.AttendanceEvent, 0, min(limit, len(s.events)))
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}

// Events returns a copy of all recorded events in append order.  Test-only helper.
func (s *AttendanceStore) Events() []types.AttendanceEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.AttendanceEvent, len(s.events))
	copy(out, s.events)
	return out
}
