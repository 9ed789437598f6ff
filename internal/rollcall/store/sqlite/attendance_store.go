package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"

	dbpkg "github.com/BrandonDHaskell/rollcall/internal/db"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

// TimestampLayout is the human-readable form kept in attendance_log.timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

type AttendanceStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
	loc    *time.Location
	now    func() time.Time
}

type AttendanceOption func(*AttendanceStore)

// WithLocation sets the zone used for the timestamp column. Defaults to Local.
func WithLocation(loc *time.Location) AttendanceOption {
	return func(s *AttendanceStore) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithClock(now func() time.Time) AttendanceOption {
	return func(s *AttendanceStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewAttendanceStore(db *sql.DB, writer *dbpkg.Worker, opts ...AttendanceOption) *AttendanceStore {
	s := &AttendanceStore{db: db, writer: writer, loc: time.Local, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AttendanceStore) Append(ctx context.Context, userID, userName string, action types.Action) (types.AttendanceEvent, error) {
	uid, err := snowflake.ParseString(userID)
	if err != nil {
		return types.AttendanceEvent{}, fmt.Errorf("Append user_id %q: %w", userID, err)
	}

	at := s.now().In(s.loc).Truncate(time.Millisecond)
	ev := types.AttendanceEvent{
		UserID:    userID,
		UserName:  userName,
		Action:    action,
		Timestamp: at,
	}

	err = s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO attendance_log(user_id, user_name, action, timestamp, created_at_ms)
VALUES (?, ?, ?, ?, ?);
`, uid.Int64(), userName, string(action), at.Format(TimestampLayout), at.UnixMilli())
		if err != nil {
			return fmt.Errorf("Append insert: %w", err)
		}
		ev.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("Append last id: %w", err)
		}
		return nil
	})
	if err != nil {
		return types.AttendanceEvent{}, err
	}
	return ev, nil
}

// LatestPerUser scans the log once and folds it per user.
func (s *AttendanceStore) LatestPerUser(ctx context.Context) (map[string]types.UserState, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, user_name, action, created_at_ms
FROM attendance_log
ORDER BY id;
`)
	if err != nil {
		return nil, fmt.Errorf("LatestPerUser query: %w", err)
	}
	defer rows.Close()

	latest := make(map[string]types.UserState)
	for rows.Next() {
		ev, err := s.scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("LatestPerUser scan: %w", err)
		}
		store.FoldLatest(latest, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LatestPerUser rows: %w", err)
	}
	return latest, nil
}

func (s *AttendanceStore) Recent(ctx context.Context, limit int) ([]types.AttendanceEvent, error) {
	out := []types.AttendanceEvent{}
	if limit <= 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, user_name, action, created_at_ms
FROM attendance_log
ORDER BY id DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("Recent query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		ev, err := s.scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("Recent scan: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Recent rows: %w", err)
	}
	return out, nil
}

func (s *AttendanceStore) scanEvent(rows *sql.Rows) (types.AttendanceEvent, error) {
	var (
		ev     types.AttendanceEvent
		userID int64
		action string
		atMs   int64
	)
	if err := rows.Scan(&ev.ID, &userID, &ev.UserName, &action, &atMs); err != nil {
		return types.AttendanceEvent{}, err
	}
	a, err := types.ParseAction(action)
	if err != nil {
		return types.AttendanceEvent{}, fmt.Errorf("row %d: %w", ev.ID, err)
	}
	ev.UserID = snowflake.ID(userID).String()
	ev.Action = a
	ev.Timestamp = time.UnixMilli(atMs).In(s.loc)
	return ev, nil
}
