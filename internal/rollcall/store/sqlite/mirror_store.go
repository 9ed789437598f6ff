package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"

	dbpkg "github.com/BrandonDHaskell/rollcall/internal/db"
)

type MirrorStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewMirrorStore(db *sql.DB, writer *dbpkg.Worker) *MirrorStore {
	return &MirrorStore{db: db, writer: writer}
}

func (s *MirrorStore) Get(ctx context.Context, channelID string) (string, bool, error) {
	var messageID int64
	err := s.db.QueryRowContext(ctx, `
SELECT message_id FROM mirror_messages WHERE channel_id = ?;
`, channelID).Scan(&messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("Get mirror: %w", err)
	}
	return snowflake.ID(messageID).String(), true, nil
}

func (s *MirrorStore) Put(ctx context.Context, channelID, messageID string) error {
	mid, err := snowflake.ParseString(messageID)
	if err != nil {
		return fmt.Errorf("Put message_id %q: %w", messageID, err)
	}
	now := time.Now().UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO mirror_messages(channel_id, message_id, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?)
ON CONFLICT(channel_id) DO UPDATE SET
  message_id    = excluded.message_id,
  updated_at_ms = excluded.updated_at_ms;
`, channelID, mid.Int64(), now, now); err != nil {
			return fmt.Errorf("Put mirror: %w", err)
		}
		return nil
	})
}

func (s *MirrorStore) Remove(ctx context.Context, channelID string) (bool, error) {
	var removed bool
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM mirror_messages WHERE channel_id = ?;
`, channelID)
		if err != nil {
			return fmt.Errorf("Remove mirror: %w", err)
		}
		n, _ := res.RowsAffected()
		removed = n > 0
		return nil
	})
	return removed, err
}

func (s *MirrorStore) List(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT channel_id, message_id FROM mirror_messages ORDER BY channel_id;
`)
	if err != nil {
		return nil, fmt.Errorf("List mirrors: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var (
			channelID string
			messageID int64
		)
		if err := rows.Scan(&channelID, &messageID); err != nil {
			return nil, fmt.Errorf("List mirrors scan: %w", err)
		}
		out[channelID] = snowflake.ID(messageID).String()
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List mirrors rows: %w", err)
	}
	return out, nil
}
