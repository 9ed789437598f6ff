package db

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// ImportLegacyMirrors loads a flat {"channelId": messageId} JSON file written
// by earlier releases into mirror_messages, then renames it to
// "<path>.imported" so the import runs once. Rows already in the table win.
// A missing file is not an error. Returns the number of rows inserted.
func ImportLegacyMirrors(ctx context.Context, conn *sql.DB, path string) (int, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return 0, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read legacy mirror file: %w", err)
	}

	entries, err := decodeLegacyMirrors(raw)
	if err != nil {
		return 0, fmt.Errorf("decode legacy mirror file %s: %w", path, err)
	}

	now := time.Now().UTC().UnixMilli()
	inserted := 0

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for channelID, messageID := range entries {
		res, err := tx.ExecContext(ctx, `
INSERT INTO mirror_messages(channel_id, message_id, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?)
ON CONFLICT(channel_id) DO NOTHING;
`, channelID, messageID.Int64(), now, now)
		if err != nil {
			return 0, fmt.Errorf("import mirror %s: %w", channelID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit legacy import: %w", err)
	}

	if err := os.Rename(path, path+".imported"); err != nil {
		return inserted, fmt.Errorf("rename legacy mirror file: %w", err)
	}
	return inserted, nil
}

// decodeLegacyMirrors accepts message ids written as JSON numbers or strings.
func decodeLegacyMirrors(raw []byte) (map[string]snowflake.ID, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}

	out := make(map[string]snowflake.ID, len(doc))
	for k, v := range doc {
		channelID := strings.TrimSpace(k)
		if _, err := snowflake.ParseString(channelID); err != nil {
			return nil, fmt.Errorf("channel id %q: %w", k, err)
		}

		var s string
		switch t := v.(type) {
		case json.Number:
			s = t.String()
		case string:
			s = strings.TrimSpace(t)
		default:
			return nil, fmt.Errorf("channel %s: unexpected message id %v", k, v)
		}
		id, err := snowflake.ParseString(s)
		if err != nil {
			return nil, fmt.Errorf("channel %s: message id %q: %w", k, s, err)
		}
		out[channelID] = id
	}
	return out, nil
}
