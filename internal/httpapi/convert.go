package httpapi

import (
	"maps"
	"slices"
	"time"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/service"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

// Payloads are built from []any and map[string]any only, which both
// encoding/json and structpb.NewStruct accept.

// ── Occupancy ────────────────────────────────────────────────────────────────

func occupancyPayload(names []string) map[string]any {
	present := make([]any, 0, len(names))
	for _, n := range names {
		present = append(present, n)
	}
	return map[string]any{"present": present, "count": len(names)}
}

// ── Log ──────────────────────────────────────────────────────────────────────

func eventsPayload(events []types.AttendanceEvent) map[string]any {
	out := make([]any, 0, len(events))
	for _, ev := range events {
		out = append(out, map[string]any{
			"id":        ev.ID,
			"user_id":   ev.UserID,
			"user_name": ev.UserName,
			"action":    string(ev.Action),
			"timestamp": ev.Timestamp.Format(time.RFC3339),
		})
	}
	return map[string]any{"events": out, "count": len(events)}
}

// ── Mirrors ──────────────────────────────────────────────────────────────────

func mirrorsPayload(mirrors map[string]string) map[string]any {
	out := make([]any, 0, len(mirrors))
	for _, ch := range slices.Sorted(maps.Keys(mirrors)) {
		out = append(out, map[string]any{"channel_id": ch, "message_id": mirrors[ch]})
	}
	return map[string]any{"mirrors": out, "count": len(mirrors)}
}

func syncReportPayload(r service.SyncReport) map[string]any {
	return map[string]any{
		"total":     r.Total,
		"updated":   r.Updated,
		"gone":      r.Gone,
		"forbidden": r.Forbidden,
		"transient": r.Transient,
		"failed":    r.Failed,
	}
}
