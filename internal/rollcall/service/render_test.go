package service_test

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/service"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

func newTestRenderer() *service.Renderer {
	return service.NewRenderer(message.NewPrinter(language.English), time.UTC)
}

func TestRenderer_Occupancy_Empty(t *testing.T) {
	s := newTestRenderer().Occupancy(nil)

	if s.Description != "No one is currently present." {
		t.Errorf("unexpected description %q", s.Description)
	}
	if len(s.Fields) != 0 {
		t.Errorf("expected no count field, got %v", s.Fields)
	}
	if !s.Controls {
		t.Error("expected controls to be re-attached")
	}
}

func TestRenderer_Occupancy_ListsNamesAndCount(t *testing.T) {
	s := newTestRenderer().Occupancy([]string{"Bob", "Alice"})

	if s.Description != "- Bob\n- Alice" {
		t.Errorf("unexpected description %q", s.Description)
	}
	if len(s.Fields) != 1 || s.Fields[0].Value != "2 present" {
		t.Errorf("unexpected fields %v", s.Fields)
	}
	if s.Title != "Attendance" {
		t.Errorf("unexpected title %q", s.Title)
	}
}

func TestRenderer_Log(t *testing.T) {
	at := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	s := newTestRenderer().Log([]types.AttendanceEvent{
		{ID: 2, UserName: "Alice", Action: types.ActionLeave, Timestamp: at},
		{ID: 1, UserName: "Alice", Action: types.ActionEnter, Timestamp: at.Add(-time.Hour)},
	})

	if s.Title != "Attendance log (latest 2)" {
		t.Errorf("unexpected title %q", s.Title)
	}
	lines := strings.Split(s.Description, "\n")
	if len(lines) != 2 || lines[0] != "`2026-02-15 12:00:00`: Alice - left" {
		t.Errorf("unexpected log lines %q", lines)
	}
}

func TestRenderer_Log_Empty(t *testing.T) {
	s := newTestRenderer().Log(nil)
	if s.Description != "No log entries yet." {
		t.Errorf("unexpected description %q", s.Description)
	}
}

func TestRenderer_Occupancy_TruncatesLongRoster(t *testing.T) {
	names := make([]string, 300)
	for i := range names {
		names[i] = fmt.Sprintf("member-%03d-%s", i, strings.Repeat("x", 20))
	}

	s := newTestRenderer().Occupancy(names)

	if n := utf8.RuneCountInString(s.Description); n > service.MaxDescriptionRunes {
		t.Fatalf("description has %d runes, limit %d", n, service.MaxDescriptionRunes)
	}
	lines := strings.Split(s.Description, "\n")
	last := lines[len(lines)-1]
	listed := len(lines) - 1
	if want := fmt.Sprintf("+%d more", len(names)-listed); last != want {
		t.Errorf("expected trailing %q, got %q", want, last)
	}
	if lines[0] != "- "+names[0] {
		t.Errorf("expected most recent arrival first, got %q", lines[0])
	}
	if len(s.Fields) != 1 || s.Fields[0].Value != "300 present" {
		t.Errorf("expected full count in field, got %v", s.Fields)
	}
}

func TestRenderer_Occupancy_ExactFitHasNoMoreLine(t *testing.T) {
	// Two lines that together land one rune under the limit.
	names := []string{strings.Repeat("a", 2045), strings.Repeat("b", 2045)}

	s := newTestRenderer().Occupancy(names)

	if n := utf8.RuneCountInString(s.Description); n != service.MaxDescriptionRunes-1 {
		t.Fatalf("description has %d runes", n)
	}
	if strings.Contains(s.Description, "more") {
		t.Errorf("unexpected truncation: %q", s.Description[len(s.Description)-20:])
	}
}
