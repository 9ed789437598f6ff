package service

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/message"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

const (
	logTimestampLayout = "2006-01-02 15:04:05"

	// MaxDescriptionRunes is Discord's limit for an embed description.
	MaxDescriptionRunes = 4096
)

// Renderer turns occupancy and log data into localized summaries.
type Renderer struct {
	p   *message.Printer
	loc *time.Location
}

func NewRenderer(p *message.Printer, loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.Local
	}
	return &Renderer{p: p, loc: loc}
}

func (r *Renderer) Printer() *message.Printer { return r.p }

// Occupancy renders the live mirror content.
func (r *Renderer) Occupancy(names []string) types.Summary {
	s := types.Summary{
		Title:    r.p.Sprintf("Attendance"),
		Color:    types.ColorBlue,
		Controls: true,
	}
	if len(names) == 0 {
		s.Description = r.p.Sprintf("No one is currently present.")
		return s
	}

	s.Description = r.presentList(names)
	s.Fields = []types.SummaryField{{
		Name:  r.p.Sprintf("Currently present"),
		Value: r.p.Sprintf("%d present", len(names)),
	}}
	return s
}

// presentList renders one "- name" line per user. Names that would push the
// text past MaxDescriptionRunes are folded into a trailing "+N more" line.
func (r *Renderer) presentList(names []string) string {
	var b strings.Builder
	used := 0
	for i, n := range names {
		line := "- " + n
		if i > 0 {
			line = "\n" + line
		}
		need := used + utf8.RuneCountInString(line)
		if rest := len(names) - i - 1; rest > 0 {
			need += utf8.RuneCountInString("\n" + r.p.Sprintf("+%d more", rest))
		}
		if need > MaxDescriptionRunes {
			more := r.p.Sprintf("+%d more", len(names)-i)
			if i > 0 {
				more = "\n" + more
			}
			b.WriteString(more)
			break
		}
		b.WriteString(line)
		used += utf8.RuneCountInString(line)
	}
	return b.String()
}

// Placeholder is posted before a new mirror is registered and filled in.
func (r *Renderer) Placeholder() types.Summary {
	return types.Summary{
		Title:       r.p.Sprintf("Attendance"),
		Description: r.p.Sprintf("Loading..."),
		Color:       types.ColorLightGrey,
		Controls:    true,
	}
}

func (r *Renderer) Log(events []types.AttendanceEvent) types.Summary {
	if len(events) == 0 {
		return types.Summary{
			Title:       r.p.Sprintf("Attendance log"),
			Description: r.p.Sprintf("No log entries yet."),
			Color:       types.ColorOrange,
		}
	}

	lines := make([]string, len(events))
	for i, ev := range events {
		lines[i] = "`" + ev.Timestamp.In(r.loc).Format(logTimestampLayout) + "`: " +
			ev.UserName + " - " + r.ActionLabel(ev.Action)
	}
	return types.Summary{
		Title:       r.p.Sprintf("Attendance log (latest %d)", len(events)),
		Description: strings.Join(lines, "\n"),
		Color:       types.ColorOrange,
	}
}

func (r *Renderer) ActionLabel(a types.Action) string {
	if a == types.ActionEnter {
		return r.p.Sprintf("entered")
	}
	return r.p.Sprintf("left")
}

// ClickAck is the private reply to the user who clicked.
func (r *Renderer) ClickAck(a types.Action, userName string) string {
	if a == types.ActionEnter {
		return r.p.Sprintf("%s entered.", userName)
	}
	return r.p.Sprintf("%s left.", userName)
}
