package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

func TestActionForCustomID(t *testing.T) {
	if a, ok := actionForCustomID("enter"); !ok || a != types.ActionEnter {
		t.Fatalf("enter = %q %v", a, ok)
	}
	if a, ok := actionForCustomID("leave"); !ok || a != types.ActionLeave {
		t.Fatalf("leave = %q %v", a, ok)
	}
	if _, ok := actionForCustomID("other"); ok {
		t.Fatal("unknown custom id accepted")
	}
}

func TestControls_StableCustomIDs(t *testing.T) {
	comps := controls(buttonLabels{Enter: "In", Leave: "Out"})
	if len(comps) != 1 {
		t.Fatalf("rows = %d, want 1", len(comps))
	}
	row, ok := comps[0].(discordgo.ActionsRow)
	if !ok {
		t.Fatalf("row type = %T", comps[0])
	}
	if len(row.Components) != 2 {
		t.Fatalf("buttons = %d, want 2", len(row.Components))
	}

	enter := row.Components[0].(discordgo.Button)
	leave := row.Components[1].(discordgo.Button)
	if enter.CustomID != "enter" || enter.Label != "In" || enter.Style != discordgo.SuccessButton {
		t.Fatalf("enter button = %+v", enter)
	}
	if leave.CustomID != "leave" || leave.Label != "Out" || leave.Style != discordgo.DangerButton {
		t.Fatalf("leave button = %+v", leave)
	}
}

func TestSummaryEmbed(t *testing.T) {
	e := summaryEmbed(types.Summary{
		Title:       "Attendance",
		Description: "- Bob",
		Color:       types.ColorBlue,
		Fields:      []types.SummaryField{{Name: "Currently present", Value: "1 present"}},
	})
	if e.Title != "Attendance" || e.Description != "- Bob" || e.Color != types.ColorBlue {
		t.Fatalf("embed = %+v", e)
	}
	if len(e.Fields) != 1 || e.Fields[0].Name != "Currently present" || e.Fields[0].Value != "1 present" {
		t.Fatalf("fields = %+v", e.Fields)
	}
}
