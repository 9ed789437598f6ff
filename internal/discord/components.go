package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

// Button custom ids. They must not change: messages posted by earlier runs
// keep sending these ids after a restart.
const (
	CustomIDEnter = "enter"
	CustomIDLeave = "leave"
)

func actionForCustomID(id string) (types.Action, bool) {
	switch id {
	case CustomIDEnter:
		return types.ActionEnter, true
	case CustomIDLeave:
		return types.ActionLeave, true
	}
	return "", false
}

type buttonLabels struct {
	Enter string
	Leave string
}

func controls(l buttonLabels) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: l.Enter, Style: discordgo.SuccessButton, CustomID: CustomIDEnter},
				discordgo.Button{Label: l.Leave, Style: discordgo.DangerButton, CustomID: CustomIDLeave},
			},
		},
	}
}

func summaryEmbed(s types.Summary) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       s.Title,
		Description: s.Description,
		Color:       s.Color,
	}
	for _, f := range s.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value})
	}
	return e
}
