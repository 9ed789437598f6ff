package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

// Transport implements service.Transport on a discordgo session.
type Transport struct {
	session *discordgo.Session
	labels  buttonLabels
}

func NewTransport(s *discordgo.Session, enterLabel, leaveLabel string) *Transport {
	return &Transport{session: s, labels: buttonLabels{Enter: enterLabel, Leave: leaveLabel}}
}

func (t *Transport) FetchMessage(ctx context.Context, channelID, messageID string) error {
	_, err := t.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	return classify("fetch message", err)
}

func (t *Transport) EditSummary(ctx context.Context, channelID, messageID string, s types.Summary) error {
	edit := discordgo.NewMessageEdit(channelID, messageID).
		SetContent("").
		SetEmbed(summaryEmbed(s))
	if s.Controls {
		comps := controls(t.labels)
		edit.Components = &comps
	}
	_, err := t.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
	return classify("edit message", err)
}

func (t *Transport) PostSummary(ctx context.Context, channelID string, s types.Summary) (string, error) {
	send := &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{summaryEmbed(s)}}
	if s.Controls {
		send.Components = controls(t.labels)
	}
	msg, err := t.session.ChannelMessageSendComplex(channelID, send, discordgo.WithContext(ctx))
	if err != nil {
		return "", classify("send message", err)
	}
	return msg.ID, nil
}

func (t *Transport) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return classify("delete message", t.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)))
}
