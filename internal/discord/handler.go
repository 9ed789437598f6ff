package discord

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/text/message"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/service"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

const (
	confirmDeleteAfter = 5 * time.Second
	errorDeleteAfter   = 10 * time.Second
)

// chatAPI is the subset of *discordgo.Session the handler talks to.
type chatAPI interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	HeartbeatLatency() time.Duration
}

type HandlerConfig struct {
	Prefix  string
	Timeout time.Duration
}

// Handler routes gateway events (ready, button clicks, prefix commands)
// into the attendance service.
type Handler struct {
	base    context.Context
	api     chatAPI
	svc     *service.AttendanceService
	syncer  *service.MirrorSyncer
	p       *message.Printer
	logger  *log.Logger
	prefix  string
	timeout time.Duration

	// afterFunc schedules reply deletion; swapped in tests.
	afterFunc func(d time.Duration, f func()) *time.Timer
}

func NewHandler(
	ctx context.Context,
	api chatAPI,
	svc *service.AttendanceService,
	syncer *service.MirrorSyncer,
	logger *log.Logger,
	cfg HandlerConfig,
) *Handler {
	if cfg.Prefix == "" {
		cfg.Prefix = "!"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Handler{
		base:      ctx,
		api:       api,
		svc:       svc,
		syncer:    syncer,
		p:         svc.Renderer().Printer(),
		logger:    logger,
		prefix:    cfg.Prefix,
		timeout:   cfg.Timeout,
		afterFunc: time.AfterFunc,
	}
}

// Register installs the handler's callbacks on a session.
func (h *Handler) Register(s *discordgo.Session) {
	s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) { h.onReady(r) })
	s.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) { h.onInteraction(i.Interaction) })
	s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) { h.onMessage(m.Message) })
}

func (h *Handler) onReady(r *discordgo.Ready) {
	if r != nil && r.User != nil {
		h.logger.Printf("logged in as %s", r.User.Username)
	}
	if h.syncer != nil {
		h.syncer.Start(h.base)
	}
}

// ── Buttons ──

func (h *Handler) onInteraction(i *discordgo.Interaction) {
	if i == nil || i.Type != discordgo.InteractionMessageComponent {
		return
	}
	action, ok := actionForCustomID(i.MessageComponentData().CustomID)
	if !ok {
		return
	}
	userID, userName := interactionUser(i)

	err := h.api.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		h.logger.Printf("defer interaction from %s: %v", userID, err)
		return
	}

	ctx, cancel := context.WithTimeout(h.base, h.timeout)
	defer cancel()

	click := types.Click{
		Action:    action,
		UserID:    userID,
		UserName:  userName,
		ChannelID: i.ChannelID,
	}
	if i.Message != nil {
		click.MessageID = i.Message.ID
	}

	acked := false
	ack := service.AckFunc(func(_ context.Context, text string) error {
		acked = true
		return h.followup(i, text)
	})

	outcome, err := h.svc.HandleClick(ctx, click, ack)
	if err == nil {
		return
	}
	if acked {
		h.logger.Printf("click by %s recorded, mirror %s: %v", userID, outcome, err)
		return
	}
	h.logger.Printf("click by %s not recorded: %v", userID, err)
	if ferr := h.followup(i, h.p.Sprintf("Could not record your action. Please try again.")); ferr != nil {
		h.logger.Printf("followup to %s: %v", userID, ferr)
	}
}

func (h *Handler) followup(i *discordgo.Interaction, text string) error {
	_, err := h.api.FollowupMessageCreate(i, true, &discordgo.WebhookParams{
		Content: text,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	return err
}

// interactionUser prefers the guild nickname, then the global display
// name, then the account name.
func interactionUser(i *discordgo.Interaction) (id, name string) {
	if i.Member != nil && i.Member.User != nil {
		if i.Member.Nick != "" {
			return i.Member.User.ID, i.Member.Nick
		}
		return i.Member.User.ID, userName(i.Member.User)
	}
	if i.User != nil {
		return i.User.ID, userName(i.User)
	}
	return "", ""
}

func userName(u *discordgo.User) string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// ── Commands ──

// parseCommand splits "!name arg..." into its parts. ok is false when the
// content does not start with the prefix.
func parseCommand(prefix, content string) (name string, args []string, ok bool) {
	rest, found := strings.CutPrefix(strings.TrimSpace(content), prefix)
	if !found {
		return "", nil, false
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

func (h *Handler) onMessage(m *discordgo.Message) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return
	}
	name, args, ok := parseCommand(h.prefix, m.Content)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(h.base, h.timeout)
	defer cancel()

	switch name {
	case "attendance":
		h.cmdAttendance(ctx, m)
	case "removeattendance":
		h.cmdRemoveAttendance(ctx, m)
	case "showlog":
		h.cmdShowLog(ctx, m, args)
	case "ping":
		h.reply(m.ChannelID, h.p.Sprintf("Pong! %dms", h.api.HeartbeatLatency().Milliseconds()), 0)
	case "hello":
		h.reply(m.ChannelID, h.p.Sprintf("Hello!"), 0)
	}
}

func (h *Handler) cmdAttendance(ctx context.Context, m *discordgo.Message) {
	res, err := h.svc.EnsureMirror(ctx, m.ChannelID)
	switch {
	case errors.Is(err, service.ErrForbidden):
		h.reply(m.ChannelID, h.p.Sprintf("Error: missing permission to send or edit messages in this channel."), errorDeleteAfter)
	case err != nil:
		h.logger.Printf("attendance in %s: %v", m.ChannelID, err)
		h.reply(m.ChannelID, h.p.Sprintf("Unexpected error while creating the message: %v", err), errorDeleteAfter)
	case !res.Created:
		h.reply(m.ChannelID, h.p.Sprintf("Attendance message updated."), confirmDeleteAfter)
	case res.Outcome != service.OutcomeUpdated:
		h.reply(m.ChannelID, h.p.Sprintf("Attendance message created, but its content could not be filled in yet."), errorDeleteAfter)
	default:
		h.reply(m.ChannelID, h.p.Sprintf("Attendance message created."), confirmDeleteAfter)
	}
}

func (h *Handler) cmdRemoveAttendance(ctx context.Context, m *discordgo.Message) {
	perms, err := h.api.UserChannelPermissions(m.Author.ID, m.ChannelID)
	if err != nil || perms&discordgo.PermissionManageMessages == 0 {
		if err != nil {
			h.logger.Printf("permissions for %s in %s: %v", m.Author.ID, m.ChannelID, err)
		}
		h.reply(m.ChannelID, h.p.Sprintf("You need the Manage Messages permission to run this command."), errorDeleteAfter)
		return
	}

	res, err := h.svc.RemoveMirror(ctx, m.ChannelID)
	switch {
	case err != nil:
		h.logger.Printf("removeattendance in %s: %v", m.ChannelID, err)
		h.reply(m.ChannelID, h.p.Sprintf("Error while running the command: %v", err), errorDeleteAfter)
	case !res.Existed:
		h.reply(m.ChannelID, h.p.Sprintf("No attendance message is set up in this channel."), errorDeleteAfter)
	case !res.Deleted:
		h.reply(m.ChannelID, h.p.Sprintf("Attendance message unregistered, but the message could not be deleted."), errorDeleteAfter)
	default:
		h.reply(m.ChannelID, h.p.Sprintf("Attendance message removed."), errorDeleteAfter)
	}
}

func (h *Handler) cmdShowLog(ctx context.Context, m *discordgo.Message, args []string) {
	limit := service.DefaultLogLimit
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			limit = n
		}
	}

	events, err := h.svc.RecentLog(ctx, limit)
	if err != nil {
		h.logger.Printf("showlog in %s: %v", m.ChannelID, err)
		h.reply(m.ChannelID, h.p.Sprintf("Error while running the command: %v", err), errorDeleteAfter)
		return
	}
	if len(events) == 0 {
		h.reply(m.ChannelID, h.p.Sprintf("No log entries yet."), 0)
		return
	}
	if _, err := h.api.ChannelMessageSendEmbed(m.ChannelID, summaryEmbed(h.svc.Renderer().Log(events))); err != nil {
		h.logger.Printf("send log to %s: %v", m.ChannelID, err)
	}
}

// reply posts text to a channel and, when deleteAfter > 0, removes it
// again once the delay has passed.
func (h *Handler) reply(channelID, text string, deleteAfter time.Duration) {
	msg, err := h.api.ChannelMessageSend(channelID, text)
	if err != nil {
		h.logger.Printf("reply in %s: %v", channelID, err)
		return
	}
	if deleteAfter <= 0 || msg == nil {
		return
	}
	h.afterFunc(deleteAfter, func() {
		if err := h.api.ChannelMessageDelete(channelID, msg.ID); err != nil {
			h.logger.Printf("delete reply %s in %s: %v", msg.ID, channelID, err)
		}
	})
}
