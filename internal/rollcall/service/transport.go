package service

import (
	"context"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

// Transport is what the attendance core needs from the chat platform.
// Implementations return errors wrapping ErrGone when the channel or message
// no longer exists and ErrForbidden on permission failures.
type Transport interface {
	FetchMessage(ctx context.Context, channelID, messageID string) error
	// EditSummary replaces the message content with s, re-attaching the
	// enter/leave controls when s.Controls is set.
	EditSummary(ctx context.Context, channelID, messageID string, s types.Summary) error
	PostSummary(ctx context.Context, channelID string, s types.Summary) (messageID string, err error)
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

// Acknowledger privately answers the user who clicked a button.
type Acknowledger interface {
	Acknowledge(ctx context.Context, text string) error
}

type AckFunc func(ctx context.Context, text string) error

func (f AckFunc) Acknowledge(ctx context.Context, text string) error { return f(ctx, text) }
