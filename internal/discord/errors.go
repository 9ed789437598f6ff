package discord

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/service"
)

// classify wraps a discordgo error with the service failure class it
// belongs to. Unknown channel/message/guild is Gone; missing access or
// permissions is Forbidden. Anything else passes through as transient.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return fmt.Errorf("%s: %w", op, err)
	}

	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownGuild:
			return fmt.Errorf("%w: %s: %v", service.ErrGone, op, err)
		case discordgo.ErrCodeMissingAccess, discordgo.ErrCodeMissingPermissions:
			return fmt.Errorf("%w: %s: %v", service.ErrForbidden, op, err)
		}
	}

	if restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s: %v", service.ErrGone, op, err)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %s: %v", service.ErrForbidden, op, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
