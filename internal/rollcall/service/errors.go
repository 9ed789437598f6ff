package service

import (
	"errors"
	"fmt"
)

// Failure classes for mirror operations. Transports wrap their errors with
// ErrGone or ErrForbidden; anything else counts as transient.
var (
	ErrGone             = errors.New("mirror message or channel is gone")
	ErrForbidden        = errors.New("missing permission for mirror message")
	ErrTransient        = errors.New("transient transport failure")
	ErrStoreUnavailable = errors.New("attendance store unavailable")

	ErrInvalidUserID    = errors.New("user_id must be a numeric snowflake")
	ErrInvalidChannelID = errors.New("channel_id is required")
	ErrInvalidMessageID = errors.New("message_id is required")
	ErrRejected         = errors.New("request rejected")
)

type Outcome int

const (
	OutcomeUpdated Outcome = iota
	OutcomeGone
	OutcomeForbidden
	OutcomeTransient
	OutcomeStoreUnavailable
	// OutcomeRejected marks input that failed validation before anything
	// was stored or sent.
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUpdated:
		return "updated"
	case OutcomeGone:
		return "gone"
	case OutcomeForbidden:
		return "forbidden"
	case OutcomeTransient:
		return "transient"
	case OutcomeStoreUnavailable:
		return "store_unavailable"
	case OutcomeRejected:
		return "rejected"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Err maps a failed outcome back to its sentinel. OutcomeUpdated maps to nil.
func (o Outcome) Err() error {
	switch o {
	case OutcomeUpdated:
		return nil
	case OutcomeGone:
		return ErrGone
	case OutcomeForbidden:
		return ErrForbidden
	case OutcomeStoreUnavailable:
		return ErrStoreUnavailable
	case OutcomeRejected:
		return ErrRejected
	}
	return ErrTransient
}

// Classify sorts a transport error into a failure class.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeUpdated
	case errors.Is(err, ErrGone):
		return OutcomeGone
	case errors.Is(err, ErrForbidden):
		return OutcomeForbidden
	case errors.Is(err, ErrStoreUnavailable):
		return OutcomeStoreUnavailable
	}
	return OutcomeTransient
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}
