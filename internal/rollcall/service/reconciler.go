package service

import (
	"context"
	"log"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store"
)

// Reconciler pushes current occupancy into one mirror message.
type Reconciler struct {
	events    store.AttendanceStore
	mirrors   *MirrorRegistry
	transport Transport
	render    *Renderer
	logger    *log.Logger
}

func NewReconciler(events store.AttendanceStore, mirrors *MirrorRegistry, t Transport, r *Renderer, logger *log.Logger) *Reconciler {
	return &Reconciler{events: events, mirrors: mirrors, transport: t, render: r, logger: logger}
}

// Reconcile fetches the message, renders occupancy into it and reports how
// that went. A gone message is evicted from the registry rather than
// retried. The error is non-nil only when the store failed.
func (r *Reconciler) Reconcile(ctx context.Context, channelID, messageID string) (Outcome, error) {
	if err := r.transport.FetchMessage(ctx, channelID, messageID); err != nil {
		return r.fail(ctx, "fetch", channelID, messageID, err)
	}

	latest, err := r.events.LatestPerUser(ctx)
	if err != nil {
		return OutcomeStoreUnavailable, storeErr("latest per user", err)
	}
	names := Occupancy(latest)

	if err := r.transport.EditSummary(ctx, channelID, messageID, r.render.Occupancy(names)); err != nil {
		return r.fail(ctx, "edit", channelID, messageID, err)
	}

	r.logger.Printf("mirror %s/%s updated: %d present", channelID, messageID, len(names))
	return OutcomeUpdated, nil
}

func (r *Reconciler) fail(ctx context.Context, step, channelID, messageID string, err error) (Outcome, error) {
	outcome := Classify(err)
	switch outcome {
	case OutcomeGone:
		removed, rerr := r.mirrors.RemoveIf(ctx, channelID, messageID)
		if rerr != nil {
			return OutcomeStoreUnavailable, rerr
		}
		if removed {
			r.logger.Printf("mirror %s/%s gone on %s, unregistered: %v", channelID, messageID, step, err)
		} else {
			r.logger.Printf("mirror %s/%s gone on %s: %v", channelID, messageID, step, err)
		}
	case OutcomeForbidden:
		r.logger.Printf("mirror %s/%s forbidden on %s, keeping entry: %v", channelID, messageID, step, err)
	default:
		r.logger.Printf("mirror %s/%s %s error: %v", channelID, messageID, step, err)
	}
	return outcome, nil
}
