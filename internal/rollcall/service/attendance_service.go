package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

const (
	DefaultLogLimit = 10
	MaxLogLimit     = 50

	defaultSyncConcurrency = 4
	ensureTimeout          = 30 * time.Second
)

type AttendanceService struct {
	events     store.AttendanceStore
	mirrors    *MirrorRegistry
	reconciler *Reconciler
	transport  Transport
	render     *Renderer
	logger     *log.Logger

	syncConcurrency int
	ensureGroup     singleflight.Group
}

type Options struct {
	// SyncConcurrency bounds parallel reconciles in SyncAll. Defaults to 4.
	SyncConcurrency int
}

func NewAttendanceService(
	events store.AttendanceStore,
	mirrors *MirrorRegistry,
	t Transport,
	r *Renderer,
	logger *log.Logger,
	opts Options,
) *AttendanceService {
	if opts.SyncConcurrency <= 0 {
		opts.SyncConcurrency = defaultSyncConcurrency
	}
	return &AttendanceService{
		events:          events,
		mirrors:         mirrors,
		reconciler:      NewReconciler(events, mirrors, t, r, logger),
		transport:       t,
		render:          r,
		logger:          logger,
		syncConcurrency: opts.SyncConcurrency,
	}
}

func (s *AttendanceService) Renderer() *Renderer { return s.render }

// HandleClick records the click, acknowledges it privately and then updates
// the message the click came from. The acknowledgment does not wait on, or
// depend on, the mirror update: the action is already durable by then.
func (s *AttendanceService) HandleClick(ctx context.Context, c types.Click, ack Acknowledger) (Outcome, error) {
	userID := strings.TrimSpace(c.UserID)
	if _, err := snowflake.ParseString(userID); err != nil {
		return OutcomeRejected, ErrInvalidUserID
	}
	if strings.TrimSpace(c.ChannelID) == "" {
		return OutcomeRejected, ErrInvalidChannelID
	}
	if strings.TrimSpace(c.MessageID) == "" {
		return OutcomeRejected, ErrInvalidMessageID
	}
	if _, err := types.ParseAction(string(c.Action)); err != nil {
		return OutcomeRejected, err
	}

	ev, err := s.events.Append(ctx, userID, c.UserName, c.Action)
	if err != nil {
		return OutcomeStoreUnavailable, storeErr("append", err)
	}
	s.logger.Printf("attendance: %s (%s) %s at %s", ev.UserName, ev.UserID, ev.Action, ev.Timestamp.Format(logTimestampLayout))

	if err := ack.Acknowledge(ctx, s.render.ClickAck(c.Action, c.UserName)); err != nil {
		s.logger.Printf("acknowledge click for %s: %v", userID, err)
	}

	return s.reconciler.Reconcile(ctx, c.ChannelID, c.MessageID)
}

type EnsureResult struct {
	MessageID string
	Created   bool
	// Outcome of filling in the mirror content.
	Outcome Outcome
}

// EnsureMirror makes sure the channel has a live summary message. An
// existing mirror is refreshed; a missing or gone one is replaced by posting
// a placeholder, registering it, and only then filling it in. Concurrent
// calls for one channel share a single run.
func (s *AttendanceService) EnsureMirror(ctx context.Context, channelID string) (EnsureResult, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return EnsureResult{}, ErrInvalidChannelID
	}

	// The shared run has its own deadline; each caller waits on its own ctx.
	ch := s.ensureGroup.DoChan(channelID, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ensureTimeout)
		defer cancel()
		return s.ensureMirror(flightCtx, channelID)
	})
	select {
	case r := <-ch:
		res, _ := r.Val.(EnsureResult)
		return res, r.Err
	case <-ctx.Done():
		return EnsureResult{}, ctx.Err()
	}
}

func (s *AttendanceService) ensureMirror(ctx context.Context, channelID string) (EnsureResult, error) {
	existing, ok, err := s.mirrors.Get(ctx, channelID)
	if err != nil {
		return EnsureResult{}, err
	}

	if ok {
		outcome, err := s.reconciler.Reconcile(ctx, channelID, existing)
		if err != nil {
			return EnsureResult{}, err
		}
		switch outcome {
		case OutcomeUpdated:
			return EnsureResult{MessageID: existing, Outcome: outcome}, nil
		case OutcomeGone:
			s.logger.Printf("mirror for channel %s is gone, creating a new one", channelID)
		default:
			return EnsureResult{MessageID: existing, Outcome: outcome}, outcome.Err()
		}
	}

	messageID, err := s.transport.PostSummary(ctx, channelID, s.render.Placeholder())
	if err != nil {
		outcome := Classify(err)
		return EnsureResult{Outcome: outcome}, fmt.Errorf("%w: post summary: %v", outcome.Err(), err)
	}

	if err := s.mirrors.Put(ctx, channelID, messageID); err != nil {
		// Best effort: an unregistered placeholder is harmless, but tidy it.
		if derr := s.transport.DeleteMessage(ctx, channelID, messageID); derr != nil {
			s.logger.Printf("delete unregistered placeholder %s/%s: %v", channelID, messageID, derr)
		}
		return EnsureResult{}, err
	}
	s.logger.Printf("mirror for channel %s created: message %s", channelID, messageID)

	outcome, err := s.reconciler.Reconcile(ctx, channelID, messageID)
	if err != nil {
		return EnsureResult{MessageID: messageID, Created: true}, err
	}
	return EnsureResult{MessageID: messageID, Created: true, Outcome: outcome}, nil
}

type RemoveResult struct {
	Existed   bool
	MessageID string
	// Deleted is true when the message was deleted or was already gone.
	Deleted       bool
	DeleteOutcome Outcome
}

// RemoveMirror deletes the channel's summary message and unregisters it.
// The registry entry is dropped whatever happened to the message.
func (s *AttendanceService) RemoveMirror(ctx context.Context, channelID string) (RemoveResult, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return RemoveResult{}, ErrInvalidChannelID
	}

	messageID, ok, err := s.mirrors.Get(ctx, channelID)
	if err != nil {
		return RemoveResult{}, err
	}
	if !ok {
		return RemoveResult{}, nil
	}

	res := RemoveResult{Existed: true, MessageID: messageID}
	res.DeleteOutcome = Classify(s.transport.DeleteMessage(ctx, channelID, messageID))
	res.Deleted = res.DeleteOutcome == OutcomeUpdated || res.DeleteOutcome == OutcomeGone
	if !res.Deleted {
		s.logger.Printf("delete mirror message %s/%s: %s", channelID, messageID, res.DeleteOutcome)
	}

	if _, err := s.mirrors.Remove(ctx, channelID); err != nil {
		return res, err
	}
	s.logger.Printf("mirror for channel %s removed", channelID)
	return res, nil
}

// RecentLog returns up to limit events, newest first. limit <= 0 means the
// default; larger requests are capped.
func (s *AttendanceService) RecentLog(ctx context.Context, limit int) ([]types.AttendanceEvent, error) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	if limit > MaxLogLimit {
		limit = MaxLogLimit
	}
	evs, err := s.events.Recent(ctx, limit)
	if err != nil {
		return nil, storeErr("recent", err)
	}
	return evs, nil
}

func (s *AttendanceService) Occupancy(ctx context.Context) ([]string, error) {
	latest, err := s.events.LatestPerUser(ctx)
	if err != nil {
		return nil, storeErr("latest per user", err)
	}
	return Occupancy(latest), nil
}

func (s *AttendanceService) Mirrors(ctx context.Context) (map[string]string, error) {
	return s.mirrors.List(ctx)
}

type SyncReport struct {
	Total     int `json:"total"`
	Updated   int `json:"updated"`
	Gone      int `json:"gone"`
	Forbidden int `json:"forbidden"`
	Transient int `json:"transient"`
	Failed    int `json:"failed"`
}

// SyncAll reconciles every registered mirror. A failing entry is logged and
// counted; it never stops the others.
func (s *AttendanceService) SyncAll(ctx context.Context) (SyncReport, error) {
	mirrors, err := s.mirrors.List(ctx)
	if err != nil {
		return SyncReport{}, err
	}

	channels := make([]string, 0, len(mirrors))
	for ch := range mirrors {
		channels = append(channels, ch)
	}
	sort.Strings(channels)

	var (
		mu     sync.Mutex
		report = SyncReport{Total: len(channels)}
	)
	if len(channels) > 0 {
		s.logger.Printf("syncing %d mirror(s)", len(channels))
	}

	var g errgroup.Group
	g.SetLimit(s.syncConcurrency)
	for _, ch := range channels {
		messageID := mirrors[ch]
		g.Go(func() error {
			outcome, err := s.reconciler.Reconcile(ctx, ch, messageID)
			if err != nil {
				s.logger.Printf("sync mirror %s/%s: %v", ch, messageID, err)
			}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				report.Failed++
			case outcome == OutcomeUpdated:
				report.Updated++
			case outcome == OutcomeGone:
				report.Gone++
			case outcome == OutcomeForbidden:
				report.Forbidden++
			default:
				report.Transient++
			}
			return nil
		})
	}
	_ = g.Wait()

	if report.Total > 0 {
		s.logger.Printf("mirror sync done: %d/%d updated, %d gone, %d forbidden, %d transient, %d failed",
			report.Updated, report.Total, report.Gone, report.Forbidden, report.Transient, report.Failed)
	}
	return report, nil
}
