package service

import (
	"context"
	"log"
	"sync"
	"time"
)

type syncer interface {
	SyncAll(ctx context.Context) (SyncReport, error)
}

// MirrorSyncer runs the startup reconcile pass over every registered mirror
// and, when an interval is set, repeats it in the background so mirrors
// deleted while nobody clicked still get pruned.
type MirrorSyncer struct {
	svc      syncer
	interval time.Duration
	logger   *log.Logger

	startOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewMirrorSyncer creates a syncer but does not start it. An interval of 0
// runs the startup pass only.
func NewMirrorSyncer(svc syncer, interval time.Duration, logger *log.Logger) *MirrorSyncer {
	if interval < 0 {
		interval = 0
	}
	return &MirrorSyncer{
		svc:      svc,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the loop. Only the first call has any effect, so it is safe
// to call from a handler that fires on every gateway reconnect.
func (m *MirrorSyncer) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		ctx, m.cancel = context.WithCancel(ctx)
		go m.loop(ctx)

		if m.interval > 0 {
			m.logger.Printf("mirror syncer started (interval=%s)", m.interval)
		}
	})
}

// Stop signals the loop to exit and waits for it. A syncer that was never
// started returns immediately.
func (m *MirrorSyncer) Stop() {
	m.startOnce.Do(func() { close(m.done) })
	if m.cancel != nil {
		m.cancel()
	}
	<-m.done
}

func (m *MirrorSyncer) loop(ctx context.Context) {
	defer close(m.done)

	m.sync(ctx)
	if m.interval == 0 {
		return
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sync(ctx)
		}
	}
}

func (m *MirrorSyncer) sync(ctx context.Context) {
	if _, err := m.svc.SyncAll(ctx); err != nil {
		m.logger.Printf("mirror sync error: %v", err)
	}
}
