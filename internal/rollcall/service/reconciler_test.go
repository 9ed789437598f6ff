package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/service"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

func newTestReconciler(f *fixture) *service.Reconciler {
	return service.NewReconciler(f.events, f.registry, f.transport, newTestRenderer(), silentLogger())
}

func TestReconcile_UpdatesMessage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	msgID, _ := f.transport.PostSummary(ctx, "c1", types.Summary{})
	_ = f.registry.Put(ctx, "c1", msgID)
	_, _ = f.events.Append(ctx, alice, "Alice", types.ActionEnter)

	outcome, err := newTestReconciler(f).Reconcile(ctx, "c1", msgID)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if outcome != service.OutcomeUpdated {
		t.Fatalf("expected updated, got %s", outcome)
	}

	s, _ := f.transport.content("c1", msgID)
	if s.Description != "- Alice" {
		t.Errorf("unexpected mirror content %q", s.Description)
	}
	if !s.Controls {
		t.Error("expected buttons re-attached on edit")
	}
}

func TestReconcile_GoneMessageIsUnregistered(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	msgID, _ := f.transport.PostSummary(ctx, "c1", types.Summary{})
	_ = f.registry.Put(ctx, "c1", msgID)
	f.transport.vanish("c1", msgID)

	outcome, err := newTestReconciler(f).Reconcile(ctx, "c1", msgID)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if outcome != service.OutcomeGone {
		t.Fatalf("expected gone, got %s", outcome)
	}
	if _, ok, _ := f.registry.Get(ctx, "c1"); ok {
		t.Error("expected registry entry to be removed")
	}
}

func TestReconcile_GoneStaleMessageKeepsNewerMirror(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_ = f.registry.Put(ctx, "c1", "999")
	newer, _ := f.transport.PostSummary(ctx, "c1", types.Summary{})
	_ = f.registry.Put(ctx, "c1", newer)

	outcome, err := newTestReconciler(f).Reconcile(ctx, "c1", "999")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if outcome != service.OutcomeGone {
		t.Fatalf("expected gone, got %s", outcome)
	}
	got, ok, _ := f.registry.Get(ctx, "c1")
	if !ok || got != newer {
		t.Errorf("expected newer mirror %s to survive, got %q (ok=%v)", newer, got, ok)
	}
}

func TestReconcile_ForbiddenKeepsEntry(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	msgID, _ := f.transport.PostSummary(ctx, "c1", types.Summary{})
	_ = f.registry.Put(ctx, "c1", msgID)
	f.transport.setForbidden("c1", true)

	outcome, err := newTestReconciler(f).Reconcile(ctx, "c1", msgID)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if outcome != service.OutcomeForbidden {
		t.Fatalf("expected forbidden, got %s", outcome)
	}
	if _, ok, _ := f.registry.Get(ctx, "c1"); !ok {
		t.Error("expected registry entry to survive a forbidden failure")
	}
}

func TestReconcile_EditTransientKeepsEntry(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	msgID, _ := f.transport.PostSummary(ctx, "c1", types.Summary{})
	_ = f.registry.Put(ctx, "c1", msgID)
	f.transport.failEdit = errors.New("connection reset by peer")

	outcome, err := newTestReconciler(f).Reconcile(ctx, "c1", msgID)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if outcome != service.OutcomeTransient {
		t.Fatalf("expected transient, got %s", outcome)
	}
	if _, ok, _ := f.registry.Get(ctx, "c1"); !ok {
		t.Error("expected registry entry to survive a transient failure")
	}
}

func TestReconcile_StoreFailurePropagates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	msgID, _ := f.transport.PostSummary(ctx, "c1", types.Summary{})
	r := service.NewReconciler(failingAttendanceStore{}, f.registry, f.transport, newTestRenderer(), silentLogger())

	_, err := r.Reconcile(ctx, "c1", msgID)
	if !errors.Is(err, service.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want service.Outcome
	}{
		{nil, service.OutcomeUpdated},
		{service.ErrGone, service.OutcomeGone},
		{errors.Join(errors.New("404"), service.ErrGone), service.OutcomeGone},
		{service.ErrForbidden, service.OutcomeForbidden},
		{errors.New("timeout"), service.OutcomeTransient},
	}
	for _, tc := range cases {
		if got := service.Classify(tc.err); got != tc.want {
			t.Errorf("Classify(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}
