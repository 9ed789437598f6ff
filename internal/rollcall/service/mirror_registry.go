package service

import (
	"context"
	"strings"
	"sync"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store"
)

// MirrorRegistry fronts the mirror table. Mutations are serialized behind one
// lock; mirror creation is rare, so contention does not matter.
type MirrorRegistry struct {
	mu    sync.Mutex
	store store.MirrorStore
}

func NewMirrorRegistry(st store.MirrorStore) *MirrorRegistry {
	return &MirrorRegistry{store: st}
}

func (r *MirrorRegistry) Get(ctx context.Context, channelID string) (string, bool, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return "", false, nil
	}
	id, ok, err := r.store.Get(ctx, channelID)
	if err != nil {
		return "", false, storeErr("get mirror", err)
	}
	return id, ok, nil
}

func (r *MirrorRegistry) Put(ctx context.Context, channelID, messageID string) error {
	channelID = strings.TrimSpace(channelID)
	messageID = strings.TrimSpace(messageID)
	if channelID == "" {
		return ErrInvalidChannelID
	}
	if messageID == "" {
		return ErrInvalidMessageID
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.Put(ctx, channelID, messageID); err != nil {
		return storeErr("put mirror", err)
	}
	return nil
}

func (r *MirrorRegistry) Remove(ctx context.Context, channelID string) (bool, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	removed, err := r.store.Remove(ctx, channelID)
	if err != nil {
		return false, storeErr("remove mirror", err)
	}
	return removed, nil
}

// RemoveIf deletes the channel's entry only while it still points at
// messageID, so evicting a stale message never drops a newer mirror.
func (r *MirrorRegistry) RemoveIf(ctx context.Context, channelID, messageID string) (bool, error) {
	channelID = strings.TrimSpace(channelID)

	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok, err := r.store.Get(ctx, channelID)
	if err != nil {
		return false, storeErr("get mirror", err)
	}
	if !ok || cur != messageID {
		return false, nil
	}
	removed, err := r.store.Remove(ctx, channelID)
	if err != nil {
		return false, storeErr("remove mirror", err)
	}
	return removed, nil
}

func (r *MirrorRegistry) List(ctx context.Context) (map[string]string, error) {
	m, err := r.store.List(ctx)
	if err != nil {
		return nil, storeErr("list mirrors", err)
	}
	return m, nil
}
