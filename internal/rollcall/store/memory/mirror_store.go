package memory

import (
	"context"
	"maps"
	"sync"
)

type MirrorStore struct {
	mu      sync.RWMutex
	mirrors map[string]string
}

func NewMirrorStore() *MirrorStore {
	return &MirrorStore{mirrors: make(map[string]string)}
}

func (s *MirrorStore) Get(_ context.Context, channelID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.mirrors[channelID]
	return id, ok, nil
}

func (s *MirrorStore) Put(_ context.Context, channelID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mirrors[channelID] = messageID
	return nil
}

func (s *MirrorStore) Remove(_ context.Context, channelID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mirrors[channelID]; !ok {
		return false, nil
	}
	delete(s.mirrors, channelID)
	return true, nil
}

func (s *MirrorStore) List(_ context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.mirrors), nil
}
