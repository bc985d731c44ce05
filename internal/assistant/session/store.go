package session

import (
	"context"
	"sync"
)

// Store persists conversation transcripts keyed by session key. The key
// already encodes the effective role, so implementations treat it as
// opaque.
type Store interface {
	Save(ctx context.Context, key string, messages []ChatMessage) error
	Load(ctx context.Context, key string) ([]ChatMessage, error)
}

// MemoryStore keeps transcripts in process memory. It is the default store
// and the one used in tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]ChatMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]ChatMessage)}
}

func (s *MemoryStore) Save(_ context.Context, key string, messages []ChatMessage) error {
	cp := make([]ChatMessage, len(messages))
	copy(cp, messages)
	s.mu.Lock()
	s.data[key] = cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(_ context.Context, key string) ([]ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	cp := make([]ChatMessage, len(msgs))
	copy(cp, msgs)
	return cp, nil
}
