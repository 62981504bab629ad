// Package session persists one ConversationState per session id.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"catalog-assistant/internal/common/metrics"
	"catalog-assistant/internal/models"
)

var ErrStore = errors.New("SESSION_STORE_FAILED")

// Store loads and saves conversation state. Load of an unknown or expired
// session returns the neutral state.
type Store interface {
	Load(ctx context.Context, sessionID string) (models.ConversationState, error)
	Save(ctx context.Context, sessionID string, state models.ConversationState) error
	Delete(ctx context.Context, sessionID string) error
}

type memoryEntry struct {
	state     models.ConversationState
	expiresAt time.Time
}

// MemoryStore keeps sessions in process. Expired entries are dropped lazily.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
	ttl  time.Duration
	now  func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		data: make(map[string]memoryEntry),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (models.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data[sessionID]
	if !ok || s.expired(entry) {
		return models.NewConversationState(), nil
	}
	return entry.state, nil
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, state models.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep()
	s.data[sessionID] = memoryEntry{state: state, expiresAt: s.now().Add(s.ttl)}
	metrics.ActiveSessions.Set(float64(len(s.data)))
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, sessionID)
	metrics.ActiveSessions.Set(float64(len(s.data)))
	return nil
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.data {
		if !s.expired(e) {
			n++
		}
	}
	return n
}

func (s *MemoryStore) expired(e memoryEntry) bool {
	return s.ttl > 0 && s.now().After(e.expiresAt)
}

// sweep must be called with mu held.
func (s *MemoryStore) sweep() {
	for id, e := range s.data {
		if s.expired(e) {
			delete(s.data, id)
		}
	}
}
