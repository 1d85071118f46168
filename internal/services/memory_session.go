package services

import (
	"context"
	"sync"
	"time"

	"github.com/chachabrian/courier-backend/internal/models"
)

type memoryEntry struct {
	booking   models.StagedBooking
	expiresAt time.Time
}

// MemorySessionStore is the in-process SessionStore used when REDIS_URL is not set.
// State is lost on restart and is not shared between instances.
type MemorySessionStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	staged  map[string]memoryEntry
	revoked map[string]time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		ttl:     ttl,
		staged:  make(map[string]memoryEntry),
		revoked: make(map[string]time.Time),
	}
}

func (s *MemorySessionStore) StageBooking(_ context.Context, sessionID string, booking *models.StagedBooking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := memoryEntry{booking: *booking}
	if !booking.IsCharged() {
		entry.expiresAt = time.Now().Add(s.ttl)
	}
	s.staged[sessionID] = entry
	return nil
}

func (s *MemorySessionStore) StagedBooking(_ context.Context, sessionID string) (*models.StagedBooking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.staged[sessionID]
	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(s.staged, sessionID)
		return nil, nil
	}
	booking := entry.booking
	return &booking, nil
}

func (s *MemorySessionStore) ClearStagedBooking(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.staged, sessionID)
	return nil
}

func (s *MemorySessionStore) RevokeSession(_ context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[sessionID] = time.Now().Add(ttl)
	return nil
}

func (s *MemorySessionStore) IsSessionRevoked(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.revoked[sessionID]
	if !ok {
		return false, nil
	}
	if time.Now().After(until) {
		delete(s.revoked, sessionID)
		return false, nil
	}
	return true, nil
}
