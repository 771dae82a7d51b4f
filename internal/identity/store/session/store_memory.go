package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"casestatus/internal/identity/models"
	id "casestatus/pkg/domain"
	"casestatus/pkg/platform/sentinel"
)

// Error contract shared by every implementation:
//   - ErrNotFound (wrapped) when the session does not exist
//   - wrapped infrastructure errors otherwise

// InMemorySessionStore stores sessions in memory for tests and local runs.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]*models.Session
}

// New constructs an empty in-memory session store.
func New() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[id.SessionID]*models.Session)}
}

func (s *InMemorySessionStore) Create(_ context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

// FindByID returns a copy so callers cannot mutate stored state.
func (s *InMemorySessionStore) FindByID(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	copied := *session
	return &copied, nil
}

func (s *InMemorySessionStore) Revoke(_ context.Context, sessionID id.SessionID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	session.Revoke(now)
	return nil
}

// CountActive counts sessions that are usable at now.
func (s *InMemorySessionStore) CountActive(_ context.Context, now time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, session := range s.sessions {
		if session.CheckUsable(now) == nil {
			count++
		}
	}
	return count, nil
}
