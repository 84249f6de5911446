package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wms-platform/courier-rates/services/rate-service/internal/domain"
)

type entry struct {
	mu      sync.Mutex
	session *domain.RateSession
	removed bool
}

// SessionStore keeps rate sessions in process memory. Each session has its own lock,
// so a slow submit on one session does not hold up the others.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*entry
}

// NewSessionStore creates an empty SessionStore
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*entry)}
}

// Create stores a new session
func (s *SessionStore) Create(ctx context.Context, session *domain.RateSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return fmt.Errorf("rate session %s already exists", session.ID)
	}
	s.sessions[session.ID] = &entry{session: session}
	return nil
}

// Update runs fn with exclusive access to the session
func (s *SessionStore) Update(ctx context.Context, sessionID string, fn func(*domain.RateSession) error) error {
	e := s.lookup(sessionID)
	if e == nil {
		return domain.ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed {
		return domain.ErrSessionNotFound
	}
	return fn(e.session)
}

// View runs fn with exclusive access to the session. fn must not modify it.
func (s *SessionStore) View(ctx context.Context, sessionID string, fn func(*domain.RateSession) error) error {
	return s.Update(ctx, sessionID, fn)
}

// Delete removes a session. Calls already waiting on it see ErrSessionNotFound.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	e, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return domain.ErrSessionNotFound
	}

	e.mu.Lock()
	e.removed = true
	e.mu.Unlock()
	return nil
}

// DeleteIdleSince removes sessions last updated before cutoff and returns them. When ctx
// ends partway the sessions collected so far are still removed and returned with the error.
func (s *SessionStore) DeleteIdleSince(ctx context.Context, cutoff time.Time) ([]*domain.RateSession, error) {
	s.mu.RLock()
	candidates := make(map[string]*entry, len(s.sessions))
	for id, e := range s.sessions {
		candidates[id] = e
	}
	s.mu.RUnlock()

	var (
		removed []*domain.RateSession
		ids     []string
		err     error
	)
	for id, e := range candidates {
		if err = ctx.Err(); err != nil {
			break
		}

		e.mu.Lock()
		if !e.removed && e.session.UpdatedAt.Before(cutoff) {
			e.removed = true
			removed = append(removed, e.session)
			ids = append(ids, id)
		}
		e.mu.Unlock()
	}

	s.mu.Lock()
	for _, id := range ids {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	return removed, err
}

// Len returns the number of stored sessions
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) lookup(sessionID string) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[sessionID]
}
