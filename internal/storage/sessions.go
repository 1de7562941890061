package storage

import (
	"errors"
	"sync"

	"github.com/abhigitlit/revisely/internal/domain/entities"
)

var ErrAlreadyActive = errors.New("user already has an active session")

// SessionStore provides in-memory storage for quiz sessions keyed by user ID.
// It is the only structure mutated by more than one flow (answer handler,
// timer callback, cancellation handler); all of them serialize through
// Mutate so a session is never observed mid-mutation.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]*entities.Session
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*entities.Session),
	}
}

// Create registers a session for a user. It fails with ErrAlreadyActive if
// the user already has one.
func (s *SessionStore) Create(userID int64, session *entities.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[userID]; ok {
		return ErrAlreadyActive
	}
	s.sessions[userID] = session
	return nil
}

// Get returns the session for a user, or false when none exists.
// Callers must not mutate the returned session outside Mutate.
func (s *SessionStore) Get(userID int64) (*entities.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[userID]
	return session, ok
}

// Mutate runs fn against the user's session while holding the store lock.
// It reports whether a session existed; an absent user is a no-op. Removal
// of a session is visible to any pending timer before that timer acts, so a
// late fire observes the absence instead of a half-torn-down session.
func (s *SessionStore) Mutate(userID int64, fn func(*entities.Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return false
	}
	fn(session)
	return true
}

// Remove deletes the session for a user. Removing an absent user is a no-op.
func (s *SessionStore) Remove(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
