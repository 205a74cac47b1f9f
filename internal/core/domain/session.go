package domain

import (
	"sync"

	"github.com/google/uuid"
)

// SessionState is the authorization state of a Session.
type SessionState string

const (
	SessionStateLoggedOut SessionState = "LOGGED_OUT"
	SessionStateLoggedIn  SessionState = "LOGGED_IN"
)

// Session is a per-caller authorization handle. It only remembers which
// account, if any, is authorized. The zero value is not usable; sessions are
// issued by the session service.
type Session struct {
	ID uuid.UUID

	mu        sync.Mutex
	accountID *uuid.UUID
}

// NewSession returns a logged-out session with a fresh id.
func NewSession() *Session {
	return &Session{ID: uuid.New()}
}

// State reports whether the session is logged in.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accountID == nil {
		return SessionStateLoggedOut
	}
	return SessionStateLoggedIn
}

// AccountID returns the authorized account, if any.
func (s *Session) AccountID() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accountID == nil {
		return uuid.Nil, false
	}
	return *s.accountID, true
}

// Bind moves the session to LoggedIn(id). It returns false, leaving the
// session untouched, when the session is already logged in.
func (s *Session) Bind(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accountID != nil {
		return false
	}
	s.accountID = &id
	return true
}

// Clear moves the session to LoggedOut. It returns false when there was
// nothing to clear.
func (s *Session) Clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accountID == nil {
		return false
	}
	s.accountID = nil
	return true
}
