package services

import (
	"sync"

	"github.com/google/uuid"

	"github.com/edupulse/a11y-backend/internal/pkg/logger"
)

// SessionStore hands out the per-session preference cache. Each browser
// session gets exactly one *SessionPrefs for its lifetime; lookups by the
// same session ID always return the same instance.
type SessionStore interface {
	Get(sessionID uuid.UUID) *SessionPrefs
	Drop(sessionID uuid.UUID)
	Len() int
}

type sessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*SessionPrefs
	log      *logger.Logger
}

func NewSessionStore(log *logger.Logger) SessionStore {
	return &sessionStore{
		sessions: make(map[uuid.UUID]*SessionPrefs),
		log:      log.With("service", "session_store"),
	}
}

func (s *sessionStore) Get(sessionID uuid.UUID) *SessionPrefs {
	s.mu.RLock()
	sp, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return sp
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sp, ok = s.sessions[sessionID]; ok {
		return sp
	}
	sp = NewSessionPrefs(sessionID)
	s.sessions[sessionID] = sp
	s.log.Debug("session cache created", "session_id", sessionID.String())
	return sp
}

func (s *sessionStore) Drop(sessionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

func (s *sessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
