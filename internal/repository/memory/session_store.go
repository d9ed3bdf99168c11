// Package memory keeps editing sessions in process memory.
// Nothing survives a restart, which is the default for the notice builder.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Olprog59/go-noticegen/internal/domain"
	"github.com/Olprog59/go-noticegen/internal/ports"
)

var _ ports.SessionStore = (*sessionStore)(nil)

type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

// NewSessionStore creates in-memory session store / Crée le store de sessions en mémoire
func NewSessionStore() ports.SessionStore {
	return &sessionStore{
		sessions: make(map[string]domain.Session),
	}
}

// Save stores a copy of the session / Stocke une copie de la session
func (s *sessionStore) Save(ctx context.Context, sess *domain.Session) error {
	if sess == nil {
		return errors.New("the session is null")
	}
	if sess.ID == "" {
		return errors.New("the session has no id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.ID] = *sess
	return nil
}

// Get returns a copy so callers never mutate stored state / Retourne une copie
func (s *sessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, exists := s.sessions[id]
	if !exists {
		return nil, ports.ErrNotFound
	}
	return &sess, nil
}

// Delete removes session / Supprime la session
func (s *sessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// PurgeExpired removes expired sessions / Supprime les sessions expirées
func (s *sessionStore) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, sess := range s.sessions {
		if sess.IsExpired(before) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

// Count returns number of sessions / Retourne le nombre de sessions
func (s *sessionStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.sessions)), nil
}

// Ping always succeeds for the memory backend.
func (s *sessionStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
