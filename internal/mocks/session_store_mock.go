package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/Olprog59/go-noticegen/internal/domain"
	"github.com/Olprog59/go-noticegen/internal/ports"
)

// MockSessionStore is a mock implementation of ports.SessionStore for testing
type MockSessionStore struct {
	mu sync.Mutex

	// Mock data storage
	Sessions map[string]domain.Session

	// Mock behavior flags
	SaveError   error
	GetError    error
	DeleteError error
	PurgeError  error
	PingError   error

	// Call tracking
	SaveCalls   int
	GetCalls    int
	DeleteCalls int
	PurgeCalls  int
	PingCalls   int
}

var _ ports.SessionStore = (*MockSessionStore)(nil)

// NewMockSessionStore creates a new mock session store
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{
		Sessions: make(map[string]domain.Session),
	}
}

func (m *MockSessionStore) Save(ctx context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.SaveError != nil {
		return m.SaveError
	}

	m.Sessions[s.ID] = *s
	return nil
}

func (m *MockSessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	if m.GetError != nil {
		return nil, m.GetError
	}

	s, exists := m.Sessions[id]
	if !exists {
		return nil, ports.ErrNotFound
	}
	return &s, nil
}

func (m *MockSessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	if m.DeleteError != nil {
		return m.DeleteError
	}

	delete(m.Sessions, id)
	return nil
}

func (m *MockSessionStore) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PurgeCalls++
	if m.PurgeError != nil {
		return 0, m.PurgeError
	}

	var n int64
	for id, s := range m.Sessions {
		if s.IsExpired(before) {
			delete(m.Sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *MockSessionStore) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.Sessions)), nil
}

func (m *MockSessionStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PingCalls++
	return m.PingError
}
