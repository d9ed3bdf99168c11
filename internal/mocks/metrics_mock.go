package mocks

import "sync"

// MockMetrics is a mock implementation of the wizard metrics recorder for testing
type MockMetrics struct {
	mu sync.Mutex

	Renders            map[string]int
	ValidationFailures map[string]int
	Transitions        []string
	SessionsStarted    int
	SessionsPurged     int64
	ActiveSessions     int64
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		Renders:            make(map[string]int),
		ValidationFailures: make(map[string]int),
	}
}

func (m *MockMetrics) RecordRender(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Renders[outcome]++
}

func (m *MockMetrics) RecordValidationFailure(fields []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range fields {
		m.ValidationFailures[f]++
	}
}

// RecordTransition stores transitions as "from->to".
func (m *MockMetrics) RecordTransition(from, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Transitions = append(m.Transitions, from+"->"+to)
}

func (m *MockMetrics) RecordSessionStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SessionsStarted++
}

func (m *MockMetrics) RecordSessionsPurged(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SessionsPurged += n
}

func (m *MockMetrics) SetActiveSessions(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ActiveSessions = n
}
