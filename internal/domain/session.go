package domain

import "time"

// Session is one editor's wizard state: the current step and the draft it owns.
// Sessions are never shared; each one is keyed by a random UUID.
type Session struct {
	BaseModel
	ID    string
	Step  Step
	Draft Draft
}

// NewSession creates a session at the first step with an empty draft dated today.
func NewSession(id string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		BaseModel: BaseModel{
			CreatedAt: now,
			UpdatedAt: now,
			ExpiresAt: now.Add(ttl),
		},
		ID:    id,
		Step:  StepDetails,
		Draft: NewDraft(now),
	}
}

// Touch marks the session as modified and extends its lifetime.
func (s *Session) Touch(now time.Time, ttl time.Duration) {
	s.UpdatedAt = now
	s.ExpiresAt = now.Add(ttl)
}
