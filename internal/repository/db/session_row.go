package db

import (
	"fmt"
	"time"

	"github.com/Olprog59/go-noticegen/internal/domain"
)

// SessionColumns is the column list shared by every SQL backend, in scan order.
const SessionColumns = "id, step, english_title, french_title, notice_date, english_body, french_body, created_at, updated_at, expires_at"

// SessionRow is the flat representation of a session in the notice_sessions table / Représentation à plat d'une session
//
// The notice date is stored as a YYYY-MM-DD string, empty when absent.
type SessionRow struct {
	ID           string
	Step         int
	EnglishTitle string
	FrenchTitle  string
	NoticeDate   string
	EnglishBody  string
	FrenchBody   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ExpiresAt    time.Time
}

// NewSessionRow flattens a session / Aplatit une session
func NewSessionRow(s *domain.Session) SessionRow {
	row := SessionRow{
		ID:           s.ID,
		Step:         int(s.Step),
		EnglishTitle: s.Draft.EnglishTitle,
		FrenchTitle:  s.Draft.FrenchTitle,
		EnglishBody:  s.Draft.EnglishBody,
		FrenchBody:   s.Draft.FrenchBody,
		CreatedAt:    s.CreatedAt.UTC(),
		UpdatedAt:    s.UpdatedAt.UTC(),
		ExpiresAt:    s.ExpiresAt.UTC(),
	}
	if !s.Draft.Date.IsZero() {
		row.NoticeDate = s.Draft.ISODate()
	}
	return row
}

// Args returns the row values in SessionColumns order.
func (r SessionRow) Args() []any {
	return []any{
		r.ID, r.Step, r.EnglishTitle, r.FrenchTitle, r.NoticeDate,
		r.EnglishBody, r.FrenchBody, r.CreatedAt, r.UpdatedAt, r.ExpiresAt,
	}
}

// Dest returns scan destinations in SessionColumns order.
func (r *SessionRow) Dest() []any {
	return []any{
		&r.ID, &r.Step, &r.EnglishTitle, &r.FrenchTitle, &r.NoticeDate,
		&r.EnglishBody, &r.FrenchBody, &r.CreatedAt, &r.UpdatedAt, &r.ExpiresAt,
	}
}

// Session rebuilds the domain session / Reconstruit la session
func (r SessionRow) Session() (*domain.Session, error) {
	step := domain.Step(r.Step)
	if !step.IsValid() {
		return nil, fmt.Errorf("session %s: invalid step %d", r.ID, r.Step)
	}

	var date time.Time
	if r.NoticeDate != "" {
		var err error
		date, err = time.Parse(domain.DateLayout, r.NoticeDate)
		if err != nil {
			return nil, fmt.Errorf("session %s: invalid notice date: %w", r.ID, err)
		}
	}

	return &domain.Session{
		BaseModel: domain.BaseModel{
			CreatedAt: r.CreatedAt.UTC(),
			UpdatedAt: r.UpdatedAt.UTC(),
			ExpiresAt: r.ExpiresAt.UTC(),
		},
		ID:   r.ID,
		Step: step,
		Draft: domain.Draft{
			EnglishTitle: r.EnglishTitle,
			FrenchTitle:  r.FrenchTitle,
			Date:         date,
			EnglishBody:  r.EnglishBody,
			FrenchBody:   r.FrenchBody,
		},
	}, nil
}
