package ports

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Olprog59/go-noticegen/internal/domain"
)

// ErrNotFound returned when resource not found / Retourné quand la ressource n'est pas trouvée
var ErrNotFound = errors.New("not found")

// SessionStore persists editing sessions / Persiste les sessions d'édition
//
// A session holds exactly one draft. Nothing rendered is ever stored.
type SessionStore interface {
	// Save inserts or replaces the session / Insère ou remplace la session
	Save(ctx context.Context, s *domain.Session) error
	// Get retrieves session by ID, ErrNotFound if missing / Récupère la session par ID
	Get(ctx context.Context, id string) (*domain.Session, error)
	// Delete removes session, missing IDs are not an error / Supprime la session
	Delete(ctx context.Context, id string) error
	// PurgeExpired removes sessions expired before the given time / Supprime les sessions expirées
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
	// Count returns the number of stored sessions / Retourne le nombre de sessions
	Count(ctx context.Context) (int64, error)
	// Ping checks the backend is reachable / Vérifie que le backend est joignable
	Ping(ctx context.Context) error
}

// SQLConn is what the SQL session stores need from *sql.DB or *sql.Tx / Ce dont les stores SQL ont besoin
type SQLConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
