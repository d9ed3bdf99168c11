package mysql

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/Olprog59/go-noticegen/internal/domain"
	"github.com/Olprog59/go-noticegen/internal/ports"
	"github.com/Olprog59/go-noticegen/internal/repository/db"
)

var _ ports.SessionStore = (*sessionStore)(nil)

// sessionStore implements SessionStore for MySQL / Implémente SessionStore pour MySQL
//
// Timestamps scan into time.Time because db.Open forces parseTime on the DSN.
type sessionStore struct {
	db   ports.SQLConn
	conn *sql.DB
}

// NewSessionStore creates session store / Crée le store de sessions
func NewSessionStore(conn *sql.DB) ports.SessionStore {
	return &sessionStore{db: conn, conn: conn}
}

// Save upserts the session / Insère ou met à jour la session
func (s *sessionStore) Save(ctx context.Context, sess *domain.Session) error {
	if sess == nil {
		return errors.New("the session is null")
	}

	const query = `
    INSERT INTO notice_sessions(` + db.SessionColumns + `)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    ON DUPLICATE KEY UPDATE
        step = VALUES(step),
        english_title = VALUES(english_title),
        french_title = VALUES(french_title),
        notice_date = VALUES(notice_date),
        english_body = VALUES(english_body),
        french_body = VALUES(french_body),
        updated_at = VALUES(updated_at),
        expires_at = VALUES(expires_at)
    `
	_, err := s.db.ExecContext(ctx, query, db.NewSessionRow(sess).Args()...)
	return handleError(err)
}

// Get retrieves session by ID / Récupère la session par ID
func (s *sessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	const query = `SELECT ` + db.SessionColumns + ` FROM notice_sessions WHERE id = ?`

	var row db.SessionRow
	if err := s.db.QueryRowContext(ctx, query, id).Scan(row.Dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, handleError(err)
	}
	return row.Session()
}

// Delete removes session / Supprime la session
func (s *sessionStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM notice_sessions WHERE id = ?`, id)
	return handleError(err)
}

// PurgeExpired deletes expired sessions / Supprime les sessions expirées
func (s *sessionStore) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notice_sessions WHERE expires_at <= ?`, before.UTC())
	if err != nil {
		return 0, handleError(err)
	}
	n, _ := res.RowsAffected()
	slog.Debug("purged expired sessions", "backend", db.MySQL, "count", n)
	return n, nil
}

// Count returns number of sessions / Retourne le nombre de sessions
func (s *sessionStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notice_sessions`).Scan(&n)
	return n, handleError(err)
}

// Ping checks the connection / Vérifie la connexion
func (s *sessionStore) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}
