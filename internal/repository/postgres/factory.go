package postgres

import (
	"database/sql"

	"github.com/Olprog59/go-noticegen/internal/ports"
)

// Factory implements DatabaseFactory for PostgreSQL / Implémente DatabaseFactory pour PostgreSQL
type Factory struct{}

// NewSessionStore creates session store / Crée le store de sessions
func (f *Factory) NewSessionStore(db *sql.DB) ports.SessionStore {
	return NewSessionStore(db)
}
