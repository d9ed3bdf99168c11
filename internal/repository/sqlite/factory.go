package sqlite

import (
	"database/sql"

	"github.com/Olprog59/go-noticegen/internal/ports"
)

// Factory implements DatabaseFactory for SQLite / Implémente DatabaseFactory pour SQLite
// The compile-time check is in adapter.go to avoid import cycles
type Factory struct{}

// NewSessionStore creates session store / Crée le store de sessions
func (f *Factory) NewSessionStore(db *sql.DB) ports.SessionStore {
	return NewSessionStore(db)
}
