package repository

import (
	"database/sql"

	"github.com/Olprog59/go-noticegen/internal/ports"
	"github.com/Olprog59/go-noticegen/internal/repository/db"
	"github.com/Olprog59/go-noticegen/internal/repository/sqlite"
)

// NewSQLiteSessionStore creates SQLite session store for tests / Crée un store de sessions SQLite pour les tests
func NewSQLiteSessionStore(database *sql.DB) ports.SessionStore {
	return sqlite.NewSessionStore(database)
}

// OpenMemorySQLite opens a migrated in-memory SQLite database / Ouvre une base SQLite en mémoire migrée
func OpenMemorySQLite() (*sql.DB, error) {
	conn, err := db.Open(db.DatabaseConfig{Type: db.SQLite, DSN: ":memory:"})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(conn, db.SQLite, ""); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
