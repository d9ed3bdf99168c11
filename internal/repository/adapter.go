package repository

import (
	"database/sql"
	"strings"

	"github.com/Olprog59/go-noticegen/internal/ports"
	"github.com/Olprog59/go-noticegen/internal/repository/db"
	"github.com/Olprog59/go-noticegen/internal/repository/memory"
	"github.com/Olprog59/go-noticegen/internal/repository/mysql"
	"github.com/Olprog59/go-noticegen/internal/repository/postgres"
	"github.com/Olprog59/go-noticegen/internal/repository/sqlite"
)

// Compile-time checks to ensure all Factory implementations satisfy DatabaseFactory interface
// Vérifications à la compilation pour s'assurer que toutes les implémentations de Factory satisfont l'interface DatabaseFactory
var (
	_ DatabaseFactory = (*sqlite.Factory)(nil)
	_ DatabaseFactory = (*mysql.Factory)(nil)
	_ DatabaseFactory = (*postgres.Factory)(nil)
	_ DatabaseFactory = (*memoryFactory)(nil)
)

// factoryRegistry holds all SQL factories / Registre de toutes les factories SQL
var factoryRegistry = map[db.DatabaseType]DatabaseFactory{
	db.SQLite:     &sqlite.Factory{},
	db.MySQL:      &mysql.Factory{},
	db.PostgreSQL: &postgres.Factory{},
}

// memoryFactory ignores the connection and hands out one shared in-memory store.
type memoryFactory struct {
	store ports.SessionStore
}

func (f *memoryFactory) NewSessionStore(*sql.DB) ports.SessionStore {
	return f.store
}

// Adapter adapts database connection to repositories / Adapte la connexion BD vers les repositories
type Adapter struct {
	db      *sql.DB
	factory DatabaseFactory
}

// NewAdapter creates repository adapter / Crée l'adapteur de repositories
//
// The memory driver needs no connection; conn may be nil.
func NewAdapter(conn *sql.DB, driver string) *Adapter {
	dbType := db.ParseDatabaseType(strings.ToLower(driver))

	factory := factoryRegistry[dbType]
	if factory == nil || conn == nil {
		factory = &memoryFactory{store: memory.NewSessionStore()}
	}

	return &Adapter{
		db:      conn,
		factory: factory,
	}
}

// SessionStore returns appropriate session store / Retourne le store de sessions approprié
func (a *Adapter) SessionStore() ports.SessionStore {
	return a.factory.NewSessionStore(a.db)
}
