package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Olprog59/go-noticegen/migrations"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file" // Required for file-based migrations
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Migrate applies pending migrations / Applique les migrations en attente
//
// An empty path uses the schema embedded in the binary; otherwise migrations
// are read from <path> on disk.
func Migrate(conn *sql.DB, dbType DatabaseType, path string) error {
	driver, driverName, err := migrationDriver(conn, dbType)
	if err != nil {
		return err
	}

	var m *migrate.Migrate
	if path != "" {
		m, err = migrate.NewWithDatabaseInstance("file://"+path, driverName, driver)
	} else {
		src, srcErr := iofs.New(migrations.FS, dbType.String())
		if srcErr != nil {
			return fmt.Errorf("could not open embedded migrations: %w", srcErr)
		}
		m, err = migrate.NewWithInstance("iofs", src, driverName, driver)
	}
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	slog.Info("applying database migrations", "type", dbType, "source", migrationSource(path))
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, _ := m.Version()
	slog.Info("database migrations applied", "type", dbType, "version", version, "dirty", dirty)
	return nil
}

// migrationDriver wraps conn in the golang-migrate driver of dbType and
// returns the driver name migrate expects.
func migrationDriver(conn *sql.DB, dbType DatabaseType) (database.Driver, string, error) {
	var (
		driver database.Driver
		name   string
		err    error
	)

	switch dbType {
	case SQLite:
		name = "sqlite3"
		driver, err = migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	case MySQL:
		name = "mysql"
		driver, err = migratemysql.WithInstance(conn, &migratemysql.Config{})
	case PostgreSQL:
		name = "postgres"
		driver, err = migratepostgres.WithInstance(conn, &migratepostgres.Config{})
	default:
		return nil, "", fmt.Errorf("unsupported database type for migrations: %s", dbType)
	}

	if err != nil {
		return nil, "", fmt.Errorf("could not create %s migration driver: %w", dbType, err)
	}
	return driver, name, nil
}

func migrationSource(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}
