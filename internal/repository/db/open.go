package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	defaultMaxOpenConns = 25
	defaultMaxIdleConns = 5
)

// DatabaseConfig holds database connection config / Contient la config de connexion BD
type DatabaseConfig struct {
	Type         DatabaseType
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// Open connects to the SQL backend of the session store / Se connecte au backend SQL du store de sessions
func Open(config DatabaseConfig) (*sql.DB, error) {
	if !config.Type.IsSQL() {
		return nil, fmt.Errorf("database type %q has no sql connection", config.Type)
	}

	driverName, dsn, err := driverDSN(config.Type, config.DSN)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", config.Type, err)
	}
	setConnectionPool(conn, config)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", config.Type, err)
	}

	if config.Type == SQLite {
		applySQLitePragmas(conn, config.DSN)
	}

	slog.Info("database connected", "type", config.Type)
	return conn, nil
}

// driverDSN returns the database/sql driver name and the DSN to open.
func driverDSN(dbType DatabaseType, dsn string) (string, string, error) {
	switch dbType {
	case MySQL:
		normalized, err := mysqlDSN(dsn)
		return "mysql", normalized, err
	case PostgreSQL:
		return "postgres", dsn, nil
	case SQLite:
		return "sqlite", dsn, nil
	default:
		return "", "", fmt.Errorf("unsupported database type: %s", dbType)
	}
}

// mysqlDSN forces the settings the session store depends on / Impose les réglages requis par le store
//
// DATETIME columns only scan into time.Time with parseTime, and timestamps
// are written and read in UTC. sql_mode and time_zone are sent on every new
// connection unless the DSN already sets them.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql dsn: %w", err)
	}

	cfg.ParseTime = true
	cfg.Loc = time.UTC

	if cfg.Params == nil {
		cfg.Params = make(map[string]string)
	}
	if _, ok := cfg.Params["sql_mode"]; !ok {
		cfg.Params["sql_mode"] = "'TRADITIONAL'"
	}
	if _, ok := cfg.Params["time_zone"]; !ok {
		cfg.Params["time_zone"] = "'+00:00'"
	}

	return cfg.FormatDSN(), nil
}

func setConnectionPool(conn *sql.DB, config DatabaseConfig) {
	maxOpen := config.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = defaultMaxOpenConns
	}
	maxIdle := config.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = defaultMaxIdleConns
	}

	// In-memory SQLite databases live per connection: keep a single one
	if config.Type == SQLite && isMemoryDSN(config.DSN) {
		maxOpen, maxIdle = 1, 1
	}

	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(maxIdle)
}

func applySQLitePragmas(conn *sql.DB, dsn string) {
	pragmas := []string{"PRAGMA busy_timeout=5000;"}
	if !isMemoryDSN(dsn) {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL;", "PRAGMA synchronous=NORMAL;")
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			slog.Warn("failed to execute pragma", "pragma", pragma, "err", err)
		}
	}
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}
