package db

// DatabaseType represents supported session store backends
type DatabaseType string

const (
	Memory     DatabaseType = "memory"
	SQLite     DatabaseType = "sqlite"
	MySQL      DatabaseType = "mysql"
	PostgreSQL DatabaseType = "postgres"
)

// ParseDatabaseType normalises driver aliases / Normalise les alias de driver
func ParseDatabaseType(s string) DatabaseType {
	switch s {
	case "sqlite3":
		return SQLite
	case "postgresql":
		return PostgreSQL
	default:
		return DatabaseType(s)
	}
}

// String returns string representation
func (dt DatabaseType) String() string {
	return string(dt)
}

// IsValid checks if database type is valid
func (dt DatabaseType) IsValid() bool {
	switch dt {
	case Memory, SQLite, MySQL, PostgreSQL:
		return true
	default:
		return false
	}
}

// IsSQL reports whether the backend needs a database/sql connection and migrations.
func (dt DatabaseType) IsSQL() bool {
	return dt.IsValid() && dt != Memory
}
