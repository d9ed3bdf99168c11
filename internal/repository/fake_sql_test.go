package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Olprog59/go-noticegen/internal/domain"
	"github.com/Olprog59/go-noticegen/internal/repository/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sqlDialect describes the parameter markers a backend accepts.
type sqlDialect struct {
	name        string
	placeholder *regexp.Regexp
	foreign     string
}

var (
	mysqlDialect    = sqlDialect{name: "mysql", placeholder: regexp.MustCompile(`\?`), foreign: "$1"}
	postgresDialect = sqlDialect{name: "postgres", placeholder: regexp.MustCompile(`\$\d+`), foreign: "?"}
)

// fakeSessionTable is an in-process notice_sessions table behind database/sql.
// Text columns come back as []byte and timestamps as time.Time, the way the
// mysql (with parseTime) and postgres drivers return them.
type fakeSessionTable struct {
	dialect sqlDialect
	mu      sync.Mutex
	rows    map[string][]driver.Value
}

func openFakeSQL(t *testing.T, dialect sqlDialect) (*sql.DB, *fakeSessionTable) {
	t.Helper()
	table := &fakeSessionTable{dialect: dialect, rows: make(map[string][]driver.Value)}
	conn := sql.OpenDB(&fakeConnector{table: table})
	t.Cleanup(func() { conn.Close() })
	return conn, table
}

func (tb *fakeSessionTable) has(id string) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	_, ok := tb.rows[id]
	return ok
}

func (tb *fakeSessionTable) normalize(query string, nargs int) (string, error) {
	q := strings.Join(strings.Fields(query), " ")
	if strings.Contains(q, tb.dialect.foreign) {
		return "", fmt.Errorf("%s statement uses %q markers: %s", tb.dialect.name, tb.dialect.foreign, q)
	}
	if got := len(tb.dialect.placeholder.FindAllString(q, -1)); got != nargs {
		return "", fmt.Errorf("%s statement has %d markers for %d args: %s", tb.dialect.name, got, nargs, q)
	}
	return q, nil
}

func (tb *fakeSessionTable) exec(query string, args []driver.Value) (driver.Result, error) {
	q, err := tb.normalize(query, len(args))
	if err != nil {
		return nil, err
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	switch {
	case strings.HasPrefix(q, "INSERT INTO notice_sessions("+db.SessionColumns+")"):
		if len(args) != len(strings.Split(db.SessionColumns, ", ")) {
			return nil, fmt.Errorf("insert with %d values", len(args))
		}
		tb.rows[args[0].(string)] = append([]driver.Value(nil), args...)
		return driver.RowsAffected(1), nil

	case strings.HasPrefix(q, "DELETE FROM notice_sessions WHERE id ="):
		id := args[0].(string)
		if _, ok := tb.rows[id]; !ok {
			return driver.RowsAffected(0), nil
		}
		delete(tb.rows, id)
		return driver.RowsAffected(1), nil

	case strings.HasPrefix(q, "DELETE FROM notice_sessions WHERE expires_at <="):
		before := args[0].(time.Time)
		var n int64
		for id, row := range tb.rows {
			if !row[9].(time.Time).After(before) {
				delete(tb.rows, id)
				n++
			}
		}
		return driver.RowsAffected(n), nil
	}

	return nil, fmt.Errorf("unexpected statement: %s", q)
}

func (tb *fakeSessionTable) query(query string, args []driver.Value) (driver.Rows, error) {
	q, err := tb.normalize(query, len(args))
	if err != nil {
		return nil, err
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	switch {
	case q == "SELECT COUNT(*) FROM notice_sessions":
		return &fakeRows{
			columns: []string{"COUNT(*)"},
			values:  [][]driver.Value{{int64(len(tb.rows))}},
		}, nil

	case strings.HasPrefix(q, "SELECT "+db.SessionColumns+" FROM notice_sessions WHERE id ="):
		rows := &fakeRows{columns: strings.Split(db.SessionColumns, ", ")}
		if row, ok := tb.rows[args[0].(string)]; ok {
			rows.values = [][]driver.Value{wireValues(row)}
		}
		return rows, nil
	}

	return nil, fmt.Errorf("unexpected query: %s", q)
}

func wireValues(row []driver.Value) []driver.Value {
	out := make([]driver.Value, len(row))
	for i, v := range row {
		if s, ok := v.(string); ok {
			out[i] = []byte(s)
			continue
		}
		out[i] = v
	}
	return out
}

type fakeConnector struct {
	table *fakeSessionTable
}

func (c *fakeConnector) Connect(context.Context) (driver.Conn, error) {
	return &fakeConn{table: c.table}, nil
}

func (c *fakeConnector) Driver() driver.Driver {
	return fakeDriver{}
}

type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("open through the connector")
}

type fakeConn struct {
	table *fakeSessionTable
}

func (c *fakeConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepared statements are not supported")
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions are not supported")
}

func (c *fakeConn) Ping(context.Context) error { return nil }

func (c *fakeConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	return c.table.exec(query, namedValues(args))
}

func (c *fakeConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	return c.table.query(query, namedValues(args))
}

func namedValues(args []driver.NamedValue) []driver.Value {
	out := make([]driver.Value, len(args))
	for i, a := range args {
		out[i] = a.Value
	}
	return out
}

type fakeRows struct {
	columns []string
	values  [][]driver.Value
	pos     int
}

func (r *fakeRows) Columns() []string { return r.columns }

func (r *fakeRows) Close() error { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.values) {
		return io.EOF
	}
	copy(dest, r.values[r.pos])
	r.pos++
	return nil
}

func TestNewAdapter_SQLDialects(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		driver  string
		dialect sqlDialect
		wantErr bool
	}{
		{name: "mysql store", driver: "mysql", dialect: mysqlDialect},
		{name: "postgres store", driver: "postgres", dialect: postgresDialect},
		{name: "postgres alias", driver: "PostgreSQL", dialect: postgresDialect},
		{name: "postgres markers on mysql", driver: "postgres", dialect: mysqlDialect, wantErr: true},
		{name: "mysql markers on postgres", driver: "mysql", dialect: postgresDialect, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, table := openFakeSQL(t, tt.dialect)
			store := NewAdapter(conn, tt.driver).SessionStore()

			err := store.Save(ctx, domain.NewSession("routed", now, time.Hour))
			if tt.wantErr {
				require.Error(t, err)
				assert.False(t, table.has("routed"))
				return
			}
			require.NoError(t, err)
			assert.True(t, table.has("routed"))

			got, err := store.Get(ctx, "routed")
			require.NoError(t, err)
			assert.Equal(t, time.UTC, got.ExpiresAt.Location())
		})
	}
}
