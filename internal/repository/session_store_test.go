package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Olprog59/go-noticegen/internal/domain"
	"github.com/Olprog59/go-noticegen/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactories lists every backend. MySQL and Postgres run their own SQL
// against an in-process table that enforces the dialect's parameter markers.
func storeFactories(t *testing.T) map[string]func() ports.SessionStore {
	t.Helper()
	return map[string]func() ports.SessionStore{
		"memory": func() ports.SessionStore {
			return NewAdapter(nil, "memory").SessionStore()
		},
		"sqlite": func() ports.SessionStore {
			conn, err := OpenMemorySQLite()
			require.NoError(t, err)
			t.Cleanup(func() { conn.Close() })
			return NewSQLiteSessionStore(conn)
		},
		"mysql": func() ports.SessionStore {
			conn, _ := openFakeSQL(t, mysqlDialect)
			return NewAdapter(conn, "mysql").SessionStore()
		},
		"postgres": func() ports.SessionStore {
			conn, _ := openFakeSQL(t, postgresDialect)
			return NewAdapter(conn, "postgresql").SessionStore()
		},
	}
}

func TestSessionStore_Contract(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore()

			t.Run("Get missing", func(t *testing.T) {
				_, err := store.Get(ctx, "missing")
				assert.ErrorIs(t, err, ports.ErrNotFound)
			})

			t.Run("Save and Get", func(t *testing.T) {
				sess := domain.NewSession("0f8fad5b-d9cb-469f-a165-70867728950e", now, time.Hour)
				sess.Step = domain.StepContent
				sess.Draft.EnglishTitle = "Online Services Unavailable"
				sess.Draft.FrenchTitle = "Services en ligne indisponibles"
				sess.Draft.EnglishBody = "<p>Maintenance & <b>upgrade</b>.</p>"
				require.NoError(t, store.Save(ctx, sess))

				got, err := store.Get(ctx, sess.ID)
				require.NoError(t, err)
				assert.Equal(t, sess.ID, got.ID)
				assert.Equal(t, domain.StepContent, got.Step)
				assert.Equal(t, sess.Draft.EnglishTitle, got.Draft.EnglishTitle)
				assert.Equal(t, sess.Draft.FrenchTitle, got.Draft.FrenchTitle)
				assert.Equal(t, sess.Draft.EnglishBody, got.Draft.EnglishBody)
				assert.Equal(t, "", got.Draft.FrenchBody)
				assert.Equal(t, "2024-03-15", got.Draft.ISODate())
				assert.True(t, sess.ExpiresAt.Equal(got.ExpiresAt))
			})

			t.Run("Save overwrites", func(t *testing.T) {
				sess := domain.NewSession("overwrite", now, time.Hour)
				require.NoError(t, store.Save(ctx, sess))

				sess.Step = domain.StepPreview
				sess.Draft.FrenchBody = "<p>Entretien.</p>"
				sess.Touch(now.Add(time.Minute), time.Hour)
				require.NoError(t, store.Save(ctx, sess))

				got, err := store.Get(ctx, "overwrite")
				require.NoError(t, err)
				assert.Equal(t, domain.StepPreview, got.Step)
				assert.Equal(t, "<p>Entretien.</p>", got.Draft.FrenchBody)
				assert.True(t, now.Add(61*time.Minute).Equal(got.ExpiresAt))
			})

			t.Run("Absent date round-trips", func(t *testing.T) {
				sess := domain.NewSession("nodate", now, time.Hour)
				sess.Draft.Date = time.Time{}
				require.NoError(t, store.Save(ctx, sess))

				got, err := store.Get(ctx, "nodate")
				require.NoError(t, err)
				assert.True(t, got.Draft.Date.IsZero())
			})

			t.Run("Delete", func(t *testing.T) {
				require.NoError(t, store.Save(ctx, domain.NewSession("todelete", now, time.Hour)))
				require.NoError(t, store.Delete(ctx, "todelete"))

				_, err := store.Get(ctx, "todelete")
				assert.ErrorIs(t, err, ports.ErrNotFound)
				assert.NoError(t, store.Delete(ctx, "todelete"))
			})

			t.Run("PurgeExpired", func(t *testing.T) {
				require.NoError(t, store.Save(ctx, domain.NewSession("expired-1", now.Add(-3*time.Hour), time.Hour)))
				require.NoError(t, store.Save(ctx, domain.NewSession("expired-2", now.Add(-2*time.Hour), time.Hour)))

				before, err := store.Count(ctx)
				require.NoError(t, err)

				n, err := store.PurgeExpired(ctx, now)
				require.NoError(t, err)
				assert.Equal(t, int64(2), n)

				after, err := store.Count(ctx)
				require.NoError(t, err)
				assert.Equal(t, before-2, after)

				_, err = store.Get(ctx, "overwrite")
				assert.NoError(t, err)
			})

			t.Run("Ping", func(t *testing.T) {
				assert.NoError(t, store.Ping(ctx))
			})
		})
	}
}

func TestNewAdapter_FallsBackToMemory(t *testing.T) {
	tests := []struct {
		name   string
		driver string
	}{
		{"Memory driver", "memory"},
		{"SQL driver without connection", "sqlite"},
		{"Unknown driver", "oracle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := NewAdapter(nil, tt.driver)
			store := adapter.SessionStore()
			require.NotNil(t, store)

			// The memory factory hands out one shared store
			require.NoError(t, store.Save(context.Background(), domain.NewSession("x", time.Now(), time.Minute)))
			_, err := adapter.SessionStore().Get(context.Background(), "x")
			assert.NoError(t, err)
		})
	}
}
