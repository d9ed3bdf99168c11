package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Olprog59/go-noticegen/internal/domain"
	"github.com/Olprog59/go-noticegen/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	sess := domain.NewSession("abc", now, time.Hour)
	sess.Draft.EnglishTitle = "Online Services Unavailable"
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, *sess, *got)

	// Mutating the returned copy must not touch the stored session
	got.Draft.EnglishTitle = "changed"
	again, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Online Services Unavailable", again.Draft.EnglishTitle)

	require.NoError(t, store.Delete(ctx, "abc"))
	_, err = store.Get(ctx, "abc")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	// Deleting twice is fine
	assert.NoError(t, store.Delete(ctx, "abc"))
}

func TestSessionStore_SaveRejectsInvalid(t *testing.T) {
	store := NewSessionStore()
	assert.Error(t, store.Save(context.Background(), nil))
	assert.Error(t, store.Save(context.Background(), &domain.Session{}))
}

func TestSessionStore_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, domain.NewSession("old", now.Add(-2*time.Hour), time.Hour)))
	require.NoError(t, store.Save(ctx, domain.NewSession("fresh", now, time.Hour)))

	n, err := store.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = store.Get(ctx, "fresh")
	assert.NoError(t, err)
}

func TestSessionStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i%26))
			_ = store.Save(ctx, domain.NewSession(id, now, time.Minute))
			_, _ = store.Get(ctx, id)
			_, _ = store.Count(ctx)
		}(i)
	}
	wg.Wait()

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(26), count)
}

func TestSessionStore_Ping(t *testing.T) {
	store := NewSessionStore()
	assert.NoError(t, store.Ping(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.Ping(ctx), context.Canceled)
}
