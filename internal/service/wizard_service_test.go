package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Olprog59/go-noticegen/internal/config"
	"github.com/Olprog59/go-noticegen/internal/domain"
	"github.com/Olprog59/go-noticegen/internal/mocks"
	"github.com/Olprog59/go-noticegen/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestWizard(t *testing.T) (*WizardService, *mocks.MockSessionStore, *mocks.MockMetrics, *fakeClock) {
	t.Helper()
	renderer, err := render.NewRenderer(domain.DefaultLinks())
	require.NoError(t, err)

	store := mocks.NewMockSessionStore()
	m := mocks.NewMockMetrics()
	clock := &fakeClock{now: time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)}
	conf := &config.Config{Session: config.SessionConfig{TTL: time.Hour}}

	svc := NewWizardService(store, renderer, conf, m).WithClock(clock.Now)
	return svc, store, m, clock
}

func TestWizardService_Start(t *testing.T) {
	svc, store, m, _ := newTestWizard(t)

	sess, err := svc.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StepDetails, sess.Step)
	assert.Equal(t, "2024-03-15", sess.Draft.ISODate())
	assert.True(t, sess.Draft.IsEmpty())
	assert.Len(t, store.Sessions, 1)
	assert.Equal(t, 1, m.SessionsStarted)
	assert.Equal(t, int64(1), m.ActiveSessions)

	other, err := svc.Start(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, other.ID)
}

func TestWizardService_Get(t *testing.T) {
	svc, _, _, clock := newTestWizard(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx)
	require.NoError(t, err)

	got, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)

	_, err = svc.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.Get(ctx, "0f8fad5b-d9cb-469f-a165-70867728950e")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	clock.Advance(2 * time.Hour)
	_, err = svc.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestWizardService_FullFlow(t *testing.T) {
	svc, _, m, _ := newTestWizard(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx)
	require.NoError(t, err)

	sess, err = svc.SubmitDetails(ctx, sess.ID, "Online Services Unavailable", "Services en ligne indisponibles", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, domain.StepContent, sess.Step)
	assert.Equal(t, "2024-03-15", sess.Draft.ISODate(), "zero date keeps the default")

	sess, err = svc.SubmitContent(ctx, sess.ID, "<p>Maintenance.</p>", "<p>Maintenance.</p>")
	require.NoError(t, err)
	assert.Equal(t, domain.StepPreview, sess.Step)

	res, err := svc.Generate(ctx, sess.ID)
	require.NoError(t, err)
	assert.Contains(t, res.EnglishFull, `<h2 class="text-danger">Online Services Unavailable &ndash; (<time class="nowrap" datetime="2024-03-15">2024-03-15</time>)</h2>`)
	assert.Contains(t, res.FrenchAlert, "Interruption des services - Services en ligne indisponibles")

	assert.Equal(t, []string{"details->content", "content->preview"}, m.Transitions)
	assert.Equal(t, 1, m.Renders[OutcomeSuccess])
}

func TestWizardService_SubmitDetails_Validation(t *testing.T) {
	svc, store, m, _ := newTestWizard(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx)
	require.NoError(t, err)

	got, err := svc.SubmitDetails(ctx, sess.ID, "Online Services Unavailable", "  ", time.Time{})
	require.Error(t, err)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []domain.Field{domain.FieldFrenchTitle}, verr.Missing)
	assert.Equal(t, WarningTitlesRequired, verr.Error())
	assert.Equal(t, domain.StepDetails, got.Step)

	stored := store.Sessions[sess.ID]
	assert.Equal(t, "", stored.Draft.EnglishTitle, "session must be left unchanged")
	assert.Empty(t, m.Transitions)
}

func TestWizardService_SubmitDetails_DateNormalised(t *testing.T) {
	svc, _, _, _ := newTestWizard(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx)
	require.NoError(t, err)

	date := time.Date(2024, 12, 24, 23, 59, 0, 0, time.FixedZone("EST", -5*3600))
	sess, err = svc.SubmitDetails(ctx, sess.ID, "A", "B", date)
	require.NoError(t, err)
	assert.Equal(t, "2024-12-24", sess.Draft.ISODate())
}

func TestWizardService_SubmitContent_KeepsPartialBodies(t *testing.T) {
	svc, store, _, _ := newTestWizard(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx)
	require.NoError(t, err)
	_, err = svc.SubmitDetails(ctx, sess.ID, "A", "B", time.Time{})
	require.NoError(t, err)

	got, err := svc.SubmitContent(ctx, sess.ID, "<p>English only</p>", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Equal(t, WarningBodiesRequired, err.Error())
	assert.Equal(t, domain.StepContent, got.Step)
	assert.Equal(t, "<p>English only</p>", store.Sessions[sess.ID].Draft.EnglishBody)
}

func TestWizardService_OutOfOrder(t *testing.T) {
	svc, _, _, _ := newTestWizard(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx)
	require.NoError(t, err)

	_, err = svc.SubmitContent(ctx, sess.ID, "<p>a</p>", "<p>b</p>")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Generate(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.SubmitDetails(ctx, sess.ID, "A", "B", time.Time{})
	require.NoError(t, err)
	_, err = svc.SubmitDetails(ctx, sess.ID, "A", "B", time.Time{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestWizardService_Back(t *testing.T) {
	svc, store, m, _ := newTestWizard(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx)
	require.NoError(t, err)

	// Back on the first step is a no-op
	got, err := svc.Back(ctx, sess.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, domain.StepDetails, got.Step)

	_, err = svc.SubmitDetails(ctx, sess.ID, "A", "B", time.Time{})
	require.NoError(t, err)

	// Back from content keeps the typed bodies
	got, err = svc.Back(ctx, sess.ID, "<p>en</p>", "<p>fr</p>")
	require.NoError(t, err)
	assert.Equal(t, domain.StepDetails, got.Step)
	assert.Equal(t, "<p>en</p>", store.Sessions[sess.ID].Draft.EnglishBody)
	assert.Equal(t, "<p>fr</p>", store.Sessions[sess.ID].Draft.FrenchBody)

	// Forward again, then back from preview
	_, err = svc.SubmitDetails(ctx, sess.ID, "A", "B", time.Time{})
	require.NoError(t, err)
	_, err = svc.SubmitContent(ctx, sess.ID, "<p>en</p>", "<p>fr</p>")
	require.NoError(t, err)
	got, err = svc.Back(ctx, sess.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, domain.StepContent, got.Step)
	assert.Equal(t, "<p>en</p>", got.Draft.EnglishBody, "back from preview ignores form bodies")

	assert.Contains(t, m.Transitions, "content->details")
	assert.Contains(t, m.Transitions, "preview->content")
}

func TestWizardService_Reset(t *testing.T) {
	svc, store, m, _ := newTestWizard(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx)
	require.NoError(t, err)
	_, err = svc.SubmitDetails(ctx, sess.ID, "A", "B", time.Time{})
	require.NoError(t, err)

	require.NoError(t, svc.Reset(ctx, sess.ID))
	assert.Empty(t, store.Sessions)
	assert.Equal(t, int64(0), m.ActiveSessions)
	assert.Contains(t, m.Transitions, "content->details")

	_, err = svc.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Resetting a missing session is not an error
	assert.NoError(t, svc.Reset(ctx, sess.ID))
}

func TestWizardService_ResetStoreFailure(t *testing.T) {
	svc, store, _, _ := newTestWizard(t)
	store.DeleteError = errors.New("disk full")

	err := svc.Reset(context.Background(), "0f8fad5b-d9cb-469f-a165-70867728950e")
	assert.Error(t, err)
}

func TestWizardService_PurgeExpired(t *testing.T) {
	svc, store, m, clock := newTestWizard(t)
	ctx := context.Background()

	old, err := svc.Start(ctx)
	require.NoError(t, err)
	clock.Advance(45 * time.Minute)
	fresh, err := svc.Start(ctx)
	require.NoError(t, err)
	clock.Advance(30 * time.Minute)

	n, err := svc.PurgeExpired(ctx, clock.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(1), m.SessionsPurged)
	assert.Equal(t, int64(1), m.ActiveSessions)

	_, exists := store.Sessions[old.ID]
	assert.False(t, exists)
	_, exists = store.Sessions[fresh.ID]
	assert.True(t, exists)
}

func TestWizardService_UpdateExtendsLifetime(t *testing.T) {
	svc, _, _, clock := newTestWizard(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx)
	require.NoError(t, err)

	clock.Advance(50 * time.Minute)
	_, err = svc.SubmitDetails(ctx, sess.ID, "A", "B", time.Time{})
	require.NoError(t, err)

	clock.Advance(50 * time.Minute)
	_, err = svc.Get(ctx, sess.ID)
	assert.NoError(t, err)
}

func TestWizardService_Render_Metrics(t *testing.T) {
	svc, _, m, _ := newTestWizard(t)

	_, err := svc.Render(context.Background(), domain.Draft{EnglishTitle: "A", FrenchTitle: "B"})
	require.Error(t, err)
	assert.Equal(t, 1, m.Renders[OutcomeValidationFailed])
	assert.Equal(t, 1, m.ValidationFailures["date"])
	assert.Equal(t, 1, m.ValidationFailures["english_body"])
	assert.Equal(t, 1, m.ValidationFailures["french_body"])
}

func TestWizardService_StoreFailure(t *testing.T) {
	svc, store, _, _ := newTestWizard(t)
	ctx := context.Background()

	store.SaveError = errors.New("connection refused")
	_, err := svc.Start(ctx)
	assert.Error(t, err)

	store.SaveError = nil
	sess, err := svc.Start(ctx)
	require.NoError(t, err)

	store.GetError = errors.New("connection refused")
	_, err = svc.Get(ctx, sess.ID)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionNotFound)
}

func TestWizardService_ConcurrentSessionsAreIsolated(t *testing.T) {
	svc, _, _, _ := newTestWizard(t)
	ctx := context.Background()

	a, err := svc.Start(ctx)
	require.NoError(t, err)
	b, err := svc.Start(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = svc.SubmitDetails(ctx, a.ID, "Title A", "Titre A", time.Time{})
	}()
	go func() {
		defer wg.Done()
		_, _ = svc.SubmitDetails(ctx, b.ID, "Title B", "Titre B", time.Time{})
	}()
	wg.Wait()

	gotA, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	gotB, err := svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Title A", gotA.Draft.EnglishTitle)
	assert.Equal(t, "Title B", gotB.Draft.EnglishTitle)
}
