package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Olprog59/go-noticegen/internal/config"
	"github.com/Olprog59/go-noticegen/internal/domain"
	"github.com/Olprog59/go-noticegen/internal/ports"
	"github.com/Olprog59/go-noticegen/internal/render"
	"github.com/google/uuid"
)

// Common service errors
var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidTransition = domain.ErrInvalidTransition
)

// Warnings shown when a step is submitted incomplete / Avertissements affichés quand une étape est incomplète
const (
	WarningTitlesRequired = "Please enter both English and French titles before proceeding."
	WarningDateRequired   = "Please choose the date of the message before proceeding."
	WarningBodiesRequired = "Please complete both the English and French message boxes before proceeding."
)

// Render outcomes used as metric labels
const (
	OutcomeSuccess          = "success"
	OutcomeValidationFailed = "validation_failed"
	OutcomeError            = "error"
)

// WizardMetricsRecorder records wizard metrics / Enregistre les métriques de l'assistant
type WizardMetricsRecorder interface {
	RecordRender(outcome string)
	RecordValidationFailure(fields []string)
	RecordTransition(from, to string)
	RecordSessionStarted()
	RecordSessionsPurged(n int64)
	SetActiveSessions(n int64)
}

// WizardService drives the three-step notice wizard / Pilote l'assistant de rédaction en trois étapes
//
// Each session owns one draft. Updates to the same session are serialised;
// different sessions never share state.
type WizardService struct {
	store    ports.SessionStore
	renderer *render.Renderer
	ttl      time.Duration
	metrics  WizardMetricsRecorder
	now      func() time.Time

	sessionLocks map[string]*lockEntry
	mapMutex     sync.Mutex
}

// NewWizardService creates wizard service instance / Crée une instance du service d'assistant
func NewWizardService(
	store ports.SessionStore,
	renderer *render.Renderer,
	conf *config.Config,
	metrics WizardMetricsRecorder,
) *WizardService {
	return &WizardService{
		store:        store,
		renderer:     renderer,
		ttl:          conf.Session.TTL,
		metrics:      metrics,
		now:          time.Now,
		sessionLocks: make(map[string]*lockEntry),
	}
}

// WithClock replaces the time source, for tests / Remplace la source de temps
func (s *WizardService) WithClock(now func() time.Time) *WizardService {
	s.now = now
	return s
}

// Renderer returns the renderer bound to the configured link set.
func (s *WizardService) Renderer() *render.Renderer {
	return s.renderer
}

// Start creates a new session at the details step / Crée une nouvelle session à l'étape des détails
func (s *WizardService) Start(ctx context.Context) (*domain.Session, error) {
	sess := domain.NewSession(uuid.NewString(), s.now(), s.ttl)
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.metrics.RecordSessionStarted()
	s.refreshActiveSessions(ctx)
	slog.DebugContext(ctx, "wizard session started", "session_id", sess.ID)
	return sess, nil
}

// Get loads a live session / Charge une session valide
func (s *WizardService) Get(ctx context.Context, id string) (*domain.Session, error) {
	return s.load(ctx, id)
}

// SubmitDetails stores titles and date, then moves to the content step / Enregistre titres et date
//
// A zero date keeps the date already on the draft. When a title is missing the
// session is left untouched and a *domain.ValidationError is returned.
func (s *WizardService) SubmitDetails(ctx context.Context, id, englishTitle, frenchTitle string, date time.Time) (*domain.Session, error) {
	return s.update(ctx, id, domain.StepDetails, func(sess *domain.Session) (bool, error) {
		d := sess.Draft
		d.EnglishTitle = englishTitle
		d.FrenchTitle = frenchTitle
		if !date.IsZero() {
			d.Date = calendarDay(date)
		}

		if missing := d.MissingTitles(); len(missing) > 0 {
			if d.Date.IsZero() {
				missing = append(missing, domain.FieldDate)
			}
			return false, &domain.ValidationError{Missing: missing, Message: WarningTitlesRequired}
		}
		if d.Date.IsZero() {
			return false, &domain.ValidationError{Missing: []domain.Field{domain.FieldDate}, Message: WarningDateRequired}
		}

		sess.Draft = d
		return true, s.advance(sess, domain.ActionNext)
	})
}

// SubmitContent stores both bodies and moves to the preview step / Enregistre les contenus
//
// Bodies are kept even when one is missing so nothing typed is lost.
func (s *WizardService) SubmitContent(ctx context.Context, id, englishBody, frenchBody string) (*domain.Session, error) {
	return s.update(ctx, id, domain.StepContent, func(sess *domain.Session) (bool, error) {
		sess.Draft.EnglishBody = englishBody
		sess.Draft.FrenchBody = frenchBody

		if missing := sess.Draft.MissingBodies(); len(missing) > 0 {
			return true, &domain.ValidationError{Missing: missing, Message: WarningBodiesRequired}
		}
		return true, s.advance(sess, domain.ActionNext)
	})
}

// Back returns to the previous step / Revient à l'étape précédente
//
// From the content step the submitted bodies are kept. From the first step it is a no-op.
func (s *WizardService) Back(ctx context.Context, id, englishBody, frenchBody string) (*domain.Session, error) {
	return s.update(ctx, id, 0, func(sess *domain.Session) (bool, error) {
		switch sess.Step {
		case domain.StepDetails:
			return false, nil
		case domain.StepContent:
			sess.Draft.EnglishBody = englishBody
			sess.Draft.FrenchBody = frenchBody
		}
		return true, s.advance(sess, domain.ActionBack)
	})
}

// Generate renders the session draft at the preview step / Génère les fragments à l'étape d'aperçu
func (s *WizardService) Generate(ctx context.Context, id string) (render.Result, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return render.Result{}, err
	}
	if sess.Step != domain.StepPreview {
		return render.Result{}, ErrInvalidTransition
	}
	return s.Render(ctx, sess.Draft)
}

// Render validates and renders a caller-owned draft / Valide et génère un brouillon fourni par l'appelant
func (s *WizardService) Render(ctx context.Context, d domain.Draft) (render.Result, error) {
	res, err := s.renderer.Render(d)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			s.metrics.RecordRender(OutcomeValidationFailed)
			s.metrics.RecordValidationFailure(verr.Fields())
			return render.Result{}, err
		}
		s.metrics.RecordRender(OutcomeError)
		slog.ErrorContext(ctx, "notice render failed", "err", err)
		return render.Result{}, err
	}

	s.metrics.RecordRender(OutcomeSuccess)
	return res, nil
}

// Reset discards the session and its draft / Supprime la session et son brouillon
func (s *WizardService) Reset(ctx context.Context, id string) error {
	lock := s.getSessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	if sess, err := s.store.Get(ctx, id); err == nil {
		s.metrics.RecordTransition(sess.Step.String(), domain.StepDetails.String())
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	s.mapMutex.Lock()
	delete(s.sessionLocks, id)
	s.mapMutex.Unlock()

	s.refreshActiveSessions(ctx)
	return nil
}

// PurgeExpired removes expired sessions / Supprime les sessions expirées
func (s *WizardService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.store.PurgeExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}

	s.metrics.RecordSessionsPurged(n)
	s.cleanupInactiveLocks(now)
	s.refreshActiveSessions(ctx)
	if n > 0 {
		slog.InfoContext(ctx, "purged expired sessions", "count", n)
	}
	return n, nil
}

// load fetches a session and drops it when expired.
func (s *WizardService) load(ctx context.Context, id string) (*domain.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	if sess.IsExpired(s.now()) {
		if err := s.store.Delete(ctx, id); err != nil {
			slog.WarnContext(ctx, "failed to delete expired session", "session_id", id, "err", err)
		}
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// update runs fn under the session lock and saves when fn asks to.
// A non-zero want rejects sessions at any other step.
// On a validation error the session is returned together with the error.
func (s *WizardService) update(ctx context.Context, id string, want domain.Step, fn func(*domain.Session) (bool, error)) (*domain.Session, error) {
	lock := s.getSessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if want != 0 && sess.Step != want {
		return sess, ErrInvalidTransition
	}

	from := sess.Step
	save, fnErr := fn(sess)
	if fnErr != nil && !errors.Is(fnErr, domain.ErrValidation) {
		return sess, fnErr
	}

	if save {
		sess.Touch(s.now(), s.ttl)
		if err := s.store.Save(ctx, sess); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
	}
	if sess.Step != from {
		s.metrics.RecordTransition(from.String(), sess.Step.String())
	}
	return sess, fnErr
}

func (s *WizardService) advance(sess *domain.Session, action domain.Action) error {
	next, err := sess.Step.Transition(action)
	if err != nil {
		return err
	}
	sess.Step = next
	return nil
}

// getSessionLock retrieves or creates session-specific mutex / Récupère ou crée un mutex par session
func (s *WizardService) getSessionLock(id string) *sync.Mutex {
	s.mapMutex.Lock()
	defer s.mapMutex.Unlock()

	entry, exists := s.sessionLocks[id]
	if !exists {
		entry = &lockEntry{mu: &sync.Mutex{}}
		s.sessionLocks[id] = entry
	}
	entry.lastUsed = s.now()
	return entry.mu
}

// cleanupInactiveLocks drops locks unused for longer than the session TTL / Nettoie les locks inutilisés
func (s *WizardService) cleanupInactiveLocks(now time.Time) {
	s.mapMutex.Lock()
	defer s.mapMutex.Unlock()

	for id, entry := range s.sessionLocks {
		if now.Sub(entry.lastUsed) > s.ttl {
			delete(s.sessionLocks, id)
		}
	}
}

func (s *WizardService) refreshActiveSessions(ctx context.Context) {
	n, err := s.store.Count(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to count sessions", "err", err)
		return
	}
	s.metrics.SetActiveSessions(n)
}

// calendarDay drops the time of day, keeping the calendar date as entered.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
