package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/Olprog59/go-noticegen/internal/domain"
	"github.com/Olprog59/go-noticegen/internal/service"
	"github.com/Olprog59/go-noticegen/internal/service/session"
)

// sessionID returns the session ID carried by the signed cookie, if any.
func (h *Handler) sessionID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(h.container.Config.Session.CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	id, err := session.Parse(cookie.Value, h.container.Config.Session.Secret)
	if err != nil {
		h.container.Metrics.RecordInvalidSessionToken()
		LoggerFrom(r.Context()).Info("rejected session cookie", "err", err)
		return "", false
	}
	return id, true
}

// loadSession returns the caller's live session or service.ErrSessionNotFound.
func (h *Handler) loadSession(r *http.Request) (*domain.Session, error) {
	id, ok := h.sessionID(r)
	if !ok {
		return nil, service.ErrSessionNotFound
	}
	return h.container.WizardSvc.Get(r.Context(), id)
}

// currentSession loads the caller's session, starting a new one when there is none.
func (h *Handler) currentSession(w http.ResponseWriter, r *http.Request) (*domain.Session, error) {
	sess, err := h.loadSession(r)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, service.ErrSessionNotFound) {
		return nil, err
	}
	return h.startSession(r.Context(), w)
}

func (h *Handler) startSession(ctx context.Context, w http.ResponseWriter) (*domain.Session, error) {
	sess, err := h.container.WizardSvc.Start(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.setSessionCookie(w, sess.ID); err != nil {
		return nil, err
	}
	return sess, nil
}

// setSessionCookie issues a fresh token so the cookie follows the sliding session TTL.
func (h *Handler) setSessionCookie(w http.ResponseWriter, id string) error {
	conf := h.container.Config
	token, err := session.Issue(id, conf.Session.Secret, conf.Session.TTL)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     conf.Session.CookieName,
		Value:    token.Value,
		Path:     cookiePath(conf),
		Domain:   conf.Session.CookieDomain,
		Expires:  token.ExpiresAt,
		Secure:   conf.Session.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	conf := h.container.Config
	http.SetCookie(w, &http.Cookie{
		Name:     conf.Session.CookieName,
		Value:    "",
		Path:     cookiePath(conf),
		Domain:   conf.Session.CookieDomain,
		MaxAge:   -1,
		Secure:   conf.Session.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
