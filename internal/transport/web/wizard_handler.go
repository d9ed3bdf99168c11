package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/Olprog59/go-noticegen/internal/domain"
	"github.com/Olprog59/go-noticegen/internal/dto"
	"github.com/Olprog59/go-noticegen/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// WarningInvalidInput is shown when a form field is malformed rather than missing.
const WarningInvalidInput = "Please check the format of the highlighted fields before proceeding."

// wizardPage is the data of one wizard page / Données d'une page de l'assistant
type wizardPage struct {
	Step      string
	Draft     domain.Draft
	Date      string
	Warning   string
	Missing   map[string]bool
	CSRFToken string
	Result    *dto.RenderResponse
	Preview   previewFragments
}

// previewFragments holds the rendered fragments shown as live HTML.
// Bodies come from the trusted editor and are rendered as typed.
type previewFragments struct {
	EnglishFull  template.HTML
	FrenchFull   template.HTML
	EnglishAlert template.HTML
	FrenchAlert  template.HTML
}

// Home renders the current wizard step / Affiche l'étape courante de l'assistant
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	sess, err := h.currentSession(w, r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	page := h.newPage(r, sess.Step, sess.Draft)
	if sess.Step == domain.StepPreview {
		if err := h.fillPreview(r, sess.ID, page); err != nil {
			h.wizardError(w, r, err)
			return
		}
	}

	h.renderPage(w, r, http.StatusOK, page)
}

// SubmitDetails handles the step 1 form / Traite le formulaire de l'étape 1
func (h *Handler) SubmitDetails(w http.ResponseWriter, r *http.Request) {
	sess, err := h.loadSession(r)
	if err != nil {
		h.wizardError(w, r, err)
		return
	}

	var form dto.DetailsForm
	submitted := sess.Draft
	submitted.EnglishTitle = r.PostFormValue("english_title")
	submitted.FrenchTitle = r.PostFormValue("french_title")

	if err := dto.DecodeForm(&form, r.PostForm); err != nil {
		h.formatProblem(w, r, domain.StepDetails, submitted, err)
		return
	}
	date, err := form.ParsedDate()
	if err != nil {
		h.formatProblem(w, r, domain.StepDetails, submitted, err)
		return
	}

	sess, err = h.container.WizardSvc.SubmitDetails(r.Context(), sess.ID, form.EnglishTitle, form.FrenchTitle, date)
	if err != nil {
		// The session is left untouched: show what was typed
		if !date.IsZero() {
			submitted.Date = date
		}
		h.stepProblem(w, r, domain.StepDetails, submitted, err)
		return
	}

	h.advanced(w, r, sess)
}

// SubmitContent handles the step 2 form / Traite le formulaire de l'étape 2
func (h *Handler) SubmitContent(w http.ResponseWriter, r *http.Request) {
	sess, err := h.loadSession(r)
	if err != nil {
		h.wizardError(w, r, err)
		return
	}

	var form dto.ContentForm
	if err := dto.DecodeForm(&form, r.PostForm); err != nil {
		submitted := sess.Draft
		submitted.EnglishBody = r.PostFormValue("english_body")
		submitted.FrenchBody = r.PostFormValue("french_body")
		h.formatProblem(w, r, domain.StepContent, submitted, err)
		return
	}

	sess, err = h.container.WizardSvc.SubmitContent(r.Context(), sess.ID, form.EnglishBody, form.FrenchBody)
	if err != nil {
		if sess == nil {
			h.wizardError(w, r, err)
			return
		}
		h.stepProblem(w, r, domain.StepContent, sess.Draft, err)
		return
	}

	h.advanced(w, r, sess)
}

// Back moves one step back, keeping step 2 bodies / Revient d'une étape en gardant les contenus
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	sess, err := h.loadSession(r)
	if err != nil {
		h.wizardError(w, r, err)
		return
	}

	var form dto.ContentForm
	if err := dto.DecodeForm(&form, r.PostForm); err != nil {
		h.formatProblem(w, r, sess.Step, sess.Draft, err)
		return
	}

	sess, err = h.container.WizardSvc.Back(r.Context(), sess.ID, form.EnglishBody, form.FrenchBody)
	if err != nil {
		h.wizardError(w, r, err)
		return
	}

	h.advanced(w, r, sess)
}

// Reset discards the draft and starts over / Supprime le brouillon et recommence
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if id, ok := h.sessionID(r); ok {
		if err := h.container.WizardSvc.Reset(r.Context(), id); err != nil {
			h.serverError(w, r, err)
			return
		}
	}

	h.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// advanced refreshes the cookie lifetime and redirects to the current step.
func (h *Handler) advanced(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	if err := h.setSessionCookie(w, sess.ID); err != nil {
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// stepProblem re-renders step with the aggregate warning of a validation error.
func (h *Handler) stepProblem(w http.ResponseWriter, r *http.Request, step domain.Step, draft domain.Draft, err error) {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		h.wizardError(w, r, err)
		return
	}

	page := h.newPage(r, step, draft)
	page.Warning = verr.Error()
	for _, f := range verr.Missing {
		page.Missing[f.String()] = true
	}
	h.renderPage(w, r, http.StatusUnprocessableEntity, page)
}

// formatProblem re-renders step when a field could not be decoded.
func (h *Handler) formatProblem(w http.ResponseWriter, r *http.Request, step domain.Step, draft domain.Draft, err error) {
	LoggerFrom(r.Context()).Info("malformed wizard form", "step", step, "err", err)

	page := h.newPage(r, step, draft)
	page.Warning = WarningInvalidInput
	var fe *dto.FormatError
	if errors.As(err, &fe) {
		for field := range fe.Fields {
			page.Missing[formFieldName(field)] = true
		}
	} else {
		page.Missing[domain.FieldDate.String()] = true
	}
	h.renderPage(w, r, http.StatusBadRequest, page)
}

// wizardError maps service errors to redirects or a 500.
func (h *Handler) wizardError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		// Expired or unknown: the next GET starts a fresh session
		h.clearSessionCookie(w)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case errors.Is(err, service.ErrInvalidTransition):
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		h.serverError(w, r, err)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	LoggerFrom(r.Context()).Error("wizard request failed", "path", r.URL.Path, "err", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func (h *Handler) newPage(r *http.Request, step domain.Step, draft domain.Draft) *wizardPage {
	return &wizardPage{
		Step:      step.String(),
		Draft:     draft,
		Date:      draft.ISODate(),
		Missing:   make(map[string]bool),
		CSRFToken: csrfTokenFrom(r.Context()),
	}
}

func (h *Handler) fillPreview(r *http.Request, id string, page *wizardPage) error {
	res, err := h.container.WizardSvc.Generate(r.Context(), id)
	if err != nil {
		return err
	}

	page.Result = dto.RenderResultToDTO(res)
	page.Preview = previewFragments{
		EnglishFull:  template.HTML(res.EnglishFull),
		FrenchFull:   template.HTML(res.FrenchFull),
		EnglishAlert: template.HTML(res.EnglishAlert),
		FrenchAlert:  template.HTML(res.FrenchAlert),
	}
	return nil
}

// renderPage buffers the template so a failure never sends half a page.
func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, page *wizardPage) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, "layout", page); err != nil {
		h.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// formFieldName maps a DTO struct field to its form field name.
func formFieldName(structField string) string {
	switch structField {
	case "EnglishTitle":
		return domain.FieldEnglishTitle.String()
	case "FrenchTitle":
		return domain.FieldFrenchTitle.String()
	case "Date":
		return domain.FieldDate.String()
	case "EnglishBody":
		return domain.FieldEnglishBody.String()
	case "FrenchBody":
		return domain.FieldFrenchBody.String()
	default:
		return structField
	}
}
