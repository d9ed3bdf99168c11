package dto

import (
	"fmt"
	"time"

	"github.com/Olprog59/go-noticegen/internal/domain"
	"github.com/Olprog59/go-noticegen/internal/render"
)

// RenderRequest is DTO for the stateless render API and CLI draft files / DTO de l'API de rendu et des fichiers brouillon
//
// Tags only check formats. Missing fields are reported by domain validation
// so that every missing field is listed at once.
type RenderRequest struct {
	EnglishTitle string `json:"english_title" yaml:"english_title" validate:"max=500"`     // English title / Titre anglais
	FrenchTitle  string `json:"french_title" yaml:"french_title" validate:"max=500"`       // French title / Titre français
	Date         string `json:"date" yaml:"date" validate:"omitempty,datetime=2006-01-02"` // YYYY-MM-DD
	EnglishBody  string `json:"english_body" yaml:"english_body" validate:"max=200000"`    // English HTML body / Contenu HTML anglais
	FrenchBody   string `json:"french_body" yaml:"french_body" validate:"max=200000"`      // French HTML body / Contenu HTML français
}

// ToDraft converts the request to a draft / Convertit la requête en brouillon
func (r RenderRequest) ToDraft() (domain.Draft, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return domain.Draft{}, err
	}
	return domain.Draft{
		EnglishTitle: r.EnglishTitle,
		FrenchTitle:  r.FrenchTitle,
		Date:         date,
		EnglishBody:  r.EnglishBody,
		FrenchBody:   r.FrenchBody,
	}, nil
}

// RenderResponse is DTO for rendered fragments / DTO des fragments générés
type RenderResponse struct {
	EnglishFull  string `json:"english_full"`  // Full English notice / Avis complet anglais
	FrenchFull   string `json:"french_full"`   // Full French notice / Avis complet français
	EnglishAlert string `json:"english_alert"` // English alert box / Boîte d'alerte anglaise
	FrenchAlert  string `json:"french_alert"`  // French alert box / Boîte d'alerte française
	Combined     string `json:"combined"`      // English then French full notice / Avis anglais puis français
}

// RenderResultToDTO converts render.Result to RenderResponse / Convertit render.Result en RenderResponse
func RenderResultToDTO(res render.Result) *RenderResponse {
	return &RenderResponse{
		EnglishFull:  res.EnglishFull,
		FrenchFull:   res.FrenchFull,
		EnglishAlert: res.EnglishAlert,
		FrenchAlert:  res.FrenchAlert,
		Combined:     res.Combined(),
	}
}

// ValidationErrorResponse is the 422 body of the render API / Corps 422 de l'API de rendu
type ValidationErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Missing []string `json:"missing"`
}

// ValidationErrorToDTO converts a domain validation error / Convertit une erreur de validation
func ValidationErrorToDTO(err *domain.ValidationError) *ValidationErrorResponse {
	return &ValidationErrorResponse{
		Error:   "validation_failed",
		Message: err.Error(),
		Missing: err.Fields(),
	}
}

// DetailsForm is the step 1 form / Formulaire de l'étape 1
type DetailsForm struct {
	EnglishTitle string `schema:"english_title" validate:"max=500"`
	FrenchTitle  string `schema:"french_title" validate:"max=500"`
	Date         string `schema:"date" validate:"omitempty,datetime=2006-01-02"`
}

// ParsedDate returns the form date, zero when left empty.
func (f DetailsForm) ParsedDate() (time.Time, error) {
	return ParseDate(f.Date)
}

// ContentForm is the step 2 form, also posted by its Back button / Formulaire de l'étape 2
type ContentForm struct {
	EnglishBody string `schema:"english_body" validate:"max=200000"`
	FrenchBody  string `schema:"french_body" validate:"max=200000"`
}

// ParseDate parses a YYYY-MM-DD date, empty yields the zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must use the YYYY-MM-DD format: %q", s)
	}
	return t, nil
}
