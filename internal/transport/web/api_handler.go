package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Olprog59/go-noticegen/internal/domain"
	"github.com/Olprog59/go-noticegen/internal/dto"
)

// RenderNotice renders a draft posted as JSON / Génère un avis depuis un brouillon JSON
//
// 200 with all fragments, 422 when required fields are missing, 400 on
// malformed input.
func (h *Handler) RenderNotice(w http.ResponseWriter, r *http.Request) {
	var req dto.RenderRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			ErrorResponse(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		ErrorResponse(w, "malformed JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := dto.Validate(req); err != nil {
		ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	draft, err := req.ToDraft()
	if err != nil {
		ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.container.WizardSvc.Render(r.Context(), draft)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			jsonStatus(w, http.StatusUnprocessableEntity, dto.ValidationErrorToDTO(verr))
			return
		}
		LoggerFrom(r.Context()).Error("render API failed", "err", err)
		ErrorResponse(w, "internal server error", http.StatusInternalServerError)
		return
	}

	jsonResponse(w, dto.RenderResultToDTO(res))
}

// Links returns the configured CMS link set / Retourne les liens CMS configurés
func (h *Handler) Links(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, h.container.Renderer.Links())
}
