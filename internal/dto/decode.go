package dto

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

var (
	validate      = validator.New(validator.WithRequiredStructEnabled())
	schemaDecoder = schema.NewDecoder()
)

func init() {
	schemaDecoder.IgnoreUnknownKeys(true)
}

// FormatError reports malformed input, as opposed to missing fields / Signale une saisie mal formée
type FormatError struct {
	Fields map[string]string
}

func (e *FormatError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, name := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// DecodeForm fills dst from posted form values and checks formats / Décode un formulaire et vérifie les formats
func DecodeForm(dst any, values url.Values) error {
	if err := schemaDecoder.Decode(dst, values); err != nil {
		return fmt.Errorf("decode form: %w", err)
	}
	return Validate(dst)
}

// Validate checks struct tags / Vérifie les tags de validation
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return err
	}

	fe := &FormatError{Fields: make(map[string]string, len(valErrs))}
	for _, ve := range valErrs {
		fe.Fields[ve.Field()] = formatValidationError(ve)
	}
	return fe
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "max":
		return fmt.Sprintf("must be at most %s characters", ve.Param())
	case "datetime":
		return "must be a date in the YYYY-MM-DD format"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}
