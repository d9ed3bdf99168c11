package domain

import (
	"errors"
	"strings"
)

// ErrValidation is matched by every *ValidationError through errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError reports all missing required fields at once / Liste tous les champs obligatoires manquants
type ValidationError struct {
	Missing []Field
	// Message overrides the default aggregate warning when set.
	Message string
}

// Error implements error.
func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	labels := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		labels[i] = f.Label()
	}
	return "missing required fields: " + strings.Join(labels, ", ")
}

// Is makes errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Fields returns the missing field names as strings.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		out[i] = f.String()
	}
	return out
}
