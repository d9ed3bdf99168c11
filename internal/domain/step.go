package domain

import "errors"

// ErrInvalidTransition is returned when an action is not allowed at the current step.
var ErrInvalidTransition = errors.New("invalid wizard transition")

// Step is a page of the notice wizard / Étape de l'assistant
type Step int

const (
	StepDetails Step = iota + 1 // titles and date / titres et date
	StepContent                 // rich-text bodies / contenu
	StepPreview                 // preview and copy HTML / aperçu et copie du HTML
)

// Action is a user action that moves the wizard / Action qui fait avancer l'assistant
type Action string

const (
	ActionNext  Action = "next"
	ActionBack  Action = "back"
	ActionReset Action = "reset"
)

// IsValid checks if step is known / Vérifie si l'étape est connue
func (s Step) IsValid() bool {
	return s >= StepDetails && s <= StepPreview
}

// String returns a stable name used in logs and metric labels.
func (s Step) String() string {
	switch s {
	case StepDetails:
		return "details"
	case StepContent:
		return "content"
	case StepPreview:
		return "preview"
	default:
		return "unknown"
	}
}

// Transition returns the step reached by applying action at s.
// Next is linear, Back from the first step stays put, Reset always returns to details.
func (s Step) Transition(action Action) (Step, error) {
	if !s.IsValid() {
		return s, ErrInvalidTransition
	}

	switch action {
	case ActionReset:
		return StepDetails, nil
	case ActionNext:
		if s == StepPreview {
			return s, ErrInvalidTransition
		}
		return s + 1, nil
	case ActionBack:
		if s == StepDetails {
			return s, nil
		}
		return s - 1, nil
	default:
		return s, ErrInvalidTransition
	}
}
