package domain

import (
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date layout used everywhere a notice date is rendered or parsed.
const DateLayout = "2006-01-02"

// Field names a required Notice Draft field / Nomme un champ obligatoire du brouillon
type Field string

const (
	FieldEnglishTitle Field = "english_title"
	FieldFrenchTitle  Field = "french_title"
	FieldDate         Field = "date"
	FieldEnglishBody  Field = "english_body"
	FieldFrenchBody   Field = "french_body"
)

// String returns field as string / Retourne le champ en string
func (f Field) String() string {
	return string(f)
}

// Label returns a human readable label for warnings.
func (f Field) Label() string {
	switch f {
	case FieldEnglishTitle:
		return "English title"
	case FieldFrenchTitle:
		return "French title"
	case FieldDate:
		return "message date"
	case FieldEnglishBody:
		return "English message content"
	case FieldFrenchBody:
		return "French message content"
	default:
		return string(f)
	}
}

// Draft is the in-progress bilingual service interruption notice / Brouillon bilingue en cours de rédaction
//
// Bodies are rich-text HTML produced by a trusted editor and are never escaped.
// Titles are plain text.
type Draft struct {
	EnglishTitle string
	FrenchTitle  string
	Date         time.Time
	EnglishBody  string
	FrenchBody   string
}

// NewDraft returns an empty draft dated on the calendar day of now / Retourne un brouillon vide daté du jour
func NewDraft(now time.Time) Draft {
	y, m, d := now.Date()
	return Draft{Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ISODate formats the draft date as YYYY-MM-DD, or "" when no date is set.
func (d Draft) ISODate() string {
	if d.Date.IsZero() {
		return ""
	}
	return d.Date.Format(DateLayout)
}

// MissingTitles lists the empty title fields, in form order.
func (d Draft) MissingTitles() []Field {
	var missing []Field
	if isBlank(d.EnglishTitle) {
		missing = append(missing, FieldEnglishTitle)
	}
	if isBlank(d.FrenchTitle) {
		missing = append(missing, FieldFrenchTitle)
	}
	return missing
}

// MissingBodies lists the empty body fields, in form order.
func (d Draft) MissingBodies() []Field {
	var missing []Field
	if isBlank(d.EnglishBody) {
		missing = append(missing, FieldEnglishBody)
	}
	if isBlank(d.FrenchBody) {
		missing = append(missing, FieldFrenchBody)
	}
	return missing
}

// Missing lists every required field that is empty or absent.
func (d Draft) Missing() []Field {
	missing := d.MissingTitles()
	if d.Date.IsZero() {
		missing = append(missing, FieldDate)
	}
	return append(missing, d.MissingBodies()...)
}

// Validate checks that every required field is set / Vérifie que tous les champs obligatoires sont remplis
func (d Draft) Validate() error {
	if missing := d.Missing(); len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// IsEmpty checks whether nothing but the default date was entered / Vérifie si rien n'a été saisi
func (d Draft) IsEmpty() bool {
	return isBlank(d.EnglishTitle) && isBlank(d.FrenchTitle) &&
		isBlank(d.EnglishBody) && isBlank(d.FrenchBody)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
