package domain

// Language is a notice language / Langue d'un avis
type Language string

const (
	English Language = "en"
	French  Language = "fr"
)

// Languages returns the rendering order: English first, then French.
func Languages() []Language {
	return []Language{English, French}
}

// IsValid checks if language is supported / Vérifie si la langue est prise en charge
func (l Language) IsValid() bool {
	return l == English || l == French
}

// Title returns the draft title for the language.
func (d Draft) Title(lang Language) string {
	if lang == French {
		return d.FrenchTitle
	}
	return d.EnglishTitle
}

// Body returns the draft body for the language.
func (d Draft) Body(lang Language) string {
	if lang == French {
		return d.FrenchBody
	}
	return d.EnglishBody
}
