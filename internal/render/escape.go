package render

import "strings"

// htmlEscaper escapes text for HTML text and attribute content. The entity set
// matches the notices already published on the site, quotes included.
var htmlEscaper = strings.NewReplacer(
	`&`, "&amp;",
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&quot;",
	`'`, "&#x27;",
)

// EscapeText escapes a plain-text value (a title) for embedding in a fragment.
func EscapeText(s string) string {
	return htmlEscaper.Replace(s)
}
