package logging

import (
	"log/slog"

	"github.com/m-mizutani/masq"
)

// Redact returns a slog ReplaceAttr func hiding credentials / Masque les identifiants dans les logs
//
// Struct fields tagged `masq:"secret"` and attributes named after a
// credential are replaced by a placeholder.
func Redact() func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(
		masq.WithTag("secret"),
		masq.WithFieldName("Secret"),
		masq.WithFieldName("EditorPasswordHash"),
		masq.WithFieldName("Authorization"),
	)
}
