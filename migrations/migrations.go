// Package migrations embeds the SQL schema of every session store backend.
// Files are laid out as <driver>/NNNNNN_name.{up,down}.sql for golang-migrate.
package migrations

import "embed"

//go:embed sqlite/*.sql mysql/*.sql postgres/*.sql
var FS embed.FS
