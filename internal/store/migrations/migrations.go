// Package migrations embeds the schema of the local SQLite snapshot file.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
