// Package migrations holds the PostgreSQL schema applied by goose.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
