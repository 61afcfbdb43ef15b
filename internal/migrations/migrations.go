// Package migrations embeds the schema migrations applied at startup.
package migrations

import "embed"

// Files holds the SQL migrations, named with an ordering prefix
// (001_init.sql, 002_..., ...) so the runner can sort and apply them
// in sequence.
//
//go:embed *.sql
var Files embed.FS
