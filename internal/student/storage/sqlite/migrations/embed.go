package migrations

import "embed"

// FS contains embedded SQLite migrations for student storage.
//
//go:embed *.sql
var FS embed.FS
