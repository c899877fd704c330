package migrations

import "embed"

// FS holds the per-dialect schema migrations.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
