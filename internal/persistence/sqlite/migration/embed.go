package migration

import "embed"

// Dir is the directory inside Files that holds the service schema.
const Dir = "sql"

// Files embeds the service schema migrations.
//
//go:embed sql/*.sql
var Files embed.FS
