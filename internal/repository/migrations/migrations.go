// Package migrations embeds the goose SQL migrations for every supported dialect.
// Each dialect has its own directory named after its goose dialect.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite3/*.sql mysql/*.sql
var FS embed.FS
