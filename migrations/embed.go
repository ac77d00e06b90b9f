// AngelaMos | 2026
// embed.go

// Package migrations embeds the goose schema for every supported backend.
// Each dialect lives in a directory named after core.Dialect.Name().
package migrations

import "embed"

//go:embed postgres/*.sql mysql/*.sql sqlserver/*.sql
var FS embed.FS
