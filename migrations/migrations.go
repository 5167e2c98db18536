// Package migrations embeds the SQL schema migrations so binaries can run
// them at startup without shipping loose files.
package migrations

import "embed"

// FS holds the embedded migration files.
//
//go:embed *.sql
var FS embed.FS
