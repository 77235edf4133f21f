// Package migrations embeds the versioned SQL schema of the ledger
package migrations

import "embed"

// FS holds the numbered up and down migration files
//
//go:embed *.sql
var FS embed.FS
