// Package migrations embeds the SQL schema so binaries and tests apply the
// same files regardless of working directory.
package migrations

import "embed"

// Files holds every *.up.sql and *.down.sql migration.
//
//go:embed *.sql
var Files embed.FS
