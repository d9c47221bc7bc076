// Package migrations embeds the archive schema so the binary carries it.
package migrations

import "embed"

//go:embed *.sql
var files embed.FS

// FS holds the *.up.sql and *.down.sql files at its root.
var FS = files
