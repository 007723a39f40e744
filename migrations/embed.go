// Package migrations embeds the SQL schema for the audit database so the
// binary can migrate without the files on disk.
package migrations

import "embed"

// FS holds every YYYYMMDD_HHMMSS_name.{up,down}.sql file in this directory.
//
//go:embed *.sql
var FS embed.FS
