// Package migrations contains the embedded Postgres schema and applies it.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
