// Package postgres embeds the goose migrations of the networked backend.
package postgres

import "embed"

//go:embed *.sql
var FS embed.FS
