// Package sqlite embeds the goose migrations of the embedded backend.
package sqlite

import "embed"

//go:embed *.sql
var FS embed.FS
