// Package migrations embeds the goose SQL migrations for the clan store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
