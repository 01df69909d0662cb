// Package migrations contains the embedded goose migrations of the users store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
