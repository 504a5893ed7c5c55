// Package migrations embeds the SQL migration files so server bootstrap can
// apply them through the goose programmatic API without a filesystem path.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
