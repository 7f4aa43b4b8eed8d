// Package migrations embeds SQL schema files.
package migrations

import "embed"

// FS contains the Postgres schema files, in lexical apply order.
//
//go:embed *.sql
var FS embed.FS
