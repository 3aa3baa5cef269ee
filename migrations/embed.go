// Package migrations embeds the goose SQL migrations for trips, segments,
// reservations, generation jobs and the analysis cache.
package migrations

import "embed"

// FS holds all *.sql migration files. The API server applies them at start
// through goose.NewProvider; integration tests do the same in TestMain.
//
//go:embed *.sql
var FS embed.FS
