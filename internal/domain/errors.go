package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing title, segment outside its trip's dates).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrStale is returned when an analysis pass finished after a newer snapshot
// of the same trip was seen. Its result must be discarded.
// Handlers should map this to HTTP 409 Conflict.
var ErrStale = errors.New("stale analysis")
