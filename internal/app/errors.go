package service

import "errors"

// Sentinel kinds for pipeline errors.
var (
	// ErrNoResources means no catalog resource matched the requested years.
	ErrNoResources = errors.New("no resources available for the requested period")
	// ErrEmptyResult means resources matched but none yielded rows inside the range.
	ErrEmptyResult = errors.New("no records found for the requested period")

	ErrInvalidPage   = errors.New("invalid pagination")
	ErrUnitPanic     = errors.New("resource processing panicked")
	ErrNotConfigured = errors.New("service not configured")
)
