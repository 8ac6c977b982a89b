package backfill

import "errors"

// Sentinel kinds for backfill errors.
var (
	ErrUnhealthy  = errors.New("service health check failed")
	ErrStatus     = errors.New("unexpected status")
	ErrConfig     = errors.New("invalid backfill config")
	ErrIncomplete = errors.New("incomplete window reply")
)
