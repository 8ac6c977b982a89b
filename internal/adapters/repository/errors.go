package repository

import "errors"

// Sentinel kinds for ledger errors.
var (
	ErrNotFound     = errors.New("run not found")
	ErrInvalidLimit = errors.New("invalid list limit")
	ErrOpen         = errors.New("open run ledger failed")
)
