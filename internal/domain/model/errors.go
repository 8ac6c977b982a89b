package model

import "errors"

// Sentinel kinds for domain validation errors.
var (
	ErrInvalidRange     = errors.New("start date is after end date")
	ErrInvalidDate      = errors.New("invalid date, expected YYYY-MM-DD")
	ErrUnsupportedValue = errors.New("unsupported value type")
)
