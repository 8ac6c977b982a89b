package fetch

import "errors"

// Sentinel kinds for download errors.
var (
	ErrRequest  = errors.New("download request failed")
	ErrStatus   = errors.New("download returned non-2xx status")
	ErrTooLarge = errors.New("download body too large")
)
