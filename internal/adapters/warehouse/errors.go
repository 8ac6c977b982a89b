package warehouse

import "errors"

// Sentinel kinds for warehouse errors.
var (
	ErrConnect = errors.New("warehouse connection failed")
	ErrSchema  = errors.New("warehouse schema change failed")
	ErrCopy    = errors.New("warehouse copy failed")
)
