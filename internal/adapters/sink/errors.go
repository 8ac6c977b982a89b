package sink

import "errors"

// Sentinel kinds for sink errors.
var (
	ErrNoBucket = errors.New("sink bucket not configured")
	ErrEmptyKey = errors.New("object key must not be empty")
	ErrUpload   = errors.New("object upload failed")
)
