package notify

import "errors"

// Sentinel kinds for notification errors.
var (
	ErrNoQueue = errors.New("notification queue url not configured")
	ErrPublish = errors.New("notification publish failed")
)
