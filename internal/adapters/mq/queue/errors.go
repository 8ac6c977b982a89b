package queue

import "errors"

// ErrFull is reported by callers when Enqueue rejects a job.
var ErrFull = errors.New("load queue full")
