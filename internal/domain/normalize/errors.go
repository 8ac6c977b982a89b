package normalize

import "errors"

// ErrMissingDateColumn is returned when the table lacks the reference-date column.
var ErrMissingDateColumn = errors.New("date column not found")
