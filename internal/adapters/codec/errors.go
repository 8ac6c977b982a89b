package codec

import "errors"

// Sentinel kinds for codec errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported resource format")
	ErrEmptyDocument     = errors.New("document has no header row")
	ErrMalformedCSV      = errors.New("malformed csv")
	ErrMalformedParquet  = errors.New("malformed parquet")
)
