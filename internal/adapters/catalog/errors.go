package catalog

import "errors"

// Sentinel kinds for catalog errors. They are logged, never returned by FetchCatalog.
var (
	ErrTransport = errors.New("catalog transport failure")
	ErrStatus    = errors.New("catalog returned non-2xx status")
	ErrDecode    = errors.New("catalog response is not valid json")
)
