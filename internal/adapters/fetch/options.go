package fetch

import (
	"net/http"
	"time"
)

// Option configures an HTTPDownloader.
type Option func(*HTTPDownloader)

// WithTimeout bounds every download.
func WithTimeout(t time.Duration) Option {
	return func(d *HTTPDownloader) {
		if t > 0 {
			d.timeout = t
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(d *HTTPDownloader) {
		if c != nil {
			d.client = c
		}
	}
}

// WithMaxBytes caps the accepted body size.
func WithMaxBytes(n int64) Option {
	return func(d *HTTPDownloader) {
		if n > 0 {
			d.maxBytes = n
		}
	}
}
