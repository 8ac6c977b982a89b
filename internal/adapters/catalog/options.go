package catalog

import (
	"net/http"
	"time"

	"github.com/okian/gridlake/pkg/logger"
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds the catalog request.
func WithTimeout(t time.Duration) Option {
	return func(c *Client) {
		if t > 0 {
			c.timeout = t
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.client = h
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
