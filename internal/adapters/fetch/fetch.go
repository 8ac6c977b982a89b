// Package fetch downloads resource bodies over HTTP.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/gridlake/pkg/metrics"
)

// Default download configuration constants.
const (
	defaultTimeout  = 60 * time.Second
	defaultMaxBytes = 512 << 20
)

// HTTPDownloader fetches a URL into memory, following redirects.
type HTTPDownloader struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
}

// New creates an HTTPDownloader.
func New(opts ...Option) *HTTPDownloader {
	d := &HTTPDownloader{
		timeout:  defaultTimeout,
		maxBytes: defaultMaxBytes,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.client == nil {
		d.client = &http.Client{}
	}
	return d
}

// Download performs a GET bounded by the configured timeout. Non-2xx responses are errors.
func (d *HTTPDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()
	body, err := d.download(ctx, url)
	metrics.RecordDownloadLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordResourceDownload("error")
		return nil, err
	}
	metrics.RecordResourceDownload("ok")
	return body, nil
}

func (d *HTTPDownloader) download(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrStatus, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	if int64(len(body)) > d.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, url, d.maxBytes)
	}
	return body, nil
}
