// Package catalog reads the resource listing of a CKAN package-metadata endpoint.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/gridlake/internal/domain/model"
	"github.com/okian/gridlake/pkg/logger"
	"github.com/okian/gridlake/pkg/metrics"
)

const defaultTimeout = 30 * time.Second

// packageShow mirrors the parts of a CKAN package_show response we read.
type packageShow struct {
	Success bool `json:"success"`
	Result  struct {
		Resources []resource `json:"resources"`
	} `json:"result"`
}

type resource struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Format string `json:"format"`
}

// Client fetches the published list of resources.
type Client struct {
	url     string
	client  *http.Client
	timeout time.Duration
	logger  logger.Logger
}

// New creates a catalog client for the given package-metadata URL.
func New(url string, opts ...Option) *Client {
	c := &Client{
		url:     url,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{}
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("catalog")
	}
	return c
}

// FetchCatalog returns every listed resource. Upstream failures are logged and yield an empty list.
func (c *Client) FetchCatalog(ctx context.Context) []model.ResourceDescriptor {
	resources, err := c.fetch(ctx)
	if err != nil {
		c.logger.Error(ctx, "catalog fetch failed", logger.String("url", c.url), logger.Error(err))
		metrics.UpdateCatalogResources(0)
		return []model.ResourceDescriptor{}
	}
	metrics.RecordCatalogFetch("ok")
	metrics.UpdateCatalogResources(len(resources))
	c.logger.Debug(ctx, "catalog fetched", logger.Int("resources", len(resources)))
	return resources
}

func (c *Client) fetch(ctx context.Context) ([]model.ResourceDescriptor, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		metrics.RecordCatalogFetch("transport")
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordCatalogFetch("transport")
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		metrics.RecordCatalogFetch("status")
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	var doc packageShow
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		metrics.RecordCatalogFetch("decode")
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	out := make([]model.ResourceDescriptor, 0, len(doc.Result.Resources))
	for _, r := range doc.Result.Resources {
		out = append(out, model.ResourceDescriptor{
			ID:     r.ID,
			Name:   r.Name,
			URL:    r.URL,
			Format: model.ParseFormat(r.Format),
		})
	}
	return out, nil
}
