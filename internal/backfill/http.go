package backfill

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/gridlake/internal/domain/model"
	"github.com/okian/gridlake/pkg/logger"
)

// client wraps http.Client for the gridlake API.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{http: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

// get performs a GET request and discards the body.
func (c *client) get(ctx context.Context, path string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// postJSON posts body and returns the status and raw reply.
func (c *client) postJSON(ctx context.Context, path string, body any) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

// processWindow lands one window with a single pipeline run. A 404 marks the window empty.
func (c *client) processWindow(ctx context.Context, w model.DateRange, sink func([]json.RawMessage) error, verbose bool) WindowResult {
	res := WindowResult{Window: w}
	status, data, err := c.postJSON(ctx, "/process/records", recordsRequest{
		StartDate: w.Start.Format(model.DateLayout),
		EndDate:   w.End.Format(model.DateLayout),
	})
	if err != nil {
		res.Err = err
		return res
	}
	switch {
	case status == http.StatusNotFound:
		res.Empty = true
		return res
	case status != http.StatusOK:
		res.Err = fmt.Errorf("%w %d for %s", ErrStatus, status, w)
		return res
	}

	var body recordsResponse
	if err := json.Unmarshal(data, &body); err != nil {
		res.Err = fmt.Errorf("decode %s: %w", w, err)
		return res
	}
	res.RunID = body.RunID
	res.UploadedFiles = body.UploadedFiles
	res.Records = len(body.Data)
	if verbose {
		logger.Get().Info(ctx, "window fetched",
			logger.String("window", w.String()),
			logger.String("runID", body.RunID),
			logger.Int("total", body.TotalRecordCount),
			logger.Int("records", len(body.Data)),
		)
	}
	if body.TotalRecordCount != len(body.Data) {
		res.Err = fmt.Errorf("%w: %s reported %d records, received %d", ErrIncomplete, w, body.TotalRecordCount, len(body.Data))
		return res
	}
	if sink != nil && len(body.Data) > 0 {
		if err := sink(body.Data); err != nil {
			res.Err = err
		}
	}
	return res
}
