// Package sink lands normalized artifacts in object storage.
package sink

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/okian/gridlake/pkg/metrics"
)

// ParquetContentType is attached to every Parquet artifact.
const ParquetContentType = "application/vnd.apache.parquet"

// Sink stores an object under key and returns its URI. Writes are once per key; nothing is read back.
type Sink interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Backend() string
}

// Key builds "<prefix>/<YYYYMMDD>/<stem>.parquet" for an ingestion date.
func Key(prefix string, ingested time.Time, stem string) string {
	return path.Join(strings.Trim(prefix, "/"), ingested.UTC().Format("20060102"), stem+".parquet")
}

// URI renders a scheme://bucket/key location.
func URI(scheme, bucket, key string) string {
	return scheme + "://" + bucket + "/" + strings.TrimPrefix(key, "/")
}

// observe records the latency and result of one upload.
func observe(backend string, start time.Time, err error) {
	metrics.RecordSinkLatency(backend, float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordSinkUpload(backend, "error")
		return
	}
	metrics.RecordSinkUpload(backend, "ok")
}
