package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOAPI is the subset of the MinIO client used by the sink.
type MinIOAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinIO lands artifacts in a MinIO bucket.
type MinIO struct {
	client MinIOAPI
	bucket string
}

// MinIOConfig holds the connection settings of the MinIO sink.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// NewMinIO creates a MinIO sink.
func NewMinIO(cfg MinIOConfig) (*MinIO, error) {
	if cfg.Bucket == "" {
		return nil, ErrNoBucket
	}
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return NewMinIOWithClient(cli, cfg.Bucket), nil
}

// NewMinIOWithClient wraps an existing client.
func NewMinIOWithClient(client MinIOAPI, bucket string) *MinIO {
	return &MinIO{client: client, bucket: bucket}
}

// EnsureBucket creates the bucket when it does not exist yet.
func (m *MinIO) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("%w: make bucket %s: %v", ErrUpload, m.bucket, err)
	}
	return nil
}

// Put uploads body under key.
func (m *MinIO) Put(ctx context.Context, key string, body []byte, contentType string) (uri string, err error) {
	start := time.Now()
	defer func() { observe(m.Backend(), start, err) }()
	if key == "" {
		err = ErrEmptyKey
		return "", err
	}
	_, err = m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		err = fmt.Errorf("%w: s3://%s/%s: %v", ErrUpload, m.bucket, key, err)
		return "", err
	}
	return URI("s3", m.bucket, key), nil
}

// Backend names the sink.
func (m *MinIO) Backend() string { return "minio" }
