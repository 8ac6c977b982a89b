package sink

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3PutAPI is the subset of the S3 client used by the sink.
type S3PutAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 lands artifacts in an S3 bucket.
type S3 struct {
	client S3PutAPI
	bucket string
}

// S3Config holds the connection settings of the S3 sink.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, for S3-compatible stores
	AccessKeyID     string // optional; the default credential chain is used when empty
	SecretAccessKey string
}

// NewS3 loads the AWS configuration and creates an S3 sink.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, ErrNoBucket
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3WithClient(client, cfg.Bucket), nil
}

// NewS3WithClient wraps an existing client.
func NewS3WithClient(client S3PutAPI, bucket string) *S3 {
	return &S3{client: client, bucket: bucket}
}

// Put uploads body under key.
func (s *S3) Put(ctx context.Context, key string, body []byte, contentType string) (uri string, err error) {
	start := time.Now()
	defer func() { observe(s.Backend(), start, err) }()
	if key == "" {
		err = ErrEmptyKey
		return "", err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		err = fmt.Errorf("%w: s3://%s/%s: %v", ErrUpload, s.bucket, key, err)
		return "", err
	}
	return URI("s3", s.bucket, key), nil
}

// Backend names the sink.
func (s *S3) Backend() string { return "s3" }
