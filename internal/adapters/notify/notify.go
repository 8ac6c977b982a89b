// Package notify announces landed artifacts to downstream consumers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/okian/gridlake/pkg/metrics"
)

// Upload describes one landed artifact.
type Upload struct {
	RunID       string    `json:"run_id"`
	ResourceID  string    `json:"resource_id"`
	Year        int       `json:"year"`
	SinkURI     string    `json:"sink_uri"`
	RecordCount int       `json:"record_count"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Notifier publishes upload events.
type Notifier interface {
	Notify(ctx context.Context, u Upload) error
}

// SendMessageAPI is the subset of the SQS client used by the publisher.
type SendMessageAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQS publishes one JSON message per upload to a queue.
type SQS struct {
	client   SendMessageAPI
	queueURL string
}

// NewSQS loads the AWS configuration for region and creates a publisher for queueURL.
func NewSQS(ctx context.Context, region, queueURL string) (*SQS, error) {
	if queueURL == "" {
		return nil, ErrNoQueue
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewSQSWithClient(sqs.NewFromConfig(awsCfg), queueURL), nil
}

// NewSQSWithClient wraps an existing client.
func NewSQSWithClient(client SendMessageAPI, queueURL string) *SQS {
	return &SQS{client: client, queueURL: queueURL}
}

// Notify sends u as a JSON message.
func (s *SQS) Notify(ctx context.Context, u Upload) error {
	body, err := json.Marshal(u)
	if err != nil {
		metrics.RecordNotification("error")
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}
	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		metrics.RecordNotification("error")
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}
	metrics.RecordNotification("ok")
	return nil
}
