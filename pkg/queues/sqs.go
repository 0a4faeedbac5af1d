package queues

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/samvad-hq/lnk/pkg/logging"
)

// SQSOptions configures an SQS queue wrapper.
type SQSOptions struct {
	AWSOptions `mapstructure:",squash"`
	QueueURL   string `mapstructure:"queue_url" validate:"required,url"`
}

// sqsClient defines the minimal subset of the SQS client used by SQSQueue.
type sqsClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSQueue implements Queue for AWS SQS.
type SQSQueue struct {
	name     string
	queueURL string
	client   sqsClient
	log      Logger
}

// NewSQS creates an SQS wrapper for the configured queue URL.
func NewSQS(ctx context.Context, name string, opts SQSOptions, log Logger) (*SQSQueue, error) {
	awsCfg, err := loadAWSConfig(ctx, opts.AWSOptions)
	if err != nil {
		return nil, err
	}

	client := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})
	return &SQSQueue{
		name:     name,
		queueURL: opts.QueueURL,
		client:   client,
		log:      logging.Ensure(log),
	}, nil
}

func (s *SQSQueue) Name() string { return s.name }
func (s *SQSQueue) Type() string { return TypeSQS }
func (s *SQSQueue) Close() error { return nil }

// Send posts body to the queue.
func (s *SQSQueue) Send(ctx context.Context, body []byte, attrs map[string]string) (string, error) {
	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
	}
	if len(attrs) > 0 {
		input.MessageAttributes = make(map[string]types.MessageAttributeValue, len(attrs))
		stringAttributes(attrs, func(k, v string) {
			input.MessageAttributes[k] = types.MessageAttributeValue{
				DataType:    aws.String("String"),
				StringValue: aws.String(v),
			}
		})
	}

	out, err := s.client.SendMessage(ctx, input)
	if err != nil {
		s.log.ErrorObj("sqs send failed", "queue_sqs_error", map[string]any{
			"queue": s.name,
			"error": err.Error(),
		})
		return "", fmt.Errorf("send message to sqs: %w", err)
	}
	id := aws.ToString(out.MessageId)
	s.log.DebugObj("sqs message delivered", "queue_sqs_delivery", map[string]any{
		"queue":      s.name,
		"message_id": id,
	})
	return id, nil
}
