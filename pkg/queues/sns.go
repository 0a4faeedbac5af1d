package queues

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/samvad-hq/lnk/pkg/logging"
)

// SNSOptions configures an SNS topic wrapper.
type SNSOptions struct {
	AWSOptions `mapstructure:",squash"`
	TopicARN   string `mapstructure:"topic_arn" validate:"required"`
}

type snsClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSTopic implements Queue for AWS SNS.
type SNSTopic struct {
	name     string
	topicARN string
	client   snsClient
	log      Logger
}

// NewSNS creates an SNS wrapper for the configured topic.
func NewSNS(ctx context.Context, name string, opts SNSOptions, log Logger) (*SNSTopic, error) {
	awsCfg, err := loadAWSConfig(ctx, opts.AWSOptions)
	if err != nil {
		return nil, err
	}

	client := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})
	return &SNSTopic{
		name:     name,
		topicARN: opts.TopicARN,
		client:   client,
		log:      logging.Ensure(log),
	}, nil
}

func (s *SNSTopic) Name() string { return s.name }
func (s *SNSTopic) Type() string { return TypeSNS }
func (s *SNSTopic) Close() error { return nil }

// Send publishes body to the topic.
func (s *SNSTopic) Send(ctx context.Context, body []byte, attrs map[string]string) (string, error) {
	input := &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(string(body)),
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

	out, err := s.client.Publish(ctx, input)
	if err != nil {
		s.log.ErrorObj("sns publish failed", "queue_sns_error", map[string]any{
			"topic": s.name,
			"error": err.Error(),
		})
		return "", fmt.Errorf("publish to sns: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}
