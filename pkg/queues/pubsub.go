package queues

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"github.com/samvad-hq/lnk/pkg/logging"
)

// PubSubOptions configures a Google Cloud Pub/Sub topic wrapper.
// PUBSUB_EMULATOR_HOST is honoured by the client library.
type PubSubOptions struct {
	ProjectID       string `mapstructure:"project_id" validate:"required"`
	Topic           string `mapstructure:"topic" validate:"required"`
	CredentialsFile string `mapstructure:"credentials_file"`
	Endpoint        string `mapstructure:"endpoint"`
}

// PubSubTopic implements Queue for Pub/Sub.
type PubSubTopic struct {
	name   string
	client *pubsub.Client
	topic  *pubsub.Topic
	log    Logger
}

// NewPubSub creates a Pub/Sub client bound to one topic.
func NewPubSub(ctx context.Context, name string, opts PubSubOptions, log Logger) (*PubSubTopic, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	client, err := pubsub.NewClient(ctx, opts.ProjectID, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return &PubSubTopic{
		name:   name,
		client: client,
		topic:  client.Topic(opts.Topic),
		log:    logging.Ensure(log),
	}, nil
}

func (p *PubSubTopic) Name() string { return p.name }
func (p *PubSubTopic) Type() string { return TypePubSub }

// Send publishes body and waits for the server-assigned id.
func (p *PubSubTopic) Send(ctx context.Context, body []byte, attrs map[string]string) (string, error) {
	msg := &pubsub.Message{Data: body}
	if len(attrs) > 0 {
		msg.Attributes = make(map[string]string, len(attrs))
		stringAttributes(attrs, func(k, v string) { msg.Attributes[k] = v })
	}

	id, err := p.topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		p.log.ErrorObj("pubsub publish failed", "queue_pubsub_error", map[string]any{
			"topic": p.name,
			"error": err.Error(),
		})
		return "", fmt.Errorf("publish to pubsub: %w", err)
	}
	return id, nil
}

// Close flushes pending publishes and closes the client.
func (p *PubSubTopic) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	p.topic.Stop()
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
