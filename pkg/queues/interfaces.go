package queues

import (
	"context"

	"github.com/samvad-hq/lnk/pkg/logging"
)

// Supported queue wrapper types.
const (
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypePubSub = "pubsub"
)

// Queue sends opaque messages to a broker destination configured under the `queues` section.
type Queue interface {
	Name() string
	Type() string
	// Send delivers body with string attributes and returns the broker-assigned message id.
	Send(ctx context.Context, body []byte, attrs map[string]string) (string, error)
	Close() error
}

// Logger is the shared structured logging surface.
type Logger = logging.Logger
