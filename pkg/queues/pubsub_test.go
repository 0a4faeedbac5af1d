package queues

import (
	"context"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
)

func TestPubSubTopicSend(t *testing.T) {
	// Use the in-memory Pub/Sub emulator.
	server := pstest.NewServer()
	defer server.Close()
	t.Setenv("PUBSUB_EMULATOR_HOST", server.Addr)

	ctx := context.Background()
	client, err := pubsub.NewClient(ctx, "test-project")
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	defer client.Close()
	if _, err := client.CreateTopic(ctx, "topic-1"); err != nil {
		t.Fatalf("create topic: %v", err)
	}

	topic, err := NewPubSub(ctx, "events", PubSubOptions{ProjectID: "test-project", Topic: "topic-1"}, nil)
	if err != nil {
		t.Fatalf("NewPubSub: %v", err)
	}
	defer topic.Close()

	id, err := topic.Send(ctx, []byte("hello"), map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if id == "" {
		t.Fatalf("expected message id")
	}

	msgs := server.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message on server, got %d", len(msgs))
	}
	if string(msgs[0].Data) != "hello" || msgs[0].Attributes["k"] != "v" {
		t.Fatalf("unexpected message %#v", msgs[0])
	}
}

func TestPubSubTopicSendMissingTopic(t *testing.T) {
	server := pstest.NewServer()
	defer server.Close()
	t.Setenv("PUBSUB_EMULATOR_HOST", server.Addr)

	ctx := context.Background()
	topic, err := NewPubSub(ctx, "events", PubSubOptions{ProjectID: "test-project", Topic: "missing"}, nil)
	if err != nil {
		t.Fatalf("NewPubSub: %v", err)
	}
	defer topic.Close()

	if _, err := topic.Send(ctx, []byte("hello"), nil); err == nil {
		t.Fatalf("expected error publishing to a missing topic")
	}
}
