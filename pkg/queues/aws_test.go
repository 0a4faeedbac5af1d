package queues

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/samvad-hq/lnk/pkg/logging"
)

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
}

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-456")}, nil
}

func TestSQSQueueSendSuccess(t *testing.T) {
	client := &fakeSQSClient{}
	q := &SQSQueue{
		name:     "jobs",
		queueURL: "https://example.com/queue",
		client:   client,
		log:      logging.Nop{},
	}

	id, err := q.Send(context.Background(), []byte(`{"job":1}`), map[string]string{"source": "cli", "empty": ""})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if id != "msg-123" {
		t.Fatalf("message id = %q", id)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.QueueUrl); got != "https://example.com/queue" {
		t.Fatalf("QueueUrl = %s", got)
	}
	if got := aws.ToString(client.input.MessageBody); got != `{"job":1}` {
		t.Fatalf("MessageBody = %s", got)
	}
	attr, ok := client.input.MessageAttributes["source"]
	if !ok || aws.ToString(attr.StringValue) != "cli" {
		t.Fatalf("source attribute missing or wrong: %#v", attr)
	}
	if aws.ToString(attr.DataType) != "String" {
		t.Fatalf("DataType should be String, got %#v", attr.DataType)
	}
	if _, ok := client.input.MessageAttributes["empty"]; ok {
		t.Fatalf("empty attribute should be skipped")
	}
}

func TestSQSQueueSendNoAttributes(t *testing.T) {
	client := &fakeSQSClient{}
	q := &SQSQueue{name: "jobs", queueURL: "https://example.com/queue", client: client, log: logging.Nop{}}

	if _, err := q.Send(context.Background(), []byte("hi"), nil); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if client.input.MessageAttributes != nil {
		t.Fatalf("expected no message attributes, got %#v", client.input.MessageAttributes)
	}
}

func TestSQSQueueSendError(t *testing.T) {
	boom := errors.New("boom")
	q := &SQSQueue{name: "jobs", queueURL: "https://example.com/queue", client: &fakeSQSClient{err: boom}, log: logging.Nop{}}

	_, err := q.Send(context.Background(), []byte("hi"), nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
}

func TestSNSTopicSendSuccess(t *testing.T) {
	client := &fakeSNSClient{}
	topic := &SNSTopic{name: "alerts", topicARN: "arn:aws:sns:::topic", client: client, log: logging.Nop{}}

	id, err := topic.Send(context.Background(), []byte("disk full"), map[string]string{"severity": "high"})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if id != "msg-456" {
		t.Fatalf("message id = %q", id)
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:::topic" {
		t.Fatalf("TopicArn = %s", got)
	}
	if got := aws.ToString(client.input.Message); got != "disk full" {
		t.Fatalf("Message = %s", got)
	}
	attr := client.input.MessageAttributes["severity"]
	if aws.ToString(attr.StringValue) != "high" || aws.ToString(attr.DataType) != "String" {
		t.Fatalf("severity attribute wrong: %#v", attr)
	}
}

func TestSNSTopicSendError(t *testing.T) {
	topic := &SNSTopic{name: "alerts", topicARN: "arn", client: &fakeSNSClient{err: errors.New("boom")}, log: logging.Nop{}}

	if _, err := topic.Send(context.Background(), []byte("x"), nil); err == nil {
		t.Fatalf("expected error from Send")
	}
}

func TestNewSQSWithStaticCredentials(t *testing.T) {
	q, err := NewSQS(context.Background(), "jobs", SQSOptions{
		AWSOptions: AWSOptions{
			Region:          "us-east-1",
			AccessKeyID:     "AKIDEXAMPLE",
			SecretAccessKey: "secret",
			Endpoint:        "http://localhost:4566",
		},
		QueueURL: "http://localhost:4566/000000000000/jobs",
	}, nil)
	if err != nil {
		t.Fatalf("NewSQS: %v", err)
	}
	if q.Name() != "jobs" || q.Type() != TypeSQS {
		t.Fatalf("unexpected identity %s/%s", q.Name(), q.Type())
	}
	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNewSNSWithStaticCredentials(t *testing.T) {
	topic, err := NewSNS(context.Background(), "alerts", SNSOptions{
		AWSOptions: AWSOptions{Region: "eu-west-1", AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "secret"},
		TopicARN:   "arn:aws:sns:eu-west-1:000000000000:alerts",
	}, nil)
	if err != nil {
		t.Fatalf("NewSNS: %v", err)
	}
	if topic.Type() != TypeSNS {
		t.Fatalf("Type = %s", topic.Type())
	}
}
