package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"skysentry/internal/types"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)      {}
func (nopLogger) Error(string, ...any)     {}
func (nopLogger) Warn(string, ...any)      {}
func (nopLogger) With(...any) types.Logger { return nopLogger{} }

type mockSQS struct {
	inputs  []*sqs.SendMessageInput
	sendErr error
}

func (m *mockSQS) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	m.inputs = append(m.inputs, params)
	return &sqs.SendMessageOutput{}, nil
}

func TestSQSSinkShow(t *testing.T) {
	client := &mockSQS{}
	sink := NewSQSSink(client, "https://sqs.example/queue", nopLogger{})

	n := types.Notification{
		ID:       1002,
		Channel:  types.ChannelUrgent,
		Priority: types.PriorityHigh,
		Title:    "High UV levels",
		Body:     "UV index is 9.",
	}
	if err := sink.Show(context.Background(), n); err != nil {
		t.Fatalf("show: %v", err)
	}

	if len(client.inputs) != 1 {
		t.Fatalf("expected one send, got %d", len(client.inputs))
	}
	in := client.inputs[0]
	if *in.QueueUrl != "https://sqs.example/queue" {
		t.Errorf("queue url = %q", *in.QueueUrl)
	}

	var decoded types.Notification
	if err := json.Unmarshal([]byte(*in.MessageBody), &decoded); err != nil {
		t.Fatalf("body is not a notification: %v", err)
	}
	if decoded.ID != 1002 || decoded.Title != n.Title {
		t.Errorf("got %+v", decoded)
	}

	attr, ok := in.MessageAttributes["notification_id"]
	if !ok {
		t.Fatal("missing notification_id attribute")
	}
	if *attr.StringValue != "1002" {
		t.Errorf("attribute = %q, want 1002", *attr.StringValue)
	}
}

func TestSQSSinkShowSendFailure(t *testing.T) {
	client := &mockSQS{sendErr: fmt.Errorf("queue unavailable")}
	sink := NewSQSSink(client, "q", nopLogger{})

	err := sink.Show(context.Background(), types.Notification{ID: 1})
	if err == nil {
		t.Fatal("expected error from failed send")
	}
}
