package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"skysentry/internal/types"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSSink implements the notification surface by publishing the payload to
// the push-gateway queue; the gateway delivers it to the device. The
// notification ID rides along as a message attribute so the gateway can
// replace a prior push for the same ID instead of stacking duplicates.
type SQSSink struct {
	client   SQSSender
	queueURL string
	logger   types.Logger
}

var _ types.NotificationSink = (*SQSSink)(nil)

// NewSQSSink creates an SQSSink targeting the given queue.
func NewSQSSink(client SQSSender, queueURL string, logger types.Logger) *SQSSink {
	return &SQSSink{client: client, queueURL: queueURL, logger: logger}
}

// Show serializes the notification and sends it to the queue. Dispatch is
// fire-and-forget beyond the send itself succeeding.
func (s *SQSSink) Show(ctx context.Context, n types.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notify: marshaling notification %d: %w", n.ID, err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"notification_id": {
				DataType:    aws.String("Number"),
				StringValue: aws.String(fmt.Sprintf("%d", n.ID)),
			},
		},
	}

	if _, err := s.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("notify: sending notification %d to %s: %w", n.ID, s.queueURL, err)
	}

	s.logger.Info("notification published",
		"notification_id", n.ID,
		"channel", string(n.Channel),
		"priority", string(n.Priority),
	)
	return nil
}
