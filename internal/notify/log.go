// Package notify provides the production implementations of the
// notification-presentation surface and the engine's telemetry: a structured
// log sink for local runs, an SQS publisher that forwards notifications to
// the mobile push gateway, and CloudWatch metrics for cycle observability.
package notify

import (
	"context"

	"skysentry/internal/types"
)

// LogSink implements the notification surface by logging the payload. Used
// in local development and as a safe default when no queue is configured.
type LogSink struct {
	logger types.Logger
}

var _ types.NotificationSink = (*LogSink)(nil)

// NewLogSink creates a LogSink.
func NewLogSink(logger types.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Show logs the notification.
func (s *LogSink) Show(_ context.Context, n types.Notification) error {
	s.logger.Info("notification",
		"id", n.ID,
		"channel", string(n.Channel),
		"priority", string(n.Priority),
		"title", n.Title,
		"body", n.Body,
	)
	return nil
}
