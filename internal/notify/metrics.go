package notify

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"skysentry/internal/engine"
	"skysentry/internal/types"
)

// MetricNamespace is the CloudWatch namespace for engine metrics.
const MetricNamespace = "SkySentry/Engine"

// Metric and dimension names.
const (
	metricCycleDuration = "CycleDuration"
	metricCycleTimeout  = "CycleTimeout"
	metricAlertDispatch = "AlertDispatch"

	dimAlertType = "AlertType"
	dimResult    = "Result"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for
// testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics implements engine.Metrics by emitting to CloudWatch.
// Emission failures are logged and never affect the cycle outcome.
type CloudWatchMetrics struct {
	client CloudWatchClient
	logger types.Logger
}

var _ engine.Metrics = (*CloudWatchMetrics)(nil)

// NewCloudWatchMetrics creates a CloudWatchMetrics publisher.
func NewCloudWatchMetrics(client CloudWatchClient, logger types.Logger) *CloudWatchMetrics {
	return &CloudWatchMetrics{client: client, logger: logger}
}

// RecordCycle emits the cycle duration and, when the collection deadline
// elapsed, a timeout count.
func (m *CloudWatchMetrics) RecordCycle(ctx context.Context, duration time.Duration, timedOut bool) {
	data := []cwtypes.MetricDatum{
		{
			MetricName: aws.String(metricCycleDuration),
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
		},
	}
	if timedOut {
		data = append(data, cwtypes.MetricDatum{
			MetricName: aws.String(metricCycleTimeout),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
		})
	}
	m.put(ctx, data)
}

// RecordDispatch emits one AlertDispatch count with AlertType and Result
// (dispatched/suppressed) dimensions.
func (m *CloudWatchMetrics) RecordDispatch(ctx context.Context, alertType types.AlertType, suppressed bool) {
	result := "dispatched"
	if suppressed {
		result = "suppressed"
	}
	m.put(ctx, []cwtypes.MetricDatum{
		{
			MetricName: aws.String(metricAlertDispatch),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: []cwtypes.Dimension{
				{Name: aws.String(dimAlertType), Value: aws.String(string(alertType))},
				{Name: aws.String(dimResult), Value: aws.String(result)},
			},
		},
	})
}

func (m *CloudWatchMetrics) put(ctx context.Context, data []cwtypes.MetricDatum) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(MetricNamespace),
		MetricData: data,
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to emit engine metrics", "error", err)
	}
}
