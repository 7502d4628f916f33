package observability

import (
	"context"
	"time"

	"bettersaved/application/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// CloudWatchAPI is the subset of the CloudWatch client used for business metrics
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics publishes ingestion metrics to CloudWatch
type Metrics struct {
	namespace string
	client    CloudWatchAPI
	logger    *zap.Logger
	now       func() time.Time
}

var _ ports.Metrics = (*Metrics)(nil)

// NewMetrics creates a new metrics instance. A nil client disables publishing.
func NewMetrics(namespace string, client CloudWatchAPI, logger *zap.Logger) *Metrics {
	return &Metrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
		now:       time.Now,
	}
}

// RecordIngestion records the latency and count of one item outcome
func (m *Metrics) RecordIngestion(ctx context.Context, category, outcome string, duration time.Duration) {
	dims := []types.Dimension{
		{Name: aws.String("Category"), Value: aws.String(category)},
		{Name: aws.String("Outcome"), Value: aws.String(outcome)},
	}
	m.put(ctx,
		m.datum("IngestionLatency", dims, float64(duration.Milliseconds()), types.StandardUnitMilliseconds),
		m.datum("IngestionCount", dims, 1, types.StandardUnitCount),
	)
}

// RecordGroup records the size and failures of a finalized media group
func (m *Metrics) RecordGroup(ctx context.Context, uniqueItems, failed int) {
	m.put(ctx,
		m.datum("MediaGroupItems", nil, float64(uniqueItems), types.StandardUnitCount),
		m.datum("MediaGroupFailures", nil, float64(failed), types.StandardUnitCount),
	)
}

// RecordError records error occurrences by AppError type
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	m.put(ctx, m.datum("Errors", []types.Dimension{
		{Name: aws.String("ErrorType"), Value: aws.String(errorType)},
	}, 1, types.StandardUnitCount))
}

func (m *Metrics) datum(name string, dims []types.Dimension, value float64, unit types.StandardUnit) types.MetricDatum {
	return types.MetricDatum{
		MetricName: aws.String(name),
		Dimensions: dims,
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(m.now()),
	}
}

// put never fails the caller; metrics are best effort
func (m *Metrics) put(ctx context.Context, data ...types.MetricDatum) {
	if m.client == nil {
		return
	}
	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	})
	if err != nil {
		m.logger.Warn("Failed to send metrics", zap.Error(err), zap.String("namespace", m.namespace))
	}
}
