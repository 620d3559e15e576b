// Package telemetry emits narrative run metrics.
package telemetry

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"transitinsight/internal/types"
)

// Metric and dimension names.
const (
	DefaultNamespace = "TransitInsight"

	MetricNarrativeRun = "NarrativeRun"
	MetricRulesFired   = "RulesFired"
	MetricAPILatency   = "APILatency"
	MetricAPIRequests  = "APIRequestCount"

	DimSection  = "Section"
	DimState    = "State"
	DimMethod   = "Method"
	DimEndpoint = "Endpoint"
	DimStatus   = "Status"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Recorder receives one observation per generated payload.
type Recorder interface {
	RecordRun(ctx context.Context, section string, state types.PayloadState, rulesFired int)
}

var _ Recorder = (*CloudWatchRecorder)(nil)

// CloudWatchRecorder publishes run outcomes to CloudWatch.
//
// Metrics emitted:
//   - NarrativeRun: Dims {Section, State}, one per payload
//   - RulesFired: Dims {Section}, number of rules that produced insights
type CloudWatchRecorder struct {
	client    CloudWatchClient
	namespace string
	logger    types.Logger
}

// NewCloudWatchRecorder creates a recorder publishing to namespace. An empty
// namespace falls back to DefaultNamespace.
func NewCloudWatchRecorder(client CloudWatchClient, namespace string, logger types.Logger) *CloudWatchRecorder {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &CloudWatchRecorder{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordRun emits both metrics in a single PutMetricData call. Failures are
// logged and never surface to the caller.
func (m *CloudWatchRecorder) RecordRun(ctx context.Context, section string, state types.PayloadState, rulesFired int) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(MetricNarrativeRun),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{
					{
						Name:  aws.String(DimSection),
						Value: aws.String(section),
					},
					{
						Name:  aws.String(DimState),
						Value: aws.String(string(state)),
					},
				},
			},
			{
				MetricName: aws.String(MetricRulesFired),
				Value:      aws.Float64(float64(rulesFired)),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{
					{
						Name:  aws.String(DimSection),
						Value: aws.String(section),
					},
				},
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record narrative run metric",
			"error", err.Error(),
			"section", section,
			"state", string(state),
		)
	}
}

// RecordRequest emits API latency and count for one HTTP request. It has
// no request context, so the call is bounded by its own short timeout.
func (m *CloudWatchRecorder) RecordRequest(method, endpoint, status string, duration time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	dims := []cwtypes.Dimension{
		{Name: aws.String(DimMethod), Value: aws.String(method)},
		{Name: aws.String(DimEndpoint), Value: aws.String(endpoint)},
		{Name: aws.String(DimStatus), Value: aws.String(status)},
	}
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(MetricAPILatency),
				Value:      aws.Float64(float64(duration.Milliseconds())),
				Unit:       cwtypes.StandardUnitMilliseconds,
				Dimensions: dims,
			},
			{
				MetricName: aws.String(MetricAPIRequests),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: dims,
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record request metric",
			"error", err.Error(),
			"endpoint", endpoint,
			"status", status,
		)
	}
}

// NopRecorder discards every observation.
type NopRecorder struct{}

// RecordRun does nothing.
func (NopRecorder) RecordRun(context.Context, string, types.PayloadState, int) {}

// Fanout forwards each observation to every recorder in order.
type Fanout []Recorder

// RecordRun implements Recorder.
func (f Fanout) RecordRun(ctx context.Context, section string, state types.PayloadState, rulesFired int) {
	for _, r := range f {
		r.RecordRun(ctx, section, state, rulesFired)
	}
}
