package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"transitinsight/internal/types"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// ResultPublisher sends NarrativeResults to the results queue.
type ResultPublisher struct {
	client   SQSSender
	queueURL string
	logger   types.Logger
}

// NewResultPublisher creates a publisher targeting queueURL.
func NewResultPublisher(client SQSSender, queueURL string, logger types.Logger) *ResultPublisher {
	return &ResultPublisher{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
	}
}

// Publish serializes the result and sends it with request_id and outcome
// message attributes so consumers can filter without parsing the body.
func (p *ResultPublisher) Publish(ctx context.Context, res NarrativeResult) error {
	body, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("worker: failed to marshal NarrativeResult: %w", err)
	}

	outcome := "ok"
	if res.Error != nil {
		outcome = string(res.Error.Code)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
			"request_id": {
				DataType:    aws.String("String"),
				StringValue: aws.String(res.RequestID),
			},
			"outcome": {
				DataType:    aws.String("String"),
				StringValue: aws.String(outcome),
			},
		},
	}

	if _, err := p.client.SendMessage(ctx, input); err != nil {
		return types.NewAppError(types.ErrCodeUpstreamQueue,
			fmt.Sprintf("failed to send result to %s", p.queueURL), err)
	}

	p.logger.Info("narrative result published",
		"request_id", res.RequestID,
		"trace_id", res.TraceID,
		"outcome", outcome,
		"payloads", len(res.Payloads),
	)
	return nil
}
