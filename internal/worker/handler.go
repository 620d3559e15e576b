package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"transitinsight/internal/core"
	"transitinsight/internal/insight"
	"transitinsight/internal/types"
)

// Narrator produces payloads for a list of sections.
type Narrator interface {
	Report(ctx context.Context, sectionIDs []string, filters types.Filters) ([]*insight.NarrativePayload, error)
}

// Publisher delivers results downstream.
type Publisher interface {
	Publish(ctx context.Context, res NarrativeResult) error
}

// Handler holds the dependencies for the narrative worker Lambda handler.
type Handler struct {
	narrator    Narrator
	publisher   Publisher
	maxSections int
	validate    *validator.Validate
	logger      types.Logger
}

// NewHandler creates a Handler. maxSections <= 0 disables the size cap.
func NewHandler(narrator Narrator, publisher Publisher, maxSections int, logger types.Logger) *Handler {
	return &Handler{
		narrator:    narrator,
		publisher:   publisher,
		maxSections: maxSections,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger,
	}
}

// Handle processes an SQS event. Each message is processed independently
// and Lambda partial batch responses report only the retryable failures.
func (h *Handler) Handle(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	response := events.SQSEventResponse{}

	for _, record := range sqsEvent.Records {
		if err := h.processMessage(ctx, record); err != nil {
			h.logger.Error("failed to process SQS message",
				"message_id", record.MessageId,
				"error", err.Error(),
			)
			// Report partial failure so SQS retries only this message.
			response.BatchItemFailures = append(response.BatchItemFailures,
				events.SQSBatchItemFailure{ItemIdentifier: record.MessageId},
			)
		}
	}

	return response, nil
}

// processMessage returns an error only when a retry could succeed. Requests
// that are malformed or name unknown sections are answered with an error
// result and acknowledged.
func (h *Handler) processMessage(ctx context.Context, record events.SQSMessage) error {
	var req NarrativeRequest
	if err := json.Unmarshal([]byte(record.Body), &req); err != nil {
		h.logger.Error("failed to unmarshal narrative request",
			"message_id", record.MessageId,
			"error", err.Error(),
		)
		// Permanent parse failure; there is no request id to answer.
		return nil
	}
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}
	traceID := uuid.New().String()

	logger := h.logger.With(
		"request_id", req.RequestID,
		"trace_id", traceID,
		"message_id", record.MessageId,
	)

	result := NarrativeResult{RequestID: req.RequestID, TraceID: traceID}

	if err := h.check(req); err != nil {
		logger.Warn("rejecting narrative request", "error", err.Error())
		result.Error = resultError(err)
		return h.publisher.Publish(ctx, result)
	}

	logger.Info("processing narrative request", "sections", len(req.Sections))

	payloads, err := h.narrator.Report(ctx, req.Sections, req.Filters)
	if err != nil {
		if retryable(err) {
			return fmt.Errorf("narrate: %w", err)
		}
		logger.Warn("narrative request failed", "error", err.Error())
		result.Error = resultError(err)
		return h.publisher.Publish(ctx, result)
	}

	result.Payloads = payloads
	return h.publisher.Publish(ctx, result)
}

func (h *Handler) check(req NarrativeRequest) error {
	if err := h.validate.Struct(req); err != nil {
		return types.NewAppError(types.ErrCodeValidationMissingField, "invalid narrative request", err)
	}
	if h.maxSections > 0 && len(req.Sections) > h.maxSections {
		return types.NewAppErrorWithDetails(types.ErrCodeValidationTooMany,
			"too many sections requested", nil,
			map[string]any{"max": h.maxSections, "requested": len(req.Sections)})
	}
	return core.ValidateFilters(req.Filters.Dimensions)
}

// retryable reports whether err is transient. Client errors and wiring
// mistakes fail the same way on every attempt.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		return true
	}
	if appErr.Code.IsConfigError() {
		return false
	}
	return appErr.HTTPStatus() >= 500
}

func resultError(err error) *ResultError {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return &ResultError{Code: appErr.Code, Message: appErr.Message}
	}
	return &ResultError{Code: types.ErrCodeInternalUnexpected, Message: err.Error()}
}
