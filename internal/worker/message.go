// Package worker runs narrative requests delivered over SQS and publishes
// the resulting payloads to a results queue.
package worker

import (
	"transitinsight/internal/insight"
	"transitinsight/internal/types"
)

// NarrativeRequest is the body of a request message.
type NarrativeRequest struct {
	// RequestID is echoed on the result. One is generated when absent.
	RequestID string        `json:"request_id,omitempty" validate:"omitempty,max=128"`
	Sections  []string      `json:"sections" validate:"required,min=1,dive,required"`
	Filters   types.Filters `json:"filters"`
}

// NarrativeResult is the body of a result message. Exactly one of Payloads
// and Error is set.
type NarrativeResult struct {
	RequestID string                      `json:"request_id"`
	TraceID   string                      `json:"trace_id"`
	Payloads  []*insight.NarrativePayload `json:"payloads,omitempty"`
	Error     *ResultError                `json:"error,omitempty"`
}

// ResultError reports a request that cannot succeed on retry.
type ResultError struct {
	Code    types.ErrorCode `json:"code"`
	Message string          `json:"message"`
}
