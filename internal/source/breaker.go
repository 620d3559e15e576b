package source

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"transitinsight/internal/types"
)

// Loader is the row-loading contract shared by every source.
type Loader interface {
	Rows(ctx context.Context, dataset string) ([]types.Row, error)
}

// BreakerSettings configures Breaker.
type BreakerSettings struct {
	Name string
	// FailureThreshold trips the breaker once consecutive failures exceed it.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// Breaker guards a Loader with a circuit breaker so that a failing database
// is not hammered by every request.
type Breaker struct {
	next    Loader
	breaker *gobreaker.CircuitBreaker[[]types.Row]
}

// NewBreaker wraps next. Not-found and validation failures are caller
// errors and do not count against the breaker.
func NewBreaker(next Loader, s BreakerSettings, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}
	if s.Name == "" {
		s.Name = "row-source"
	}
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	threshold := s.FailureThreshold

	cb := gobreaker.NewCircuitBreaker[[]types.Row](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isCallerError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("row source breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return &Breaker{next: next, breaker: cb}
}

// Rows loads through the breaker. An open breaker is reported as an
// upstream-unavailable error without touching the wrapped source.
func (b *Breaker) Rows(ctx context.Context, dataset string) ([]types.Row, error) {
	rows, err := b.breaker.Execute(func() ([]types.Row, error) {
		return b.next.Rows(ctx, dataset)
	})
	if err == nil {
		return rows, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, types.NewAppError(types.ErrCodeUpstreamUnavailable,
			"row source temporarily unavailable", err)
	}
	return nil, err
}

// State exposes the breaker state for health reporting.
func (b *Breaker) State() gobreaker.State {
	return b.breaker.State()
}

func isCallerError(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		return false
	}
	status := appErr.HTTPStatus()
	return status >= 400 && status < 500
}
