package core

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// healthCheckTimeout is the maximum time allowed for all health probes to complete.
// If any probe exceeds this deadline, the health check returns 503 Service Unavailable.
const healthCheckTimeout = 2 * time.Second

// HealthProbe defines the interface for a subsystem health check, such as
// the database pool or the row-source breaker.
type HealthProbe interface {
	// Name returns a human-readable identifier for the probe (e.g., "database").
	Name() string

	// Check performs the health check against the subsystem.
	// It should respect the context deadline and return an error if the subsystem
	// is unhealthy or unreachable.
	Check(ctx context.Context) error
}

// ProbeFunc adapts a function to HealthProbe.
type ProbeFunc struct {
	ProbeName string
	Fn        func(ctx context.Context) error
}

// Name implements HealthProbe.
func (p ProbeFunc) Name() string { return p.ProbeName }

// Check implements HealthProbe.
func (p ProbeFunc) Check(ctx context.Context) error { return p.Fn(ctx) }

// componentStatus represents the health state of a single subsystem.
type componentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthResponse is the JSON response body for the health check endpoint.
type healthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components,omitempty"`
}

// HandleHealth runs every registered probe concurrently under a shared
// 2-second deadline. It answers 200 when all probes pass and 503 when any
// probe fails or has not reported by the deadline.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if len(s.HealthProbes) == 0 {
		JSON(w, r, http.StatusOK, healthResponse{Status: "healthy"})
		return
	}

	// Buffered so that late probes never block after the deadline.
	type outcome struct {
		idx int
		err error
	}
	results := make(chan outcome, len(s.HealthProbes))
	for i, probe := range s.HealthProbes {
		go func() {
			results <- outcome{idx: i, err: runProbe(ctx, probe)}
		}()
	}

	errs := make([]error, len(s.HealthProbes))
	reported := make([]bool, len(s.HealthProbes))
collect:
	for range s.HealthProbes {
		select {
		case o := <-results:
			errs[o.idx] = o.err
			reported[o.idx] = true
		case <-ctx.Done():
			break collect
		}
	}

	resp := healthResponse{Status: "healthy", Components: make(map[string]componentStatus, len(s.HealthProbes))}
	status := http.StatusOK
	for i, probe := range s.HealthProbes {
		cs := componentStatus{Status: "healthy"}
		switch {
		case !reported[i]:
			cs = componentStatus{Status: "unhealthy", Message: "health check timed out"}
		case errs[i] != nil:
			cs = componentStatus{Status: "unhealthy", Message: errs[i].Error()}
		}
		if cs.Status != "healthy" {
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}
		resp.Components[probe.Name()] = cs
	}
	JSON(w, r, status, resp)
}

// runProbe converts a probe panic into an error.
func runProbe(ctx context.Context, p HealthProbe) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			err = fmt.Errorf("probe panicked: %v", rvr)
		}
	}()
	return p.Check(ctx)
}
