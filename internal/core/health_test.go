package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func probe(name string, err error) HealthProbe {
	return ProbeFunc{ProbeName: name, Fn: func(context.Context) error { return err }}
}

func runHealth(t *testing.T, probes ...HealthProbe) (int, healthResponse) {
	t.Helper()
	srv := newTestServer(t)
	srv.HealthProbes = probes

	w := httptest.NewRecorder()
	srv.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body healthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return w.Code, body
}

func TestHandleHealth_NoProbes(t *testing.T) {
	code, body := runHealth(t)
	if code != http.StatusOK || body.Status != "healthy" {
		t.Errorf("expected healthy 200, got %d %q", code, body.Status)
	}
}

func TestHandleHealth_AllHealthy(t *testing.T) {
	code, body := runHealth(t, probe("database", nil), probe("row_source", nil))
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(body.Components) != 2 {
		t.Errorf("expected 2 components, got %d", len(body.Components))
	}
}

func TestHandleHealth_OneFails(t *testing.T) {
	code, body := runHealth(t, probe("database", errors.New("connection refused")), probe("row_source", nil))
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	if body.Components["database"].Message != "connection refused" {
		t.Errorf("unexpected database component: %+v", body.Components["database"])
	}
	if body.Components["row_source"].Status != "healthy" {
		t.Errorf("expected row_source healthy, got %+v", body.Components["row_source"])
	}
}

func TestHandleHealth_PanicIsUnhealthy(t *testing.T) {
	p := ProbeFunc{ProbeName: "flaky", Fn: func(context.Context) error { panic("boom") }}
	code, body := runHealth(t, p)
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	if body.Components["flaky"].Message != "probe panicked: boom" {
		t.Errorf("unexpected message: %q", body.Components["flaky"].Message)
	}
}

func TestHandleHealth_Timeout(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the health deadline")
	}
	// Ignores its context so that it reports after the deadline.
	slow := ProbeFunc{ProbeName: "slow", Fn: func(context.Context) error {
		time.Sleep(healthCheckTimeout + 500*time.Millisecond)
		return nil
	}}
	code, body := runHealth(t, slow)
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	if body.Components["slow"].Message != "health check timed out" {
		t.Errorf("unexpected message: %q", body.Components["slow"].Message)
	}
}
