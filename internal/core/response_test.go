package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"transitinsight/internal/types"
)

func TestJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	JSON(w, r, http.StatusOK, APIResponse{Data: map[string]string{"section": "stop_density"}})

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", ct)
	}

	var body APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	dataMap, ok := body.Data.(map[string]any)
	if !ok {
		t.Fatalf("expected data to be a map, got %T", body.Data)
	}
	if dataMap["section"] != "stop_density" {
		t.Errorf("expected section=stop_density, got %v", dataMap["section"])
	}
}

func TestJSON_MarshalFailureFallsBackTo500(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	JSON(w, r, http.StatusOK, map[string]any{"bad": make(chan int)})

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "failed to marshal response") {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestError_AppError(t *testing.T) {
	tests := []struct {
		code   types.ErrorCode
		status int
	}{
		{types.ErrCodeValidationInvalidFilter, http.StatusBadRequest},
		{types.ErrCodeNotFoundSection, http.StatusNotFound},
		{types.ErrCodeUpstreamUnavailable, http.StatusBadGateway},
		{types.ErrCodeConfigMissingTemplate, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r = r.WithContext(types.WithRequestID(r.Context(), "req-42"))

			err := types.NewAppErrorWithDetails(tt.code, "something failed", errors.New("secret detail"),
				map[string]any{"section": "x"})
			Error(w, r, err)

			if w.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, w.Code)
			}
			var body APIErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != string(tt.code) {
				t.Errorf("expected code %s, got %s", tt.code, body.Error.Code)
			}
			if body.Error.RequestID != "req-42" {
				t.Errorf("expected request id req-42, got %q", body.Error.RequestID)
			}
			if strings.Contains(w.Body.String(), "secret detail") {
				t.Error("wrapped error leaked to client")
			}
		})
	}
}

func TestError_GenericErrorIsHidden(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	Error(w, r, errors.New("pq: password authentication failed"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Error("generic error message leaked to client")
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Sections []string `json:"sections"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
		wantMsg string
	}{
		{name: "valid", body: `{"sections":["stop_density"]}`},
		{name: "empty body", body: ``, wantErr: true, wantMsg: "must not be empty"},
		{name: "syntax error", body: `{"sections":`, wantErr: true},
		{name: "unknown field", body: `{"sections":[],"extra":1}`, wantErr: true, wantMsg: "unknown field"},
		{name: "wrong type", body: `{"sections":"stop_density"}`, wantErr: true, wantMsg: "invalid value"},
		{name: "two values", body: `{"sections":[]} {"sections":[]}`, wantErr: true, wantMsg: "single JSON object"},
		{name: "too large", body: `{"sections":["` + strings.Repeat("a", maxRequestBodySize) + `"]}`, wantErr: true, wantMsg: "1MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var dst payload
			err := DecodeJSON(w, r, &dst)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(dst.Sections) != 1 {
					t.Errorf("expected 1 section, got %v", dst.Sections)
				}
				return
			}

			var appErr *types.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != types.ErrCodeValidationInvalidJSON {
				t.Errorf("expected %s, got %s", types.ErrCodeValidationInvalidJSON, appErr.Code)
			}
			if tt.wantMsg != "" && !strings.Contains(appErr.Message, tt.wantMsg) {
				t.Errorf("expected message containing %q, got %q", tt.wantMsg, appErr.Message)
			}
		})
	}
}

func TestCachedJSON_ETagRoundTrip(t *testing.T) {
	data := APIResponse{Data: map[string]string{"section": "stop_density"}}

	w := httptest.NewRecorder()
	CachedJSON(w, httptest.NewRequest(http.MethodGet, "/", nil), data)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	tag := w.Header().Get("ETag")
	if len(tag) != 34 || tag[0] != '"' || tag[33] != '"' {
		t.Fatalf("unexpected ETag %q", tag)
	}
	if tag != ETag(w.Body.Bytes()) {
		t.Errorf("ETag does not match body digest")
	}

	tests := []struct {
		name        string
		ifNoneMatch string
		want        int
	}{
		{"exact", tag, http.StatusNotModified},
		{"weak", "W/" + tag, http.StatusNotModified},
		{"list", `"other", ` + tag, http.StatusNotModified},
		{"wildcard", "*", http.StatusNotModified},
		{"stale", `"0000"`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("If-None-Match", tt.ifNoneMatch)
			w := httptest.NewRecorder()
			CachedJSON(w, r, data)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
			if tt.want == http.StatusNotModified && w.Body.Len() != 0 {
				t.Errorf("304 must not carry a body, got %q", w.Body.String())
			}
		})
	}
}

func TestETag_DiffersByContent(t *testing.T) {
	if ETag([]byte(`{"a":1}`)) == ETag([]byte(`{"a":2}`)) {
		t.Error("distinct bodies produced the same ETag")
	}
}
