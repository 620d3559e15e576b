package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"transitinsight/internal/types"
)

type testNarrativeRequest struct {
	Section  string   `json:"section" validate:"required,field_name"`
	Sections []string `json:"sections" validate:"omitempty,max=3,dive,field_name"`
}

func TestValidName(t *testing.T) {
	valid := []string{"stop_density", "region", "imd_decile", "a1"}
	invalid := []string{"", "Stop", "1abc", "stop-density", "../etc", "a b"}

	for _, n := range valid {
		if !ValidName(n) {
			t.Errorf("expected %q to be valid", n)
		}
	}
	for _, n := range invalid {
		if ValidName(n) {
			t.Errorf("expected %q to be invalid", n)
		}
	}
}

func TestValidateFilters(t *testing.T) {
	tooMany := map[string][]string{}
	for i := 0; i <= MaxFilterDimensions; i++ {
		tooMany[fmt.Sprintf("dim_%d", i)] = []string{"x"}
	}

	tests := []struct {
		name    string
		filters map[string][]string
		wantErr bool
		bad     []string
	}{
		{name: "none", filters: nil},
		{name: "valid", filters: map[string][]string{"region": {"Wales", "London"}, "area_type": {"Urban"}}},
		{name: "longest value", filters: map[string][]string{"region": {strings.Repeat("x", MaxFilterValueLen)}}},
		{name: "value too long", filters: map[string][]string{"region": {strings.Repeat("x", MaxFilterValueLen+1)}}, wantErr: true, bad: []string{"region"}},
		{name: "empty value", filters: map[string][]string{"region": {""}}, wantErr: true, bad: []string{"region"}},
		{name: "no values", filters: map[string][]string{"region": {}}, wantErr: true, bad: []string{"region"}},
		{name: "sorted dimensions", filters: map[string][]string{"Zone": {"a"}, "Area": {"b"}, "region": {"c"}}, wantErr: true, bad: []string{"Area", "Zone"}},
		{name: "too many dimensions", filters: tooMany, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilters(tt.filters)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var appErr *types.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != types.ErrCodeValidationInvalidFilter {
				t.Errorf("code = %s, want %s", appErr.Code, types.ErrCodeValidationInvalidFilter)
			}
			if tt.bad == nil {
				if appErr.Details["max"] != MaxFilterDimensions {
					t.Errorf("details = %v, want max %d", appErr.Details, MaxFilterDimensions)
				}
				return
			}
			if got := appErr.Details["dimensions"]; !reflect.DeepEqual(got, tt.bad) {
				t.Errorf("dimensions = %v, want %v", got, tt.bad)
			}
		})
	}
}

func TestValidateStruct(t *testing.T) {
	v := NewValidator(testLogger())

	tests := []struct {
		name     string
		in       testNarrativeRequest
		wantCode types.ErrorCode
		field    string
	}{
		{name: "valid", in: testNarrativeRequest{Section: "stop_density", Sections: []string{"a", "b"}}},
		{name: "missing section", in: testNarrativeRequest{}, wantCode: types.ErrCodeValidationMissingField, field: "section"},
		{name: "bad section", in: testNarrativeRequest{Section: "Stop Density"}, wantCode: types.ErrCodeValidationInvalidBody, field: "section"},
		{name: "bad list item", in: testNarrativeRequest{Section: "ok", Sections: []string{"ok", "BAD"}}, wantCode: types.ErrCodeValidationInvalidBody, field: "sections[1]"},
		{name: "list too long", in: testNarrativeRequest{Section: "ok", Sections: []string{"a", "b", "c", "d"}}, wantCode: types.ErrCodeValidationInvalidBody, field: "sections"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(tt.in)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var appErr *types.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != tt.wantCode {
				t.Errorf("expected %s, got %s", tt.wantCode, appErr.Code)
			}
			fields, _ := appErr.Details["fields"].(map[string]any)
			if _, ok := fields[tt.field]; !ok {
				t.Errorf("expected field %q in details, got %v", tt.field, fields)
			}
		})
	}
}

func TestValidateStruct_NonStructIsInternal(t *testing.T) {
	v := NewValidator(testLogger())

	err := v.ValidateStruct(42)
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != types.ErrCodeInternalUnexpected {
		t.Errorf("expected internal error, got %s", appErr.Code)
	}
}
