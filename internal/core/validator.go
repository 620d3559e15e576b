package core

import (
	"errors"
	"log/slog"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"transitinsight/internal/types"
)

// fieldNamePattern matches the snake_case identifiers used for section ids
// and dataset column names.
var fieldNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// Validator wraps go-playground/validator with the API's custom tags and
// reports failures as validation AppErrors keyed by JSON field name.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a Validator and registers:
//   - field_name: a snake_case identifier of at most 64 characters
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("field_name", func(fl validator.FieldLevel) bool {
		return fieldNamePattern.MatchString(fl.Field().String())
	}); err != nil {
		// Registration only fails for an empty tag or nil func.
		panic(err)
	}

	return &Validator{validate: v, logger: logger}
}

// ValidateStruct runs the struct tags on s. A missing required field yields
// validation_missing_required_field; any other failure yields
// validation_invalid_request. Details map each failing field to its tag.
func (v *Validator) ValidateStruct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		v.logger.Error("validator misuse", "error", err)
		return types.NewAppError(types.ErrCodeInternalUnexpected, "request could not be validated", err)
	}

	code := types.ErrCodeValidationInvalidBody
	fields := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			code = types.ErrCodeValidationMissingField
		}
		fields[fieldPath(fe)] = fe.Tag()
	}
	return types.NewAppErrorWithDetails(code, "request validation failed", err, map[string]any{"fields": fields})
}

// ValidName reports whether name is a valid field_name identifier.
func ValidName(name string) bool {
	return fieldNamePattern.MatchString(name)
}

// Filter limits shared by the HTTP API and the queue worker.
const (
	MaxFilterDimensions = 8
	MaxFilterValueLen   = 128
)

// ValidateFilters reports malformed filters as validation_invalid_filter
// with the offending dimensions listed in sorted order.
func ValidateFilters(filters map[string][]string) error {
	if len(filters) > MaxFilterDimensions {
		return types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidFilter,
			"too many filter dimensions", nil, map[string]any{"max": MaxFilterDimensions})
	}
	var bad []string
	for dim, values := range filters {
		if !ValidName(dim) || len(values) == 0 {
			bad = append(bad, dim)
			continue
		}
		for _, v := range values {
			if v == "" || len(v) > MaxFilterValueLen {
				bad = append(bad, dim)
				break
			}
		}
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidFilter,
			"invalid filter", nil, map[string]any{"dimensions": bad})
	}
	return nil
}

// fieldPath strips the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
