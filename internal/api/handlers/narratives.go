// Package handlers contains the HTTP handlers for the narrative API:
//   - Section catalogue (GET /v1/sections)
//   - Single-section narrative (GET or POST /v1/sections/{id}/narrative)
//   - Multi-section report (POST /v1/reports)
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"transitinsight/internal/core"
	"transitinsight/internal/insight"
	"transitinsight/internal/metrics"
	"transitinsight/internal/types"
)

// NarrativeService defines the service contract for the narrative handler.
// Defined locally so tests can substitute a fake.
type NarrativeService interface {
	Narrate(ctx context.Context, sectionID string, filters types.Filters) (*insight.NarrativePayload, error)
	Report(ctx context.Context, sectionIDs []string, filters types.Filters) ([]*insight.NarrativePayload, error)
	Sections() []metrics.MetricConfig
}

// NarrativeRequest is the body of POST /v1/sections/{id}/narrative.
type NarrativeRequest struct {
	Filters map[string][]string `json:"filters"`
}

// ReportRequest is the body of POST /v1/reports.
type ReportRequest struct {
	Sections []string            `json:"sections" validate:"required,min=1,unique,dive,field_name"`
	Filters  map[string][]string `json:"filters"`
}

// SectionSummary describes one catalogue entry.
type SectionSummary struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	GroupBy    string         `json:"group_by"`
	Unit       string         `json:"unit"`
	Investable bool           `json:"investable"`
	Rules      []types.RuleID `json:"rules"`
	Sources    []string       `json:"sources"`
}

// NarrativeHandler maps HTTP requests to NarrativeService methods.
type NarrativeHandler struct {
	service     NarrativeService
	validator   *core.Validator
	maxSections int
	logger      *slog.Logger
}

// NewNarrativeHandler creates a NarrativeHandler. maxSections caps the
// sections of one report; values below 1 fall back to 10.
func NewNarrativeHandler(
	svc NarrativeService,
	val *core.Validator,
	maxSections int,
	logger *slog.Logger,
) *NarrativeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxSections < 1 {
		maxSections = 10
	}
	return &NarrativeHandler{
		service:     svc,
		validator:   val,
		maxSections: maxSections,
		logger:      logger,
	}
}

// RegisterRoutes mounts the narrative endpoints onto the /v1 router.
func (h *NarrativeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/sections", h.HandleListSections)
	r.Get("/sections/{id}/narrative", h.HandleGetNarrative)
	r.Post("/sections/{id}/narrative", h.HandlePostNarrative)
	r.Post("/reports", h.HandleReport)
}

// HandleListSections handles GET /v1/sections.
func (h *NarrativeHandler) HandleListSections(w http.ResponseWriter, r *http.Request) {
	cfgs := h.service.Sections()
	out := make([]SectionSummary, 0, len(cfgs))
	for _, c := range cfgs {
		out = append(out, SectionSummary{
			ID:         c.ID,
			Title:      c.Title,
			GroupBy:    c.GroupBy,
			Unit:       c.Unit,
			Investable: c.Investable,
			Rules:      c.Rules,
			Sources:    c.Sources,
		})
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Data: out,
		Meta: &core.ResponseMeta{Count: len(out)},
	})
}

// HandleGetNarrative handles GET /v1/sections/{id}/narrative. Every query
// parameter is a dimension filter; repeated parameters are OR-ed.
//
//	GET /v1/sections/stop_density/narrative?region=Wales&region=North+East
func (h *NarrativeHandler) HandleGetNarrative(w http.ResponseWriter, r *http.Request) {
	req := NarrativeRequest{Filters: map[string][]string(r.URL.Query())}
	h.narrate(w, r, req)
}

// HandlePostNarrative handles POST /v1/sections/{id}/narrative. An empty
// body is the unfiltered view.
func (h *NarrativeHandler) HandlePostNarrative(w http.ResponseWriter, r *http.Request) {
	var req NarrativeRequest
	if r.ContentLength != 0 {
		if err := core.DecodeJSON(w, r, &req); err != nil {
			core.Error(w, r, err)
			return
		}
	}
	h.narrate(w, r, req)
}

func (h *NarrativeHandler) narrate(w http.ResponseWriter, r *http.Request, req NarrativeRequest) {
	id := chi.URLParam(r, "id")
	if !core.ValidName(id) {
		core.Error(w, r, types.NewAppErrorWithDetails(types.ErrCodeNotFoundSection,
			"section not found", nil, map[string]any{"section": id}))
		return
	}
	if err := core.ValidateFilters(req.Filters); err != nil {
		core.Error(w, r, err)
		return
	}

	payload, err := h.service.Narrate(r.Context(), id, toFilters(req.Filters))
	if err != nil {
		h.logFailure(r, err, "section", id)
		core.Error(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	core.CachedJSON(w, r, core.APIResponse{Data: payload})
}

// HandleReport handles POST /v1/reports.
func (h *NarrativeHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if len(req.Sections) > h.maxSections {
		core.Error(w, r, types.NewAppErrorWithDetails(types.ErrCodeValidationTooMany,
			"too many sections requested", nil,
			map[string]any{"max": h.maxSections, "requested": len(req.Sections)}))
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := core.ValidateFilters(req.Filters); err != nil {
		core.Error(w, r, err)
		return
	}

	payloads, err := h.service.Report(r.Context(), req.Sections, toFilters(req.Filters))
	if err != nil {
		h.logFailure(r, err, "sections", req.Sections)
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Data: payloads,
		Meta: &core.ResponseMeta{Count: len(payloads)},
	})
}

func (h *NarrativeHandler) logFailure(r *http.Request, err error, key string, value any) {
	level := slog.LevelWarn
	if status := statusOf(err); status >= 500 {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "narrative request failed",
		key, value,
		"request_id", types.GetRequestID(r.Context()),
		"error", err.Error(),
	)
}

func toFilters(m map[string][]string) types.Filters {
	if len(m) == 0 {
		return types.Filters{}
	}
	return types.Filters{Dimensions: m}
}

// statusOf returns the HTTP status core.Error will write for err.
func statusOf(err error) int {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}
