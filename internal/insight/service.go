package insight

import (
	"context"
	"fmt"
	"log/slog"

	"transitinsight/internal/metrics"
	"transitinsight/internal/types"
)

// RowSource loads a dataset snapshot. Implementations live in source and db.
type RowSource interface {
	Rows(ctx context.Context, dataset string) ([]types.Row, error)
}

// RunRecorder receives one observation per generated payload.
type RunRecorder interface {
	RecordRun(ctx context.Context, section string, state types.PayloadState, rulesFired int)
}

// Service loads rows before invoking the engine, which itself does no I/O.
type Service struct {
	engine   *Engine
	source   RowSource
	recorder RunRecorder
	dataset  string
	logger   *slog.Logger
}

func NewService(engine *Engine, source RowSource, recorder RunRecorder, dataset string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		engine:   engine,
		source:   source,
		recorder: recorder,
		dataset:  dataset,
		logger:   logger,
	}
}

// Engine exposes the underlying engine for catalogue listing.
func (s *Service) Engine() *Engine { return s.engine }

// Narrate loads the dataset and runs one section.
func (s *Service) Narrate(ctx context.Context, sectionID string, filters types.Filters) (*NarrativePayload, error) {
	if _, ok := s.engine.Section(sectionID); !ok {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeNotFoundSection,
			"section not found", ErrUnknownSection, map[string]any{"section": sectionID})
	}
	rows, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.engine.RunSection(rows, sectionID, filters)
	if err != nil {
		return nil, err
	}
	s.record(ctx, p)
	return p, nil
}

// Report loads the dataset once and runs the sections concurrently.
func (s *Service) Report(ctx context.Context, sectionIDs []string, filters types.Filters) ([]*NarrativePayload, error) {
	rows, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	payloads, err := s.engine.Report(ctx, rows, sectionIDs, filters)
	if err != nil {
		return nil, err
	}
	for _, p := range payloads {
		s.record(ctx, p)
	}
	return payloads, nil
}

func (s *Service) load(ctx context.Context) ([]types.Row, error) {
	rows, err := s.source.Rows(ctx, s.dataset)
	if err != nil {
		return nil, fmt.Errorf("loading dataset %s: %w", s.dataset, err)
	}
	return rows, nil
}

func (s *Service) record(ctx context.Context, p *NarrativePayload) {
	if s.recorder == nil {
		return
	}
	s.recorder.RecordRun(ctx, p.Section, p.State, p.FiredRules())
}

// Sections lists the configured sections in catalogue order.
func (s *Service) Sections() []metrics.MetricConfig { return s.engine.Sections() }
