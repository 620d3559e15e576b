// Package insight wires context resolution, metric computation, rule
// selection and rendering into one call, and hosts the section catalogue.
package insight

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"transitinsight/internal/formulas"
	"transitinsight/internal/metrics"
	"transitinsight/internal/render"
	"transitinsight/internal/rules"
	"transitinsight/internal/types"
	"transitinsight/internal/viewctx"
)

// ErrUnknownSection is wrapped when a caller names a section not in the catalogue.
var ErrUnknownSection = errors.New("unknown section")

// Options configures an Engine. Zero Constants/Thresholds mean defaults.
type Options struct {
	Constants  formulas.Constants
	Thresholds formulas.Thresholds
	Logger     *slog.Logger
}

// section is a validated config with its resolved rules.
type section struct {
	cfg   metrics.MetricConfig
	rules []rules.Rule
}

// Engine is immutable after New and safe for concurrent Run calls.
type Engine struct {
	registry *rules.Registry
	calc     *metrics.Calculator
	renderer *render.Renderer
	logger   *slog.Logger

	sections map[string]section
	order    []string
}

// New validates every section up front: an unknown rule, an invalid config
// or a missing template is a wiring error returned here, never at request
// time.
func New(opts Options, configs ...metrics.MetricConfig) (*Engine, error) {
	if opts.Constants == (formulas.Constants{}) {
		opts.Constants = formulas.DefaultConstants()
	}
	if opts.Thresholds == (formulas.Thresholds{}) {
		opts.Thresholds = formulas.DefaultThresholds()
	}
	if err := opts.Constants.Validate(); err != nil {
		return nil, types.NewAppError(types.ErrCodeConfigInvalidMetric, "invalid appraisal constants", err)
	}
	if err := opts.Thresholds.Validate(); err != nil {
		return nil, types.NewAppError(types.ErrCodeConfigInvalidMetric, "invalid thresholds", err)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	e := &Engine{
		registry: rules.NewRegistry(opts.Thresholds),
		calc:     metrics.NewCalculator(opts.Constants, opts.Thresholds),
		renderer: render.New(),
		logger:   opts.Logger,
		sections: make(map[string]section, len(configs)),
	}
	for _, cfg := range configs {
		if _, dup := e.sections[cfg.ID]; dup {
			return nil, types.NewAppErrorWithDetails(types.ErrCodeConfigInvalidMetric,
				"duplicate section id", nil, map[string]any{"section": cfg.ID})
		}
		s, err := e.prepare(cfg)
		if err != nil {
			return nil, err
		}
		e.sections[cfg.ID] = s
		e.order = append(e.order, cfg.ID)
	}
	return e, nil
}

func (e *Engine) prepare(cfg metrics.MetricConfig) (section, error) {
	if err := cfg.Validate(); err != nil {
		return section{}, types.NewAppErrorWithDetails(types.ErrCodeConfigInvalidMetric,
			"invalid metric config", err, map[string]any{"section": cfg.ID})
	}
	if cfg.HasRule(types.RuleGapToInvestment) && !cfg.Investable {
		return section{}, types.NewAppErrorWithDetails(types.ErrCodeConfigInvalidMetric,
			"gap_to_investment requires an investable metric", nil, map[string]any{"section": cfg.ID})
	}
	rs, err := e.registry.Lookup(cfg.Rules)
	if err != nil {
		return section{}, err
	}
	for _, r := range rs {
		for _, mode := range r.Modes() {
			if !e.renderer.Has(r.Kind(), mode) {
				return section{}, types.NewAppErrorWithDetails(types.ErrCodeConfigMissingTemplate,
					"rule can fire in a mode without a template", nil,
					map[string]any{"section": cfg.ID, "rule": string(r.ID()), "mode": string(mode)})
			}
		}
	}
	return section{cfg: cfg, rules: rs}, nil
}

// Sections returns the registered configs in registration order.
func (e *Engine) Sections() []metrics.MetricConfig {
	out := make([]metrics.MetricConfig, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.sections[id].cfg)
	}
	return out
}

// Section returns a registered config by id.
func (e *Engine) Section(id string) (metrics.MetricConfig, bool) {
	s, ok := e.sections[id]
	return s.cfg, ok
}

// RunSection runs a registered section.
func (e *Engine) RunSection(rows []types.Row, id string, filters types.Filters) (*NarrativePayload, error) {
	s, ok := e.sections[id]
	if !ok {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeNotFoundSection,
			"section not found", ErrUnknownSection, map[string]any{"section": id})
	}
	return e.run(rows, s, filters)
}

// Run produces the narrative for rows under cfg and filters. cfg need not be
// registered; it is validated on every call. Only wiring mistakes return an
// error: empty selections, missing columns and suppressed rules all come
// back as payload states.
func (e *Engine) Run(rows []types.Row, cfg metrics.MetricConfig, filters types.Filters) (*NarrativePayload, error) {
	s, err := e.prepare(cfg)
	if err != nil {
		return nil, err
	}
	return e.run(rows, s, filters)
}

func (e *Engine) run(rows []types.Row, s section, filters types.Filters) (*NarrativePayload, error) {
	cfg := s.cfg
	meta := render.MetaFor(cfg)
	vc := viewctx.Resolve(rows, cfg.GroupBy, filters)

	if vc.RowCount == 0 {
		return e.done(noData(cfg, vc, meta)), nil
	}

	b := e.calc.Compute(rows, cfg, vc)
	if !b.Available {
		return e.done(unavailable(cfg, vc, meta, b)), nil
	}
	if b.GroupCount == 0 {
		p := noData(cfg, vc, meta)
		p.Evidence = b
		return e.done(p), nil
	}

	insights, skips, err := rules.Evaluate(s.rules, vc, b)
	if err != nil {
		return nil, fmt.Errorf("section %s: %w", cfg.ID, err)
	}
	for _, sk := range skips {
		e.logger.Debug("rule skipped", "section", cfg.ID, "rule", sk.Rule, "reason", sk.Reason)
	}

	blocks, err := e.renderer.RenderAll(vc, meta, insights)
	if err != nil {
		return nil, fmt.Errorf("section %s: %w", cfg.ID, err)
	}
	return e.done(e.assemble(cfg, vc, meta, b, insights, blocks)), nil
}

func (e *Engine) assemble(cfg metrics.MetricConfig, vc viewctx.ViewContext, meta render.Meta,
	b *metrics.Bundle, insights []rules.Insight, blocks []render.Block) *NarrativePayload {
	p := base(cfg, vc)
	p.Evidence = b
	p.Insights = insights
	p.Findings = blocks

	overview := e.renderer.Overview(vc, meta, b)
	if len(blocks) == 0 {
		p.State = types.StateInsufficientEvidence
		p.Summary = overview
		p.KeyFinding = render.InsufficientEvidence(vc, meta)
		return p
	}

	var summary, findings []string
	for _, blk := range blocks {
		switch blk.Role {
		case types.RoleSummary:
			summary = append(summary, blk.Text)
		case types.RoleKeyFinding:
			findings = append(findings, blk.Text)
		case types.RoleRecommendation:
			if p.Recommendation == nil {
				text := blk.Text
				p.Recommendation = &text
			}
		}
	}

	switch {
	case len(findings) > 0:
		p.KeyFinding = findings[0]
	case len(summary) > 0:
		p.KeyFinding, summary = summary[0], summary[1:]
	default:
		p.KeyFinding = render.NoKeyFinding(meta)
	}
	p.Summary = strings.Join(append([]string{overview}, summary...), " ")

	if p.Recommendation != nil {
		if f, ok := b.Figure(metrics.RefGapCost); ok {
			p.Investment = &f
		}
	}
	return p
}

func (e *Engine) done(p *NarrativePayload) *NarrativePayload {
	e.logger.Info("narrative generated",
		"section", p.Section,
		"state", p.State,
		"mode", p.Mode,
		"rules_fired", p.FiredRules(),
	)
	return p
}

func base(cfg metrics.MetricConfig, vc viewctx.ViewContext) *NarrativePayload {
	return &NarrativePayload{
		Section:  cfg.ID,
		Title:    cfg.Title,
		State:    types.StateOK,
		Mode:     vc.Mode,
		Context:  vc,
		Sources:  append([]string(nil), cfg.Sources...),
		Findings: []render.Block{},
	}
}

func noData(cfg metrics.MetricConfig, vc viewctx.ViewContext, meta render.Meta) *NarrativePayload {
	p := base(cfg, vc)
	p.State = types.StateNoDataForFilter
	p.Mode = types.ModeNoData
	p.Summary = render.NoData(vc, meta)
	p.KeyFinding = render.NoDataFinding(vc)
	return p
}

func unavailable(cfg metrics.MetricConfig, vc viewctx.ViewContext, meta render.Meta, b *metrics.Bundle) *NarrativePayload {
	p := base(cfg, vc)
	p.State = types.StateMetricUnavailable
	p.MissingFields = b.MissingFields
	p.Summary = render.Unavailable(meta, b.MissingFields)
	p.KeyFinding = render.UnavailableFinding(meta)
	p.Evidence = b
	return p
}
