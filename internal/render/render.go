// Package render turns insights into prose. Each (insight kind, context mode)
// pair has its own template function; templates only interpolate figure
// display strings and labels and never compute.
package render

import (
	"fmt"

	"transitinsight/internal/metrics"
	"transitinsight/internal/rules"
	"transitinsight/internal/types"
	"transitinsight/internal/viewctx"
)

// Block is one rendered piece of narrative, tagged for layout.
type Block struct {
	Role types.BlockRole   `json:"role"`
	Kind types.InsightKind `json:"kind"`
	Rule types.RuleID      `json:"rule"`
	Text string            `json:"text"`
}

// Meta is the section wording a template needs.
type Meta struct {
	Title      string
	Unit       string
	GroupLabel string
}

// MetaFor extracts Meta from a metric config.
func MetaFor(cfg metrics.MetricConfig) Meta {
	return Meta{Title: cfg.Title, Unit: cfg.Unit, GroupLabel: cfg.GroupLabel}
}

type renderFunc func(vc viewctx.ViewContext, m Meta, in rules.Insight) string

type key struct {
	kind types.InsightKind
	mode types.ContextMode
}

var roles = map[types.InsightKind]types.BlockRole{
	types.KindRanking:     types.RoleSummary,
	types.KindPositioning: types.RoleSummary,
	types.KindVariation:   types.RoleKeyFinding,
	types.KindCorrelation: types.RoleKeyFinding,
	types.KindOutlier:     types.RoleKeyFinding,
	types.KindInequality:  types.RoleKeyFinding,
	types.KindGap:         types.RoleRecommendation,
}

// RoleFor returns the layout role of kind.
func RoleFor(kind types.InsightKind) types.BlockRole {
	if r, ok := roles[kind]; ok {
		return r
	}
	return types.RoleKeyFinding
}

// Renderer holds the immutable template table.
type Renderer struct {
	templates map[key]renderFunc
}

func New() *Renderer {
	return &Renderer{templates: catalogue()}
}

// Has reports whether a template exists for kind in mode.
func (r *Renderer) Has(kind types.InsightKind, mode types.ContextMode) bool {
	_, ok := r.templates[key{kind, mode}]
	return ok
}

// Render produces the block for one insight.
func (r *Renderer) Render(vc viewctx.ViewContext, m Meta, in rules.Insight) (Block, error) {
	fn, ok := r.templates[key{in.Kind, vc.Mode}]
	if !ok {
		return Block{}, types.NewAppErrorWithDetails(types.ErrCodeConfigMissingTemplate,
			"no template for insight kind in context mode", nil,
			map[string]any{"kind": string(in.Kind), "mode": string(vc.Mode)})
	}
	return Block{
		Role: RoleFor(in.Kind),
		Kind: in.Kind,
		Rule: in.Rule,
		Text: fn(vc, m, in),
	}, nil
}

// RenderAll renders insights in order.
func (r *Renderer) RenderAll(vc viewctx.ViewContext, m Meta, ins []rules.Insight) ([]Block, error) {
	out := make([]Block, 0, len(ins))
	for _, in := range ins {
		b, err := r.Render(vc, m, in)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func plural(label string) string {
	if label == "" {
		return label
	}
	switch label[len(label)-1] {
	case 's', 'x':
		return label + "es"
	case 'y':
		return label[:len(label)-1] + "ies"
	default:
		return label + "s"
	}
}

// noun picks singular or plural from a count's display text.
func noun(countDisplay, label string) string {
	if countDisplay == "1" {
		return label
	}
	return plural(label)
}

func pText(display string) string {
	if len(display) > 0 && display[0] == '<' {
		return "p " + display[:1] + " " + display[1:]
	}
	return "p = " + display
}

func sentence(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
