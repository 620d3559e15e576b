// Package rules holds the insight rules. Each rule declares the evidence it
// needs, decides whether it applies to a context and bundle, and emits typed
// insights whose numbers are copied from the bundle's figure index.
package rules

import (
	"fmt"

	"transitinsight/internal/metrics"
	"transitinsight/internal/types"
	"transitinsight/internal/viewctx"
)

// Requirements is a rule's evidence gate.
type Requirements struct {
	MinN      int `json:"min_n"`
	MinGroups int `json:"min_groups"`
	// MaxPValue, when positive, requires a computed correlation with
	// p strictly below it.
	MaxPValue float64 `json:"max_p_value,omitempty"`
}

// Rule is a stateless predicate plus producer.
type Rule interface {
	ID() types.RuleID
	Kind() types.InsightKind
	// Modes lists the context modes the rule can ever fire in. The renderer
	// must carry a template for each.
	Modes() []types.ContextMode
	Required() Requirements
	Applies(vc viewctx.ViewContext, b *metrics.Bundle) bool
	Emit(vc viewctx.ViewContext, b *metrics.Bundle) ([]Insight, error)
}

// Insight is one typed claim. Figures are copies of bundle figures keyed by
// template slot; Labels carry the non-numeric tokens (names, directions).
type Insight struct {
	Kind    types.InsightKind         `json:"kind"`
	Rule    types.RuleID              `json:"rule"`
	Figures map[string]metrics.Figure `json:"figures"`
	Labels  map[string]string         `json:"labels,omitempty"`
}

// Figure returns the figure in slot.
func (i Insight) Figure(slot string) metrics.Figure {
	return i.Figures[slot]
}

// Skip records why a rule stayed silent.
type Skip struct {
	Rule   types.RuleID
	Reason string
}

// Check evaluates req against the bundle. The reason is empty when met.
func Check(req Requirements, b *metrics.Bundle) (bool, string) {
	if b.SampleSize < req.MinN {
		return false, fmt.Sprintf("sample size %d below %d", b.SampleSize, req.MinN)
	}
	if b.GroupCount < req.MinGroups {
		return false, fmt.Sprintf("group count %d below %d", b.GroupCount, req.MinGroups)
	}
	if req.MaxPValue > 0 {
		p := b.Correlation.P
		if !b.Correlation.Computable || !p.Defined {
			return false, "correlation not computable"
		}
		if p.Value >= req.MaxPValue {
			return false, fmt.Sprintf("p-value %.3f not below %.3f", p.Value, req.MaxPValue)
		}
	}
	return true, ""
}

// Evaluate runs rules in order. A rule whose requirements are unmet or that
// does not apply is skipped silently; only an emit error is returned.
func Evaluate(rs []Rule, vc viewctx.ViewContext, b *metrics.Bundle) ([]Insight, []Skip, error) {
	var (
		out   []Insight
		skips []Skip
	)
	for _, r := range rs {
		if ok, reason := Check(r.Required(), b); !ok {
			skips = append(skips, Skip{Rule: r.ID(), Reason: reason})
			continue
		}
		if !r.Applies(vc, b) {
			skips = append(skips, Skip{Rule: r.ID(), Reason: "not applicable"})
			continue
		}
		ins, err := r.Emit(vc, b)
		if err != nil {
			return nil, nil, fmt.Errorf("rule %s: %w", r.ID(), err)
		}
		out = append(out, ins...)
	}
	return out, skips, nil
}

// slots copies figures from the bundle. A missing ref means a rule and the
// calculator disagree on naming, which is a wiring error.
func slots(b *metrics.Bundle, refs map[string]string) (map[string]metrics.Figure, error) {
	out := make(map[string]metrics.Figure, len(refs))
	for slot, ref := range refs {
		f, ok := b.Figure(ref)
		if !ok {
			return nil, types.NewAppErrorWithDetails(types.ErrCodeConfigMissingFigure,
				"figure not registered in bundle", nil, map[string]any{"ref": ref, "slot": slot})
		}
		out[slot] = f
	}
	return out, nil
}

func direction(q float64) string {
	if q >= 0 {
		return "above"
	}
	return "below"
}
