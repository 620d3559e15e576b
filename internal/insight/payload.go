package insight

import (
	"transitinsight/internal/metrics"
	"transitinsight/internal/render"
	"transitinsight/internal/rules"
	"transitinsight/internal/types"
	"transitinsight/internal/viewctx"
)

// NarrativePayload is the engine's output. Summary and KeyFinding are never
// empty; the signalled states carry explicit placeholder text instead.
type NarrativePayload struct {
	Section string             `json:"section"`
	Title   string             `json:"title"`
	State   types.PayloadState `json:"state"`
	Mode    types.ContextMode  `json:"mode"`

	Summary        string  `json:"summary"`
	KeyFinding     string  `json:"key_finding"`
	Recommendation *string `json:"recommendation,omitempty"`
	// Investment is the gap/investment figure when a gap was sized.
	Investment *metrics.Figure `json:"investment,omitempty"`

	Findings      []render.Block      `json:"findings"`
	Insights      []rules.Insight     `json:"insights,omitempty"`
	Sources       []string            `json:"sources"`
	MissingFields []string            `json:"missing_fields,omitempty"`
	Context       viewctx.ViewContext `json:"context"`
	// Evidence is the bundle every figure above was read from. Charts drawn
	// next to the narrative must read the same instance.
	Evidence *metrics.Bundle `json:"evidence,omitempty"`
}

// FiredRules counts rendered findings.
func (p *NarrativePayload) FiredRules() int {
	return len(p.Findings)
}
