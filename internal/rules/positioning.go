package rules

import (
	"math"

	"transitinsight/internal/metrics"
	"transitinsight/internal/types"
	"transitinsight/internal/viewctx"
)

// PositioningRule compares a lone subject with the benchmark aggregate. It
// never ranks a set of one. A relative difference below inLine is described
// as in line with the benchmark.
type PositioningRule struct {
	inLine float64
}

func (PositioningRule) ID() types.RuleID        { return types.RulePositioning }
func (PositioningRule) Kind() types.InsightKind { return types.KindPositioning }
func (PositioningRule) Modes() []types.ContextMode {
	return []types.ContextMode{types.ModeSingleSubject}
}
func (PositioningRule) Required() Requirements { return Requirements{MinGroups: 1} }

func (PositioningRule) Applies(vc viewctx.ViewContext, b *metrics.Bundle) bool {
	if vc.Mode != types.ModeSingleSubject || !b.Benchmark.Defined {
		return false
	}
	g, ok := b.Group(vc.Subject)
	return ok && g.PctBenchmark.Defined
}

func (r PositioningRule) Emit(vc viewctx.ViewContext, b *metrics.Bundle) ([]Insight, error) {
	g, _ := b.Group(vc.Subject)
	figs, err := slots(b, map[string]string{
		"value":     metrics.GroupRef(g.Name, metrics.RefGroupValue),
		"benchmark": metrics.RefBenchmark,
		"diff":      metrics.GroupRef(g.Name, metrics.RefGroupDiff),
		"pct":       metrics.GroupRef(g.Name, metrics.RefGroupPct),
	})
	if err != nil {
		return nil, err
	}
	dir := direction(g.PctBenchmark.Value)
	if math.Abs(g.PctBenchmark.Value) < r.inLine {
		dir = "in line with"
	}
	return []Insight{{
		Kind:    types.KindPositioning,
		Rule:    r.ID(),
		Figures: figs,
		Labels:  map[string]string{"subject": g.Name, "direction": dir},
	}}, nil
}
