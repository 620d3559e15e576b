package rules

import (
	"math"
	"sort"

	"transitinsight/internal/metrics"
	"transitinsight/internal/types"
	"transitinsight/internal/viewctx"
)

var peerModes = []types.ContextMode{types.ModeAllPeers, types.ModeSubsetOfPeers}

// RankingRule names the leading and trailing groups.
type RankingRule struct {
	minGroups int
}

func (RankingRule) ID() types.RuleID           { return types.RuleRanking }
func (RankingRule) Kind() types.InsightKind    { return types.KindRanking }
func (RankingRule) Modes() []types.ContextMode { return peerModes }
func (r RankingRule) Required() Requirements   { return Requirements{MinGroups: r.minGroups} }

func (r RankingRule) Applies(vc viewctx.ViewContext, b *metrics.Bundle) bool {
	return vc.IsMultiGroup && b.GroupCount >= r.minGroups
}

func (r RankingRule) Emit(_ viewctx.ViewContext, b *metrics.Bundle) ([]Insight, error) {
	top, bottom := b.Ranking[0], b.Ranking[len(b.Ranking)-1]
	figs, err := slots(b, map[string]string{
		"top":       metrics.GroupRef(top.Name, metrics.RefGroupValue),
		"bottom":    metrics.GroupRef(bottom.Name, metrics.RefGroupValue),
		"range":     metrics.RefVarRange,
		"aggregate": metrics.RefAggregate,
		"groups":    metrics.RefGroupCount,
	})
	if err != nil {
		return nil, err
	}
	return []Insight{{
		Kind:    types.KindRanking,
		Rule:    r.ID(),
		Figures: figs,
		Labels:  map[string]string{"top": top.Name, "bottom": bottom.Name},
	}}, nil
}

// VariationRule flags a high max/min ratio across groups.
type VariationRule struct{}

func (VariationRule) ID() types.RuleID           { return types.RuleVariation }
func (VariationRule) Kind() types.InsightKind    { return types.KindVariation }
func (VariationRule) Modes() []types.ContextMode { return peerModes }
func (VariationRule) Required() Requirements     { return Requirements{MinGroups: 2} }

func (VariationRule) Applies(vc viewctx.ViewContext, b *metrics.Bundle) bool {
	return vc.IsMultiGroup && b.Variation.Ratio.Defined && b.Variation.High
}

func (r VariationRule) Emit(_ viewctx.ViewContext, b *metrics.Bundle) ([]Insight, error) {
	figs, err := slots(b, map[string]string{
		"max":    metrics.RefVarMax,
		"min":    metrics.RefVarMin,
		"ratio":  metrics.RefVarRatio,
		"stddev": metrics.RefVarStdDev,
	})
	if err != nil {
		return nil, err
	}
	return []Insight{{
		Kind:    types.KindVariation,
		Rule:    r.ID(),
		Figures: figs,
		Labels:  map[string]string{"max_group": b.Variation.MaxGroup, "min_group": b.Variation.MinGroup},
	}}, nil
}

// OutlierRule reports groups far from the weighted aggregate, most extreme
// first.
type OutlierRule struct {
	z   float64
	max int
}

func (OutlierRule) ID() types.RuleID           { return types.RuleOutlier }
func (OutlierRule) Kind() types.InsightKind    { return types.KindOutlier }
func (OutlierRule) Modes() []types.ContextMode { return peerModes }
func (OutlierRule) Required() Requirements     { return Requirements{MinGroups: 3} }

func (r OutlierRule) outliers(b *metrics.Bundle) []metrics.GroupStat {
	var out []metrics.GroupStat
	for _, g := range b.Ranking {
		if g.ZScore.Defined && math.Abs(g.ZScore.Value) >= r.z {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		zi, zj := math.Abs(out[i].ZScore.Value), math.Abs(out[j].ZScore.Value)
		if zi != zj {
			return zi > zj
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > r.max {
		out = out[:r.max]
	}
	return out
}

func (r OutlierRule) Applies(vc viewctx.ViewContext, b *metrics.Bundle) bool {
	return vc.IsMultiGroup && len(r.outliers(b)) > 0
}

func (r OutlierRule) Emit(_ viewctx.ViewContext, b *metrics.Bundle) ([]Insight, error) {
	groups := r.outliers(b)
	out := make([]Insight, 0, len(groups))
	for _, g := range groups {
		figs, err := slots(b, map[string]string{
			"value":     metrics.GroupRef(g.Name, metrics.RefGroupValue),
			"zscore":    metrics.GroupRef(g.Name, metrics.RefGroupZ),
			"aggregate": metrics.RefAggregate,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, Insight{
			Kind:    types.KindOutlier,
			Rule:    r.ID(),
			Figures: figs,
			Labels:  map[string]string{"group": g.Name, "direction": direction(g.ZScore.Value)},
		})
	}
	return out, nil
}

// InequalityRule reports a population-weighted Gini at or above threshold.
type InequalityRule struct {
	threshold float64
}

func (InequalityRule) ID() types.RuleID           { return types.RuleInequality }
func (InequalityRule) Kind() types.InsightKind    { return types.KindInequality }
func (InequalityRule) Modes() []types.ContextMode { return peerModes }
func (InequalityRule) Required() Requirements     { return Requirements{MinGroups: 2} }

func (r InequalityRule) Applies(vc viewctx.ViewContext, b *metrics.Bundle) bool {
	return vc.IsMultiGroup && b.Gini.Defined && b.Gini.Value >= r.threshold
}

func (r InequalityRule) Emit(_ viewctx.ViewContext, b *metrics.Bundle) ([]Insight, error) {
	figs, err := slots(b, map[string]string{
		"gini":   metrics.RefGini,
		"groups": metrics.RefGroupCount,
	})
	if err != nil {
		return nil, err
	}
	return []Insight{{Kind: types.KindInequality, Rule: r.ID(), Figures: figs}}, nil
}
