package rules

import (
	"math"

	"transitinsight/internal/metrics"
	"transitinsight/internal/types"
	"transitinsight/internal/viewctx"
)

var allModes = []types.ContextMode{types.ModeAllPeers, types.ModeSubsetOfPeers, types.ModeSingleSubject}

// CorrelationRule reports a significant row-level correlation. Below the
// sample floor or at p ≥ alpha it contributes nothing.
type CorrelationRule struct {
	minN  int
	alpha float64
}

func (CorrelationRule) ID() types.RuleID           { return types.RuleCorrelation }
func (CorrelationRule) Kind() types.InsightKind    { return types.KindCorrelation }
func (CorrelationRule) Modes() []types.ContextMode { return allModes }

func (r CorrelationRule) Required() Requirements {
	return Requirements{MinN: r.minN, MaxPValue: r.alpha}
}

func (r CorrelationRule) Applies(_ viewctx.ViewContext, b *metrics.Bundle) bool {
	c := b.Correlation
	return c.Computable && c.N >= r.minN &&
		c.R.Defined && c.P.Defined && c.P.Value < r.alpha
}

func (r CorrelationRule) Emit(_ viewctx.ViewContext, b *metrics.Bundle) ([]Insight, error) {
	figs, err := slots(b, map[string]string{
		"r": metrics.RefCorrR,
		"p": metrics.RefCorrP,
		"n": metrics.RefCorrN,
	})
	if err != nil {
		return nil, err
	}
	rv := b.Correlation.R.Value
	sign := "positive"
	if rv < 0 {
		sign = "negative"
	}
	return []Insight{{
		Kind:    types.KindCorrelation,
		Rule:    r.ID(),
		Figures: figs,
		Labels: map[string]string{
			"variable": b.CorrelateLabel,
			"sign":     sign,
			"strength": strength(rv),
		},
	}}, nil
}

// strength uses Cohen's conventional bands for |r|.
func strength(r float64) string {
	switch a := math.Abs(r); {
	case a >= 0.5:
		return "strong"
	case a >= 0.3:
		return "moderate"
	default:
		return "weak"
	}
}
