package rules

import (
	"strings"

	"transitinsight/internal/metrics"
	"transitinsight/internal/types"
	"transitinsight/internal/viewctx"
)

// namedGroups caps how many gap groups are listed by name, largest shortfall
// first.
const namedGroups = 3

// GapToInvestmentRule monetises the shortfall of below-benchmark groups.
type GapToInvestmentRule struct{}

func (GapToInvestmentRule) ID() types.RuleID           { return types.RuleGapToInvestment }
func (GapToInvestmentRule) Kind() types.InsightKind    { return types.KindGap }
func (GapToInvestmentRule) Modes() []types.ContextMode { return allModes }
func (GapToInvestmentRule) Required() Requirements     { return Requirements{MinGroups: 1} }

func (GapToInvestmentRule) Applies(_ viewctx.ViewContext, b *metrics.Bundle) bool {
	return b.Gap != nil && len(b.Gap.Groups) > 0 && b.Gap.Investment.CostGBP.Defined
}

func (r GapToInvestmentRule) Emit(_ viewctx.ViewContext, b *metrics.Bundle) ([]Insight, error) {
	figs, err := slots(b, map[string]string{
		"units":      metrics.RefGapUnits,
		"investment": metrics.RefGapCost,
		"population": metrics.RefGapPop,
		"pv_benefit": metrics.RefGapPV,
		"bcr":        metrics.RefGapBCR,
		"groups":     metrics.RefGapGroups,
		"benchmark":  metrics.RefBenchmark,
	})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, namedGroups)
	for i, g := range b.Gap.Groups {
		if i == namedGroups {
			break
		}
		names = append(names, g.Name)
	}
	band := b.Gap.Investment.Band
	return []Insight{{
		Kind:    types.KindGap,
		Rule:    r.ID(),
		Figures: figs,
		Labels: map[string]string{
			"band":      band.Label(),
			"band_code": string(band),
			"groups":    strings.Join(names, ", "),
		},
	}}, nil
}
