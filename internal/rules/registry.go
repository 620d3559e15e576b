package rules

import (
	"errors"
	"sort"

	"transitinsight/internal/formulas"
	"transitinsight/internal/types"
)

// ErrUnknownRule is wrapped by Lookup when a config names an unregistered rule.
var ErrUnknownRule = errors.New("unknown rule")

// Registry is built once at startup and only read afterwards, so it is safe
// for concurrent use.
type Registry struct {
	rules map[types.RuleID]Rule
}

// NewRegistry registers the full catalogue against t.
func NewRegistry(t formulas.Thresholds) *Registry {
	all := []Rule{
		RankingRule{minGroups: t.MinRankingGroups},
		PositioningRule{inLine: t.InLineTolerance},
		VariationRule{},
		CorrelationRule{minN: t.MinCorrelationN, alpha: t.SignificanceLevel},
		OutlierRule{z: t.OutlierZ, max: t.MaxOutliers},
		GapToInvestmentRule{},
		InequalityRule{threshold: t.GiniThreshold},
	}
	r := &Registry{rules: make(map[types.RuleID]Rule, len(all))}
	for _, rule := range all {
		r.rules[rule.ID()] = rule
	}
	return r
}

// Lookup resolves ids in order.
func (r *Registry) Lookup(ids []types.RuleID) ([]Rule, error) {
	out := make([]Rule, 0, len(ids))
	for _, id := range ids {
		rule, ok := r.rules[id]
		if !ok {
			return nil, types.NewAppErrorWithDetails(types.ErrCodeConfigUnknownRule,
				"metric config references an unregistered rule", ErrUnknownRule,
				map[string]any{"rule": string(id)})
		}
		out = append(out, rule)
	}
	return out, nil
}

// IDs lists registered rule ids in sorted order.
func (r *Registry) IDs() []types.RuleID {
	ids := make([]types.RuleID, 0, len(r.rules))
	for id := range r.rules {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
