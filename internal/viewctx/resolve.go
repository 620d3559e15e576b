// Package viewctx classifies the analytical situation of a request: how many
// groups survive the filter, and therefore which comparisons are meaningful.
package viewctx

import (
	"sort"

	"transitinsight/internal/types"
)

// ViewContext is resolved once per request and never mutated afterwards.
type ViewContext struct {
	Mode         types.ContextMode `json:"mode"`
	GroupBy      string            `json:"group_by"`
	GroupCount   int               `json:"group_count"`
	Universe     int               `json:"universe"`
	RowCount     int               `json:"row_count"`
	IsMultiGroup bool              `json:"is_multi_group"`
	Filters      types.Filters     `json:"filters"`
	FilterLabel  string            `json:"filter_label"`
	// Subject is the single group name in SINGLE_SUBJECT mode.
	Subject string   `json:"subject,omitempty"`
	Groups  []string `json:"groups"`
}

// HasData reports whether any group survived the filter.
func (vc ViewContext) HasData() bool {
	return vc.Mode != types.ModeNoData
}

// Apply returns the rows matching filters, preserving input order.
func Apply(rows []types.Row, filters types.Filters) []types.Row {
	if filters.IsEmpty() {
		return rows
	}
	out := make([]types.Row, 0, len(rows))
	for _, r := range rows {
		if filters.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Resolve classifies rows under filters. rows is the full, unfiltered
// dataset; it defines the universe of groups that "all peers" refers to.
// Empty input never fails; it resolves to NO_DATA.
func Resolve(rows []types.Row, groupBy string, filters types.Filters) ViewContext {
	universe := distinctGroups(rows, groupBy)
	filtered := Apply(rows, filters)
	groups := distinctGroups(filtered, groupBy)

	vc := ViewContext{
		Mode:        Classify(len(groups), len(universe)),
		GroupBy:     groupBy,
		GroupCount:  len(groups),
		Universe:    len(universe),
		RowCount:    len(filtered),
		Filters:     filters,
		FilterLabel: filters.Label(),
		Groups:      groups,
	}
	vc.IsMultiGroup = vc.Mode.IsMultiGroup()
	if vc.Mode == types.ModeSingleSubject {
		vc.Subject = groups[0]
	}
	return vc
}

// Classify maps a group count onto exactly one mode. Zero is always NO_DATA.
func Classify(groupCount, universe int) types.ContextMode {
	switch {
	case groupCount <= 0:
		return types.ModeNoData
	case groupCount == 1:
		return types.ModeSingleSubject
	case groupCount >= universe:
		return types.ModeAllPeers
	default:
		return types.ModeSubsetOfPeers
	}
}

func distinctGroups(rows []types.Row, groupBy string) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		if g, ok := r.Dim(groupBy); ok {
			seen[g] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for g := range seen {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}
