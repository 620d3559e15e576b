package render

import (
	"strings"

	"transitinsight/internal/metrics"
	"transitinsight/internal/types"
	"transitinsight/internal/viewctx"
)

// Overview opens every summary with a context-appropriate sentence built from
// the bundle's aggregate figures.
func (r *Renderer) Overview(vc viewctx.ViewContext, m Meta, b *metrics.Bundle) string {
	agg := figure(b, metrics.RefAggregate)
	bench := figure(b, metrics.RefBenchmark)
	n := figure(b, metrics.RefGroupCount)

	switch vc.Mode {
	case types.ModeAllPeers:
		return sentence("%s across all %s %s stands at %s %s.", m.Title, n, noun(n, m.GroupLabel), agg, m.Unit)
	case types.ModeSubsetOfPeers:
		return sentence("%s across the %s selected %s (%s) stands at %s %s, against %s for all %s.",
			m.Title, n, noun(n, m.GroupLabel), vc.FilterLabel, agg, m.Unit, bench, plural(m.GroupLabel))
	case types.ModeSingleSubject:
		return sentence("%s in %s stands at %s %s.", m.Title, vc.Subject, agg, m.Unit)
	default:
		return NoData(vc, m)
	}
}

func figure(b *metrics.Bundle, ref string) string {
	if f, ok := b.Figure(ref); ok {
		return f.Display
	}
	return "undefined"
}

// NoData is the placeholder for a filter that selects nothing.
func NoData(vc viewctx.ViewContext, m Meta) string {
	return sentence("No data is available for %s under the current filter (%s).", m.Title, vc.FilterLabel)
}

// NoDataFinding is the key-finding placeholder paired with NoData.
func NoDataFinding(vc viewctx.ViewContext) string {
	return sentence("No finding can be drawn: the filter (%s) matches no records.", vc.FilterLabel)
}

// Unavailable is the placeholder when required fields are missing.
func Unavailable(m Meta, missing []string) string {
	return sentence("%s could not be computed: the data is missing %s.", m.Title, strings.Join(missing, ", "))
}

// UnavailableFinding is the key-finding placeholder paired with Unavailable.
func UnavailableFinding(m Meta) string {
	return sentence("No finding is available for %s until the missing fields are supplied.", m.Title)
}

// InsufficientEvidence marks a run where every rule was suppressed.
func InsufficientEvidence(vc viewctx.ViewContext, m Meta) string {
	return sentence("Insufficient evidence for further insight: no pattern in %s for %s passes the evidence thresholds.",
		m.Title, vc.FilterLabel)
}

// NoKeyFinding is used when only a recommendation fired.
func NoKeyFinding(m Meta) string {
	return sentence("No comparative finding for %s passes the evidence thresholds beyond the recommendation.", m.Title)
}
