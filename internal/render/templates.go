package render

import (
	"transitinsight/internal/rules"
	"transitinsight/internal/types"
	"transitinsight/internal/viewctx"
)

func catalogue() map[key]renderFunc {
	return map[key]renderFunc{
		{types.KindRanking, types.ModeAllPeers}:          rankingAll,
		{types.KindRanking, types.ModeSubsetOfPeers}:     rankingSubset,
		{types.KindPositioning, types.ModeSingleSubject}: positioning,
		{types.KindVariation, types.ModeAllPeers}:        variationAll,
		{types.KindVariation, types.ModeSubsetOfPeers}:   variationSubset,
		{types.KindOutlier, types.ModeAllPeers}:          outlier,
		{types.KindOutlier, types.ModeSubsetOfPeers}:     outlier,
		{types.KindInequality, types.ModeAllPeers}:       inequalityAll,
		{types.KindInequality, types.ModeSubsetOfPeers}:  inequalitySubset,
		{types.KindCorrelation, types.ModeAllPeers}:      correlationPeers,
		{types.KindCorrelation, types.ModeSubsetOfPeers}: correlationPeers,
		{types.KindCorrelation, types.ModeSingleSubject}: correlationSingle,
		{types.KindGap, types.ModeAllPeers}:              gapPeers,
		{types.KindGap, types.ModeSubsetOfPeers}:         gapPeers,
		{types.KindGap, types.ModeSingleSubject}:         gapSingle,
	}
}

func rankingAll(_ viewctx.ViewContext, m Meta, in rules.Insight) string {
	n := in.Figure("groups").Display
	return sentence("%s leads all %s %s at %s %s, while %s trails at %s, a gap of %s.",
		in.Labels["top"], n, noun(n, m.GroupLabel), in.Figure("top").Display, m.Unit,
		in.Labels["bottom"], in.Figure("bottom").Display, in.Figure("range").Display)
}

func rankingSubset(vc viewctx.ViewContext, m Meta, in rules.Insight) string {
	n := in.Figure("groups").Display
	return sentence("Among the %s selected %s (%s), %s leads at %s %s and %s trails at %s.",
		n, noun(n, m.GroupLabel), vc.FilterLabel, in.Labels["top"], in.Figure("top").Display, m.Unit,
		in.Labels["bottom"], in.Figure("bottom").Display)
}

func positioning(_ viewctx.ViewContext, m Meta, in rules.Insight) string {
	subject := in.Labels["subject"]
	value := in.Figure("value").Display
	bench := in.Figure("benchmark").Display
	if in.Labels["direction"] == "in line with" {
		return sentence("%s records %s %s, in line with the benchmark of %s.", subject, value, m.Unit, bench)
	}
	return sentence("%s records %s %s, %s (%s) %s the benchmark of %s.",
		subject, value, m.Unit, in.Figure("diff").Display, in.Figure("pct").Display,
		in.Labels["direction"], bench)
}

func variationAll(_ viewctx.ViewContext, m Meta, in rules.Insight) string {
	return sentence("Provision varies %s-fold across %s, from %s in %s to %s in %s.",
		in.Figure("ratio").Display, plural(m.GroupLabel),
		in.Figure("max").Display, in.Labels["max_group"], in.Figure("min").Display, in.Labels["min_group"])
}

func variationSubset(vc viewctx.ViewContext, m Meta, in rules.Insight) string {
	return sentence("Even within the selected %s (%s), provision varies %s-fold, from %s in %s to %s in %s.",
		plural(m.GroupLabel), vc.FilterLabel, in.Figure("ratio").Display,
		in.Figure("max").Display, in.Labels["max_group"], in.Figure("min").Display, in.Labels["min_group"])
}

func outlier(_ viewctx.ViewContext, m Meta, in rules.Insight) string {
	tone := "high"
	if in.Labels["direction"] == "below" {
		tone = "low"
	}
	return sentence("%s is a %s outlier at %s %s (z-score %s against the overall %s).",
		in.Labels["group"], tone, in.Figure("value").Display, m.Unit,
		in.Figure("zscore").Display, in.Figure("aggregate").Display)
}

func inequalityAll(_ viewctx.ViewContext, m Meta, in rules.Insight) string {
	return sentence("Provision is unevenly distributed: the population-weighted Gini coefficient across all %s %s is %s.",
		in.Figure("groups").Display, plural(m.GroupLabel), in.Figure("gini").Display)
}

func inequalitySubset(vc viewctx.ViewContext, m Meta, in rules.Insight) string {
	return sentence("Provision is unevenly distributed within the selection (%s): the population-weighted Gini coefficient is %s.",
		vc.FilterLabel, in.Figure("gini").Display)
}

func correlationPeers(_ viewctx.ViewContext, m Meta, in rules.Insight) string {
	return sentence("Across %s areas, %s shows a %s %s correlation with %s (r = %s, %s).",
		in.Figure("n").Display, m.Title, in.Labels["strength"], in.Labels["sign"],
		in.Labels["variable"], in.Figure("r").Display, pText(in.Figure("p").Display))
}

func correlationSingle(vc viewctx.ViewContext, m Meta, in rules.Insight) string {
	return sentence("Within %s, across %s areas, %s shows a %s %s correlation with %s (r = %s, %s).",
		vc.Subject, in.Figure("n").Display, m.Title, in.Labels["strength"], in.Labels["sign"],
		in.Labels["variable"], in.Figure("r").Display, pText(in.Figure("p").Display))
}

func gapPeers(_ viewctx.ViewContext, m Meta, in rules.Insight) string {
	n := in.Figure("groups").Display
	return sentence("Bringing the %s %s below the benchmark of %s %s up to it (including %s) would need about %s additional bus stops serving %s residents: an estimated investment of %s with a benefit-cost ratio of %s, %s value for money.",
		n, noun(n, m.GroupLabel), in.Figure("benchmark").Display, m.Unit, in.Labels["groups"],
		in.Figure("units").Display, in.Figure("population").Display, in.Figure("investment").Display,
		in.Figure("bcr").Display, in.Labels["band"])
}

func gapSingle(vc viewctx.ViewContext, m Meta, in rules.Insight) string {
	return sentence("Bringing %s up to the benchmark of %s %s would need about %s additional bus stops serving %s residents: an estimated investment of %s with a benefit-cost ratio of %s, %s value for money.",
		vc.Subject, in.Figure("benchmark").Display, m.Unit,
		in.Figure("units").Display, in.Figure("population").Display, in.Figure("investment").Display,
		in.Figure("bcr").Display, in.Labels["band"])
}
