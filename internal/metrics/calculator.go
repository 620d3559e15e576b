package metrics

import (
	"sort"

	"transitinsight/internal/formulas"
	"transitinsight/internal/types"
	"transitinsight/internal/viewctx"
)

// Calculator turns rows into a Bundle. It holds only immutable constants and
// thresholds, so one Calculator serves concurrent requests.
type Calculator struct {
	constants  formulas.Constants
	thresholds formulas.Thresholds
}

func NewCalculator(constants formulas.Constants, thresholds formulas.Thresholds) *Calculator {
	return &Calculator{constants: constants, thresholds: thresholds}
}

// observation is one row reduced to what the metric needs.
type observation struct {
	group  string
	count  float64
	value  float64
	weight float64
	row    types.Row
}

// Compute builds the bundle. rows is the full dataset; the benchmark is the
// weighted aggregate over all of it, while every other figure covers only
// the rows selected by vc.Filters. Identical inputs give identical output.
func (c *Calculator) Compute(rows []types.Row, cfg MetricConfig, vc viewctx.ViewContext) *Bundle {
	filtered := viewctx.Apply(rows, vc.Filters)
	if len(filtered) > 0 {
		if missing := cfg.missingFields(filtered); len(missing) > 0 {
			return unavailable(cfg.ID, cfg.Unit, missing)
		}
	}

	obs := observe(filtered, cfg)
	b := &Bundle{
		Section:    cfg.ID,
		Unit:       cfg.Unit,
		Available:  true,
		SampleSize: len(obs),
		Aggregate:  aggregate(obs, cfg),
		Benchmark:  aggregate(observe(rows, cfg), cfg),
	}

	b.Ranking = rank(obs, cfg)
	b.GroupCount = len(b.Ranking)
	c.spread(b)
	b.Correlation = c.correlate(obs, cfg)
	b.CorrelateLabel = cfg.CorrelateLabel
	if cfg.Investable {
		b.Gap = c.gap(b, cfg)
	}

	b.Figures = index(b, NewFormatter(cfg.Decimals))
	return b
}

func observe(rows []types.Row, cfg MetricConfig) []observation {
	out := make([]observation, 0, len(rows))
	for _, r := range rows {
		g, ok := r.Dim(cfg.GroupBy)
		if !ok {
			continue
		}
		v, ok := r.Measure(cfg.ValueCol)
		if !ok {
			continue
		}
		w, ok := r.Measure(cfg.WeightCol)
		if !ok || w <= 0 {
			continue
		}
		o := observation{group: g, value: v, weight: w, row: r}
		if cfg.ValueIsCount {
			o.count = v
			o.value = cfg.Scale * v / w
		}
		out = append(out, o)
	}
	return out
}

// aggregate is Σnumerator/Σdenominator for count metrics and the
// weight-weighted mean otherwise. It is never a plain mean of row ratios.
func aggregate(obs []observation, cfg MetricConfig) formulas.Quantity {
	if len(obs) == 0 {
		return formulas.Undefined("no observations")
	}
	weights := make([]float64, len(obs))
	for i, o := range obs {
		weights[i] = o.weight
	}
	if cfg.ValueIsCount {
		counts := make([]float64, len(obs))
		for i, o := range obs {
			counts[i] = o.count
		}
		return formulas.RatioOfSums(counts, weights, cfg.Scale)
	}
	values := make([]float64, len(obs))
	for i, o := range obs {
		values[i] = o.value
	}
	return formulas.WeightedMean(values, weights)
}

// rank orders groups by value descending, ties by name. Groups whose value
// is undefined are left out.
func rank(obs []observation, cfg MetricConfig) []GroupStat {
	byGroup := make(map[string][]observation)
	for _, o := range obs {
		byGroup[o.group] = append(byGroup[o.group], o)
	}

	stats := make([]GroupStat, 0, len(byGroup))
	for name, members := range byGroup {
		v := aggregate(members, cfg)
		if !v.Defined {
			continue
		}
		var w float64
		for _, m := range members {
			w += m.weight
		}
		stats = append(stats, GroupStat{Name: name, Value: v, Weight: w, Rows: len(members)})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Value.Value != stats[j].Value.Value {
			return stats[i].Value.Value > stats[j].Value.Value
		}
		return stats[i].Name < stats[j].Name
	})
	for i := range stats {
		stats[i].Rank = i + 1
	}
	return stats
}

func (c *Calculator) spread(b *Bundle) {
	n := len(b.Ranking)
	values := make([]float64, n)
	weights := make([]float64, n)
	for i, g := range b.Ranking {
		values[i] = g.Value.Value
		weights[i] = g.Weight
	}

	sd := formulas.StdDev(values)
	for i := range b.Ranking {
		g := &b.Ranking[i]
		g.ZScore = formulas.ZScore(g.Value.Value, b.Aggregate, sd)
		g.DiffBenchmark = diff(g.Value, b.Benchmark)
		g.PctBenchmark = relative(g.Value, b.Benchmark)
	}

	if n < 2 {
		reason := "fewer than two groups"
		b.Variation = Variation{
			Max:    formulas.Undefined(reason),
			Min:    formulas.Undefined(reason),
			Ratio:  formulas.Undefined(reason),
			Range:  formulas.Undefined(reason),
			StdDev: formulas.Undefined(reason),
			CV:     formulas.Undefined(reason),
		}
		b.Gini = formulas.Undefined(reason)
		return
	}

	top, bottom := b.Ranking[0], b.Ranking[n-1]
	ratio := formulas.MaxMinRatio(top.Value.Value, bottom.Value.Value)
	b.Variation = Variation{
		MaxGroup: top.Name,
		MinGroup: bottom.Name,
		Max:      top.Value,
		Min:      bottom.Value,
		Ratio:    ratio,
		Range:    formulas.Of(top.Value.Value - bottom.Value.Value),
		StdDev:   sd,
		CV:       formulas.CoefficientOfVariation(sd, b.Aggregate),
		High:     ratio.Defined && ratio.Value >= c.thresholds.VariationRatio,
	}
	b.Gini = formulas.Gini(values, weights)
}

// correlate relates the metric to cfg.CorrelateWith across rows, not groups.
func (c *Calculator) correlate(obs []observation, cfg MetricConfig) formulas.Correlation {
	if cfg.CorrelateWith == "" {
		return formulas.Correlation{
			R:      formulas.Undefined("not configured"),
			P:      formulas.Undefined("not configured"),
			Reason: "not configured",
		}
	}
	xs := make([]float64, 0, len(obs))
	ys := make([]float64, 0, len(obs))
	for _, o := range obs {
		y, ok := o.row.Measure(cfg.CorrelateWith)
		if !ok {
			continue
		}
		xs = append(xs, o.value)
		ys = append(ys, y)
	}
	return formulas.Pearson(xs, ys, c.thresholds.MinCorrelationN)
}

// gap sizes the units needed to bring every group that trails the benchmark
// by at least MinShortfall up to it, then values them with the constants.
func (c *Calculator) gap(b *Bundle, cfg MetricConfig) *Gap {
	if !b.Benchmark.Defined {
		return nil
	}
	var g Gap
	for _, s := range b.Ranking {
		shortfall := b.Benchmark.Value - s.Value.Value
		if shortfall <= 0 || shortfall < c.thresholds.MinShortfall {
			continue
		}
		units := formulas.UnitsForShortfall(shortfall, s.Weight, cfg.Scale)
		g.Groups = append(g.Groups, GapGroup{
			Name:       s.Name,
			Shortfall:  shortfall,
			Population: s.Weight,
			Units:      units,
		})
		g.Units += units
		g.Population += s.Weight
	}
	if len(g.Groups) == 0 {
		return nil
	}
	// Largest shortfall first, ties by name.
	sort.SliceStable(g.Groups, func(i, j int) bool {
		if g.Groups[i].Shortfall != g.Groups[j].Shortfall {
			return g.Groups[i].Shortfall > g.Groups[j].Shortfall
		}
		return g.Groups[i].Name < g.Groups[j].Name
	})
	g.Investment = formulas.SizeInvestment(g.Units, c.constants)
	return &g
}

func diff(v, benchmark formulas.Quantity) formulas.Quantity {
	if !v.Defined || !benchmark.Defined {
		return formulas.Undefined("benchmark undefined")
	}
	return formulas.Of(v.Value - benchmark.Value)
}

func relative(v, benchmark formulas.Quantity) formulas.Quantity {
	if !v.Defined || !benchmark.Defined {
		return formulas.Undefined("benchmark undefined")
	}
	if benchmark.Value == 0 {
		return formulas.Undefined("zero benchmark")
	}
	return formulas.Of((v.Value - benchmark.Value) / benchmark.Value)
}

// index registers every number in the bundle exactly once.
func index(b *Bundle, f *Formatter) map[string]Figure {
	figs := make(map[string]Figure)
	put := func(ref string, q formulas.Quantity, kind FigureKind) {
		figs[ref] = Figure{Ref: ref, Value: q.Value, Defined: q.Defined, Display: f.Format(q, kind)}
	}
	count := func(n float64) formulas.Quantity { return formulas.Of(n) }

	put(RefAggregate, b.Aggregate, KindMetric)
	put(RefBenchmark, b.Benchmark, KindMetric)
	put(RefSampleSize, count(float64(b.SampleSize)), KindCount)
	put(RefGroupCount, count(float64(b.GroupCount)), KindCount)

	for _, g := range b.Ranking {
		put(GroupRef(g.Name, RefGroupValue), g.Value, KindMetric)
		put(GroupRef(g.Name, RefGroupRank), count(float64(g.Rank)), KindCount)
		put(GroupRef(g.Name, RefGroupDiff), g.DiffBenchmark, KindMagnitude)
		put(GroupRef(g.Name, RefGroupPct), g.PctBenchmark, KindPercent)
		put(GroupRef(g.Name, RefGroupZ), g.ZScore, KindCoefficient)
	}

	v := b.Variation
	put(RefVarMax, v.Max, KindMetric)
	put(RefVarMin, v.Min, KindMetric)
	put(RefVarRatio, v.Ratio, KindRatio)
	put(RefVarRange, v.Range, KindMetric)
	put(RefVarStdDev, v.StdDev, KindMetric)
	put(RefVarCV, v.CV, KindPercent)
	put(RefGini, b.Gini, KindCoefficient)

	put(RefCorrR, b.Correlation.R, KindCoefficient)
	put(RefCorrP, b.Correlation.P, KindPValue)
	put(RefCorrN, count(float64(b.Correlation.N)), KindCount)

	if b.Gap != nil {
		put(RefGapUnits, count(b.Gap.Units), KindCount)
		put(RefGapPop, count(b.Gap.Population), KindCount)
		put(RefGapGroups, count(float64(len(b.Gap.Groups))), KindCount)
		put(RefGapCost, b.Gap.Investment.CostGBP, KindMoney)
		put(RefGapPV, b.Gap.Investment.PVBenefit, KindMoney)
		put(RefGapBCR, b.Gap.Investment.BCR, KindRatio)
		for _, g := range b.Gap.Groups {
			put(GroupRef(g.Name, RefGroupShort), count(g.Shortfall), KindMagnitude)
		}
	}
	return figs
}
