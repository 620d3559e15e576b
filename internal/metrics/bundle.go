// Package metrics computes every number a narrative needs, exactly once per
// request, into a Bundle. Rules, the renderer and any co-rendered chart read
// numbers only from the bundle's figure index.
package metrics

import "transitinsight/internal/formulas"

// Bundle is the computed-once numeric truth for one request.
type Bundle struct {
	Section string `json:"section"`
	Unit    string `json:"unit"`

	// Available is false when a required column is absent; MissingFields
	// then lists them and nothing else is populated.
	Available     bool     `json:"available"`
	MissingFields []string `json:"missing_fields,omitempty"`

	SampleSize int               `json:"sample_size"`
	GroupCount int               `json:"group_count"`
	Aggregate  formulas.Quantity `json:"aggregate"`
	Benchmark  formulas.Quantity `json:"benchmark"`

	Ranking     []GroupStat          `json:"ranking"`
	Variation   Variation            `json:"variation"`
	Gini        formulas.Quantity    `json:"gini"`
	Correlation formulas.Correlation `json:"correlation"`
	// CorrelateLabel names the variable the metric was correlated with.
	CorrelateLabel string `json:"correlate_label,omitempty"`
	Gap            *Gap   `json:"gap,omitempty"`

	Figures map[string]Figure `json:"figures"`
}

// GroupStat is one group's position, in ranking order.
type GroupStat struct {
	Name          string            `json:"name"`
	Rank          int               `json:"rank"`
	Value         formulas.Quantity `json:"value"`
	Weight        float64           `json:"weight"`
	Rows          int               `json:"rows"`
	DiffBenchmark formulas.Quantity `json:"diff_benchmark"`
	PctBenchmark  formulas.Quantity `json:"pct_benchmark"`
	ZScore        formulas.Quantity `json:"z_score"`
}

// Variation summarises spread across groups.
type Variation struct {
	MaxGroup string            `json:"max_group,omitempty"`
	MinGroup string            `json:"min_group,omitempty"`
	Max      formulas.Quantity `json:"max"`
	Min      formulas.Quantity `json:"min"`
	Ratio    formulas.Quantity `json:"ratio"`
	Range    formulas.Quantity `json:"range"`
	StdDev   formulas.Quantity `json:"std_dev"`
	CV       formulas.Quantity `json:"cv"`
	// High is set when Ratio meets the configured variation threshold.
	High bool `json:"high"`
}

// Gap is the investment needed to lift below-benchmark groups to it. Groups
// are ordered by shortfall, largest first.
type Gap struct {
	Groups     []GapGroup          `json:"groups"`
	Units      float64             `json:"units"`
	Population float64             `json:"population"`
	Investment formulas.Investment `json:"investment"`
}

// GapGroup is one group counted toward the gap.
type GapGroup struct {
	Name       string  `json:"name"`
	Shortfall  float64 `json:"shortfall"`
	Population float64 `json:"population"`
	Units      float64 `json:"units"`
}

// Figure returns the registered figure for ref.
func (b *Bundle) Figure(ref string) (Figure, bool) {
	f, ok := b.Figures[ref]
	return f, ok
}

// Group returns the named group's stats.
func (b *Bundle) Group(name string) (GroupStat, bool) {
	for _, g := range b.Ranking {
		if g.Name == name {
			return g, true
		}
	}
	return GroupStat{}, false
}

// Figure references. Group figures are built with GroupRef.
const (
	RefAggregate   = "aggregate"
	RefBenchmark   = "benchmark"
	RefSampleSize  = "sample_size"
	RefGroupCount  = "group_count"
	RefVarMax      = "variation/max"
	RefVarMin      = "variation/min"
	RefVarRatio    = "variation/ratio"
	RefVarRange    = "variation/range"
	RefVarStdDev   = "variation/stddev"
	RefVarCV       = "variation/cv"
	RefGini        = "inequality/gini"
	RefCorrR       = "correlation/r"
	RefCorrP       = "correlation/p"
	RefCorrN       = "correlation/n"
	RefGapUnits    = "gap/units"
	RefGapCost     = "gap/investment"
	RefGapPop      = "gap/population"
	RefGapPV       = "gap/pv_benefit"
	RefGapBCR      = "gap/bcr"
	RefGapGroups   = "gap/groups"
	RefGroupValue  = "value"
	RefGroupRank   = "rank"
	RefGroupDiff   = "diff_benchmark"
	RefGroupPct    = "pct_benchmark"
	RefGroupZ      = "zscore"
	RefGroupShort  = "shortfall"
	RefGroupPrefix = "group/"
)

// GroupRef builds "group/<name>/<field>".
func GroupRef(name, field string) string {
	return RefGroupPrefix + name + "/" + field
}

// unavailable is the bundle returned when required columns are absent.
func unavailable(section, unit string, missing []string) *Bundle {
	return &Bundle{
		Section:       section,
		Unit:          unit,
		MissingFields: missing,
		Aggregate:     formulas.Undefined("metric unavailable"),
		Benchmark:     formulas.Undefined("metric unavailable"),
		Gini:          formulas.Undefined("metric unavailable"),
		Correlation:   formulas.Correlation{R: formulas.Undefined("metric unavailable"), P: formulas.Undefined("metric unavailable")},
		Figures:       map[string]Figure{},
	}
}
