package metrics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitinsight/internal/formulas"
	"transitinsight/internal/types"
	"transitinsight/internal/viewctx"
)

// Per-1,000 densities: 8.4, 7.2, 6.8, 6.5, 6.1, 5.9, 5.4, 4.8, 4.1. Weighted
// aggregate 1068/200 = 5.34 against a plain mean of 6.13.
var nineRegions = []struct {
	name  string
	pop   float64
	stops float64
}{
	{"London", 10000, 84},
	{"North West", 10000, 72},
	{"Wales", 10000, 68},
	{"South East", 10000, 65},
	{"West Midlands", 10000, 61},
	{"Yorkshire", 20000, 118},
	{"East Midlands", 30000, 162},
	{"South West", 40000, 192},
	{"North East", 60000, 246},
}

func regionRows() []types.Row {
	rows := make([]types.Row, 0, len(nineRegions))
	for _, r := range nineRegions {
		rows = append(rows, types.Row{
			Dimensions: map[string]string{"region": r.name},
			Measures:   map[string]float64{"population": r.pop, "stop_count": r.stops},
		})
	}
	return rows
}

func densityConfig() MetricConfig {
	return MetricConfig{
		ID:           "stop_density",
		Title:        "Bus stop density",
		GroupBy:      "region",
		GroupLabel:   "region",
		ValueCol:     "stop_count",
		WeightCol:    "population",
		ValueIsCount: true,
		Scale:        1000,
		Unit:         "stops per 1,000 residents",
		Decimals:     1,
		Investable:   true,
		Sources:      []string{"NaPTAN"},
		Rules:        []types.RuleID{types.RuleRanking},
	}
}

func compute(t *testing.T, rows []types.Row, cfg MetricConfig, filters types.Filters) *Bundle {
	t.Helper()
	calc := NewCalculator(formulas.DefaultConstants(), formulas.DefaultThresholds())
	vc := viewctx.Resolve(rows, cfg.GroupBy, filters)
	return calc.Compute(rows, cfg, vc)
}

func TestCompute_WeightedAggregate(t *testing.T) {
	b := compute(t, regionRows(), densityConfig(), types.Filters{})
	require.True(t, b.Available)

	var stops, pop, plain float64
	for _, r := range nineRegions {
		stops += r.stops
		pop += r.pop
		plain += 1000 * r.stops / r.pop
	}
	plain /= float64(len(nineRegions))

	require.True(t, b.Aggregate.Defined)
	assert.InDelta(t, 1000*stops/pop, b.Aggregate.Value, 1e-12)
	assert.InDelta(t, 5.34, b.Aggregate.Value, 1e-12)
	assert.InDelta(t, 6.1333, plain, 1e-4)
	assert.Greater(t, plain-b.Aggregate.Value, 0.75)
	// Unfiltered, the aggregate is the benchmark.
	assert.Equal(t, b.Aggregate, b.Benchmark)
	assert.Equal(t, "5.3", b.Figures[RefAggregate].Display)
}

func TestCompute_Ranking(t *testing.T) {
	b := compute(t, regionRows(), densityConfig(), types.Filters{})

	require.Len(t, b.Ranking, 9)
	assert.Equal(t, "London", b.Ranking[0].Name)
	assert.Equal(t, "North East", b.Ranking[8].Name)
	assert.Equal(t, 1, b.Ranking[0].Rank)
	assert.Equal(t, "8.4", b.Figures[GroupRef("London", RefGroupValue)].Display)
	assert.Equal(t, "4.1", b.Figures[GroupRef("North East", RefGroupValue)].Display)
	assert.Equal(t, "8.4", b.Figures[RefVarMax].Display)
	assert.Equal(t, "2.0", b.Figures[RefVarRatio].Display)
	assert.True(t, b.Variation.High)
}

func TestCompute_RankingTiesByName(t *testing.T) {
	rows := []types.Row{
		{Dimensions: map[string]string{"region": "Beta"}, Measures: map[string]float64{"population": 1000, "stop_count": 5}},
		{Dimensions: map[string]string{"region": "Alpha"}, Measures: map[string]float64{"population": 2000, "stop_count": 10}},
		{Dimensions: map[string]string{"region": "Gamma"}, Measures: map[string]float64{"population": 1000, "stop_count": 9}},
	}
	b := compute(t, rows, densityConfig(), types.Filters{})

	require.Len(t, b.Ranking, 3)
	assert.Equal(t, []string{"Gamma", "Alpha", "Beta"}, []string{b.Ranking[0].Name, b.Ranking[1].Name, b.Ranking[2].Name})
}

func TestCompute_MissingColumn(t *testing.T) {
	cfg := densityConfig()
	cfg.ValueCol = "frequency"

	b := compute(t, regionRows(), cfg, types.Filters{})
	assert.False(t, b.Available)
	assert.Equal(t, []string{"frequency"}, b.MissingFields)
	assert.Empty(t, b.Figures)

	cfg = densityConfig()
	cfg.GroupBy = "lsoa"
	b = compute(t, regionRows(), cfg, types.Filters{})
	assert.Equal(t, []string{"lsoa"}, b.MissingFields)
}

func TestCompute_SingleSubjectAgainstBenchmark(t *testing.T) {
	b := compute(t, regionRows(), densityConfig(), types.Filters{Dimensions: map[string][]string{"region": {"North East"}}})

	require.Equal(t, 1, b.GroupCount)
	assert.InDelta(t, 4.1, b.Aggregate.Value, 1e-12)
	assert.InDelta(t, 5.34, b.Benchmark.Value, 1e-12)
	assert.False(t, b.Variation.Ratio.Defined)
	assert.Equal(t, "undefined", b.Figures[RefVarRatio].Display)
	assert.Equal(t, "23.2%", b.Figures[GroupRef("North East", RefGroupPct)].Display)
}

func TestCompute_ZeroVarianceIsUndefined(t *testing.T) {
	rows := []types.Row{
		{Dimensions: map[string]string{"region": "A"}, Measures: map[string]float64{"population": 1000, "stop_count": 5}},
		{Dimensions: map[string]string{"region": "B"}, Measures: map[string]float64{"population": 2000, "stop_count": 10}},
	}
	b := compute(t, rows, densityConfig(), types.Filters{})

	assert.InDelta(t, 0, b.Variation.StdDev.Value, 1e-12)
	assert.False(t, b.Ranking[0].ZScore.Defined)
	assert.Equal(t, "undefined", b.Figures[GroupRef("A", RefGroupZ)].Display)
	assert.False(t, b.Variation.High)
	for ref, f := range b.Figures {
		assert.NotContains(t, f.Display, "NaN", ref)
		assert.NotContains(t, f.Display, "Inf", ref)
	}
}

func TestCompute_GapSizing(t *testing.T) {
	rows := []types.Row{
		{Dimensions: map[string]string{"region": "A"}, Measures: map[string]float64{"population": 10000, "stop_count": 20}},
		{Dimensions: map[string]string{"region": "B"}, Measures: map[string]float64{"population": 10000, "stop_count": 60}},
	}
	b := compute(t, rows, densityConfig(), types.Filters{})

	require.NotNil(t, b.Gap)
	require.Len(t, b.Gap.Groups, 1)
	assert.Equal(t, "A", b.Gap.Groups[0].Name)
	assert.Equal(t, 20.0, b.Gap.Units)
	assert.Equal(t, 500000.0, b.Gap.Investment.CostGBP.Value)
	assert.Equal(t, "£500,000", b.Figures[RefGapCost].Display)
	assert.Equal(t, formulas.BandVeryHigh, b.Gap.Investment.Band)
}

func TestCompute_GapRespectsMinimumShortfall(t *testing.T) {
	rows := []types.Row{
		{Dimensions: map[string]string{"region": "A"}, Measures: map[string]float64{"population": 10000, "stop_count": 38}},
		{Dimensions: map[string]string{"region": "B"}, Measures: map[string]float64{"population": 10000, "stop_count": 42}},
	}
	b := compute(t, rows, densityConfig(), types.Filters{})
	assert.Nil(t, b.Gap)

	cfg := densityConfig()
	cfg.Investable = false
	b = compute(t, regionRows(), cfg, types.Filters{})
	assert.Nil(t, b.Gap)
}

func TestCompute_GapOrderedByShortfall(t *testing.T) {
	var rows []types.Row
	for i, stops := range []float64{20, 19, 9, 8, 7, 2, 1} {
		rows = append(rows, types.Row{
			Dimensions: map[string]string{"region": string(rune('A' + i))},
			Measures:   map[string]float64{"population": 1000, "stop_count": stops},
		})
	}
	b := compute(t, rows, densityConfig(), types.Filters{})

	// Aggregate 66/7 ≈ 9.43; C falls short by 0.43 and is left out.
	require.NotNil(t, b.Gap)
	names := make([]string, 0, len(b.Gap.Groups))
	for _, g := range b.Gap.Groups {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{"G", "F", "E", "D"}, names)
	assert.InDelta(t, 66.0/7-1, b.Gap.Groups[0].Shortfall, 1e-9)

	nine := compute(t, regionRows(), densityConfig(), types.Filters{})
	require.NotNil(t, nine.Gap)
	require.Len(t, nine.Gap.Groups, 2)
	assert.Equal(t, "North East", nine.Gap.Groups[0].Name)
	assert.Equal(t, "South West", nine.Gap.Groups[1].Name)
}

func TestCompute_GapShortfallTiesByName(t *testing.T) {
	rows := []types.Row{
		{Dimensions: map[string]string{"region": "Top"}, Measures: map[string]float64{"population": 1000, "stop_count": 10}},
		{Dimensions: map[string]string{"region": "Zulu"}, Measures: map[string]float64{"population": 1000, "stop_count": 2}},
		{Dimensions: map[string]string{"region": "Alpha"}, Measures: map[string]float64{"population": 1000, "stop_count": 2}},
	}
	b := compute(t, rows, densityConfig(), types.Filters{})

	require.NotNil(t, b.Gap)
	require.Len(t, b.Gap.Groups, 2)
	assert.Equal(t, "Alpha", b.Gap.Groups[0].Name)
	assert.Equal(t, "Zulu", b.Gap.Groups[1].Name)
}

func areaRows(n int) []types.Row {
	rows := make([]types.Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, types.Row{
			Dimensions: map[string]string{"region": fmt.Sprintf("Area %02d", i)},
			Measures: map[string]float64{
				"population": 1000,
				"stop_count": float64(2 + i%7),
				"imd_score":  float64(40 - (i%7)*5),
			},
		})
	}
	return rows
}

func TestCompute_CorrelationFloor(t *testing.T) {
	cfg := densityConfig()
	cfg.CorrelateWith = "imd_score"
	cfg.CorrelateLabel = "deprivation"

	below := compute(t, areaRows(29), cfg, types.Filters{})
	assert.False(t, below.Correlation.Computable)
	assert.Equal(t, 29, below.Correlation.N)
	assert.Equal(t, "undefined", below.Figures[RefCorrR].Display)

	at := compute(t, areaRows(30), cfg, types.Filters{})
	require.True(t, at.Correlation.Computable)
	assert.InDelta(t, -1.0, at.Correlation.R.Value, 1e-9)
	assert.Equal(t, "-1.00", at.Figures[RefCorrR].Display)
	assert.Equal(t, "<0.001", at.Figures[RefCorrP].Display)
}

func TestCompute_Idempotent(t *testing.T) {
	cfg := densityConfig()
	cfg.CorrelateWith = "imd_score"
	cfg.CorrelateLabel = "deprivation"
	rows := areaRows(40)

	first := compute(t, rows, cfg, types.Filters{})
	second := compute(t, rows, cfg, types.Filters{})
	assert.Equal(t, first, second)
}

func TestCompute_EmptySelection(t *testing.T) {
	b := compute(t, regionRows(), densityConfig(), types.Filters{Dimensions: map[string][]string{"region": {"Atlantis"}}})
	assert.True(t, b.Available)
	assert.Equal(t, 0, b.GroupCount)
	assert.False(t, b.Aggregate.Defined)
	assert.True(t, b.Benchmark.Defined)
}
