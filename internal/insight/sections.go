package insight

import (
	"transitinsight/internal/metrics"
	"transitinsight/internal/types"
)

// Section ids in the bus-stop catalogue.
const (
	SectionStopDensity            = "stop_density"
	SectionStopDensityAreaType    = "stop_density_area_type"
	SectionServiceFrequency       = "service_frequency"
	SectionStopDensityDeprivation = "stop_density_deprivation"
)

// Row fields the catalogue expects from ingestion.
const (
	ColRegion     = "region"
	ColAreaType   = "area_type"
	ColIMDDecile  = "imd_decile"
	ColPopulation = "population"
	ColStopCount  = "stop_count"
	ColDepartures = "weekly_departures"
	ColIMDScore   = "imd_score"
)

var (
	stopSources = []string{
		"DfT National Public Transport Access Nodes (NaPTAN)",
		"ONS mid-year population estimates",
	}
	deprivationSource = "MHCLG English Indices of Deprivation 2019"
	timetableSource   = "DfT Bus Open Data Service timetables"
)

// Catalogue returns the bus-stop sections. Each call returns fresh slices.
func Catalogue() []metrics.MetricConfig {
	density := func(id, title, groupBy, label string, ruleIDs ...types.RuleID) metrics.MetricConfig {
		return metrics.MetricConfig{
			ID:             id,
			Title:          title,
			GroupBy:        groupBy,
			GroupLabel:     label,
			ValueCol:       ColStopCount,
			WeightCol:      ColPopulation,
			ValueIsCount:   true,
			Scale:          1000,
			Unit:           "stops per 1,000 residents",
			Decimals:       1,
			CorrelateWith:  ColIMDScore,
			CorrelateLabel: "deprivation (IMD score)",
			Investable:     true,
			Sources:        append(append([]string(nil), stopSources...), deprivationSource),
			Rules:          ruleIDs,
		}
	}

	return []metrics.MetricConfig{
		density(SectionStopDensity, "Bus stop density", ColRegion, "region",
			types.RuleRanking,
			types.RulePositioning,
			types.RuleVariation,
			types.RuleOutlier,
			types.RuleInequality,
			types.RuleCorrelation,
			types.RuleGapToInvestment,
		),
		density(SectionStopDensityAreaType, "Bus stop density by area type", ColAreaType, "area type",
			types.RuleRanking,
			types.RulePositioning,
			types.RuleVariation,
			types.RuleCorrelation,
			types.RuleGapToInvestment,
		),
		density(SectionStopDensityDeprivation, "Bus stop density by deprivation decile", ColIMDDecile, "IMD decile",
			types.RuleRanking,
			types.RulePositioning,
			types.RuleVariation,
			types.RuleInequality,
			types.RuleGapToInvestment,
		),
		{
			ID:             SectionServiceFrequency,
			Title:          "Bus service frequency",
			GroupBy:        ColRegion,
			GroupLabel:     "region",
			ValueCol:       ColDepartures,
			WeightCol:      ColPopulation,
			ValueIsCount:   true,
			Scale:          1000,
			Unit:           "weekly departures per 1,000 residents",
			Decimals:       0,
			CorrelateWith:  ColIMDScore,
			CorrelateLabel: "deprivation (IMD score)",
			Sources:        []string{timetableSource, stopSources[1], deprivationSource},
			Rules: []types.RuleID{
				types.RuleRanking,
				types.RulePositioning,
				types.RuleVariation,
				types.RuleOutlier,
				types.RuleInequality,
				types.RuleCorrelation,
			},
		},
	}
}
