package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitinsight/internal/types"
)

func TestMetricConfig_Validate(t *testing.T) {
	require.NoError(t, densityConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*MetricConfig)
	}{
		{"missing group", func(c *MetricConfig) { c.GroupBy = "" }},
		{"no sources", func(c *MetricConfig) { c.Sources = nil }},
		{"no rules", func(c *MetricConfig) { c.Rules = nil }},
		{"duplicate rule", func(c *MetricConfig) { c.Rules = []types.RuleID{types.RuleRanking, types.RuleRanking} }},
		{"count without scale", func(c *MetricConfig) { c.Scale = 0 }},
		{"investable non-count", func(c *MetricConfig) { c.ValueIsCount = false }},
		{"correlate without label", func(c *MetricConfig) { c.CorrelateWith = "imd_score" }},
		{"same columns", func(c *MetricConfig) { c.WeightCol = c.ValueCol }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := densityConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestMetricConfig_HasRule(t *testing.T) {
	cfg := densityConfig()
	assert.True(t, cfg.HasRule(types.RuleRanking))
	assert.False(t, cfg.HasRule(types.RuleCorrelation))
}
