package metrics

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"transitinsight/internal/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// MetricConfig declares what to compute for one analytical section. It is
// configured once and reused for every request against that section.
type MetricConfig struct {
	ID    string `json:"id" validate:"required"`
	Title string `json:"title" validate:"required"`

	GroupBy string `json:"group_by" validate:"required"`
	// GroupLabel is the singular noun for a group in prose, e.g. "region".
	GroupLabel string `json:"group_label" validate:"required"`

	ValueCol  string `json:"value_col" validate:"required"`
	WeightCol string `json:"weight_col" validate:"required"`
	// ValueIsCount means ValueCol holds a count and the metric is
	// ValueCol/WeightCol·Scale (e.g. stops per 1,000 residents).
	ValueIsCount bool    `json:"value_is_count"`
	Scale        float64 `json:"scale" validate:"gte=0"`
	Unit         string  `json:"unit" validate:"required"`
	Decimals     int     `json:"decimals" validate:"gte=0,lte=4"`

	// CorrelateWith is an optional row measure to correlate the metric with
	// at row level (e.g. imd_score).
	CorrelateWith  string `json:"correlate_with,omitempty"`
	CorrelateLabel string `json:"correlate_label,omitempty" validate:"required_with=CorrelateWith"`

	// Investable enables gap-to-investment sizing. The metric must be a
	// per-capita count so a shortfall converts into whole units.
	Investable bool `json:"investable"`

	Sources []string       `json:"sources" validate:"required,min=1,dive,required"`
	Rules   []types.RuleID `json:"rules" validate:"required,min=1,unique,dive,required"`
}

// Validate checks struct tags and the cross-field constraints.
func (c MetricConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("metric %q: %w", c.ID, err)
	}
	if c.ValueIsCount && c.Scale <= 0 {
		return fmt.Errorf("metric %q: scale must be positive for count metrics", c.ID)
	}
	if c.Investable && !c.ValueIsCount {
		return fmt.Errorf("metric %q: investable metrics must be count metrics", c.ID)
	}
	if c.GroupBy == c.ValueCol || c.ValueCol == c.WeightCol {
		return errors.New("metric " + c.ID + ": group, value and weight columns must differ")
	}
	return nil
}

// HasRule reports whether id is eligible for this metric.
func (c MetricConfig) HasRule(id types.RuleID) bool {
	for _, r := range c.Rules {
		if r == id {
			return true
		}
	}
	return false
}

// missingFields lists required columns present on none of rows.
func (c MetricConfig) missingFields(rows []types.Row) []string {
	var missing []string
	check := func(name string) {
		for _, r := range rows {
			if r.HasField(name) {
				return
			}
		}
		missing = append(missing, name)
	}
	check(c.GroupBy)
	check(c.ValueCol)
	check(c.WeightCol)
	return missing
}
