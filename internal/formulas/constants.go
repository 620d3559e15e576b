package formulas

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Constants is the appraisal constants table. Values follow DfT TAG
// conventions and are supplied by configuration at process start.
type Constants struct {
	VoTCommuteGBPHour     float64 `validate:"gt=0"`
	VoTOtherGBPHour       float64 `validate:"gt=0"`
	CommuteShare          float64 `validate:"gte=0,lte=1"`
	DiscountRate          float64 `validate:"gte=0,lt=1"`
	AppraisalYears        int     `validate:"gt=0"`
	StopUnitCostGBP       float64 `validate:"gt=0"`
	HoursSavedPerStopYear float64 `validate:"gte=0"`
}

// DefaultConstants returns the constants used when nothing is overridden.
func DefaultConstants() Constants {
	return Constants{
		VoTCommuteGBPHour:     12.65,
		VoTOtherGBPHour:       5.77,
		CommuteShare:          0.3,
		DiscountRate:          0.035,
		AppraisalYears:        60,
		StopUnitCostGBP:       25000,
		HoursSavedPerStopYear: 1300,
	}
}

func (c Constants) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid appraisal constants: %w", err)
	}
	return nil
}

// BlendedValueOfTime weights commuting and other-purpose time values by the
// commuting share of trips.
func (c Constants) BlendedValueOfTime() float64 {
	return c.CommuteShare*c.VoTCommuteGBPHour + (1-c.CommuteShare)*c.VoTOtherGBPHour
}

// AnnuityFactor converts a constant annual flow into present value over the
// appraisal period.
func (c Constants) AnnuityFactor() float64 {
	if c.DiscountRate == 0 {
		return float64(c.AppraisalYears)
	}
	return (1 - math.Pow(1+c.DiscountRate, -float64(c.AppraisalYears))) / c.DiscountRate
}

// Thresholds are the evidence gates and cut-offs rules consult. They are
// pragmatic defaults rather than statistical standards, so every one is
// configurable.
type Thresholds struct {
	MinCorrelationN   int     `validate:"gte=3"`
	SignificanceLevel float64 `validate:"gt=0,lt=1"`
	VariationRatio    float64 `validate:"gt=1"`
	OutlierZ          float64 `validate:"gt=0"`
	GiniThreshold     float64 `validate:"gt=0,lt=1"`
	MinShortfall      float64 `validate:"gte=0"`
	MinRankingGroups  int     `validate:"gte=2"`
	MaxOutliers       int     `validate:"gte=1"`
	InLineTolerance   float64 `validate:"gte=0,lt=1"`
}

// DefaultThresholds returns the gates used when nothing is overridden.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinCorrelationN:   30,
		SignificanceLevel: 0.05,
		VariationRatio:    2.0,
		OutlierZ:          2.0,
		GiniThreshold:     0.2,
		MinShortfall:      0.5,
		MinRankingGroups:  3,
		MaxOutliers:       3,
		InLineTolerance:   0.005,
	}
}

func (t Thresholds) Validate() error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("invalid thresholds: %w", err)
	}
	return nil
}

// VfMBand is a DfT value-for-money category for a benefit-cost ratio.
type VfMBand string

const (
	BandPoor      VfMBand = "poor"
	BandLow       VfMBand = "low"
	BandMedium    VfMBand = "medium"
	BandHigh      VfMBand = "high"
	BandVeryHigh  VfMBand = "very_high"
	BandUndefined VfMBand = "undefined"
)

// Label is the wording used in prose.
func (b VfMBand) Label() string {
	switch b {
	case BandVeryHigh:
		return "very high"
	case BandUndefined:
		return "unassessed"
	default:
		return string(b)
	}
}

// BandFor classifies a BCR: poor <1, low 1–1.5, medium 1.5–2, high 2–4,
// very high ≥4.
func BandFor(bcr Quantity) VfMBand {
	if !bcr.Defined {
		return BandUndefined
	}
	switch v := bcr.Value; {
	case v < 1:
		return BandPoor
	case v < 1.5:
		return BandLow
	case v < 2:
		return BandMedium
	case v < 4:
		return BandHigh
	default:
		return BandVeryHigh
	}
}
