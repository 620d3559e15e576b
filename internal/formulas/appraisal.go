package formulas

import "math"

// Investment is the monetised sizing of a shortfall in whole stop units.
type Investment struct {
	Units         float64  `json:"units"`
	CostGBP       Quantity `json:"cost_gbp"`
	AnnualBenefit Quantity `json:"annual_benefit_gbp"`
	PVBenefit     Quantity `json:"pv_benefit_gbp"`
	BCR           Quantity `json:"bcr"`
	Band          VfMBand  `json:"band"`
}

// UnitsForShortfall converts a per-capita shortfall into whole units for a
// population: shortfall is measured per scale people, so a shortfall of 0.4
// stops per 1,000 over 25,000 people is 10 stops. Partial units round up.
func UnitsForShortfall(shortfall, population, scale float64) float64 {
	if shortfall <= 0 || population <= 0 || scale <= 0 {
		return 0
	}
	return math.Ceil(shortfall * population / scale)
}

// PresentValue discounts a constant annual flow over the appraisal period.
func PresentValue(annual float64, c Constants) Quantity {
	return Of(annual * c.AnnuityFactor())
}

// BenefitCostRatio is PV benefits over cost; undefined for a zero cost.
func BenefitCostRatio(pvBenefit, cost float64) Quantity {
	if cost <= 0 {
		return Undefined("zero cost")
	}
	return Of(pvBenefit / cost)
}

// SizeInvestment costs units at the unit cost and values the time they save.
func SizeInvestment(units float64, c Constants) Investment {
	if units <= 0 {
		return Investment{
			CostGBP:       Of(0),
			AnnualBenefit: Of(0),
			PVBenefit:     Of(0),
			BCR:           Undefined("no shortfall"),
			Band:          BandUndefined,
		}
	}
	cost := units * c.StopUnitCostGBP
	annual := units * c.HoursSavedPerStopYear * c.BlendedValueOfTime()
	pv := PresentValue(annual, c)
	bcr := BenefitCostRatio(pv.Or(0), cost)
	if !pv.Defined {
		bcr = Undefined(pv.Reason)
	}
	return Investment{
		Units:         units,
		CostGBP:       Of(cost),
		AnnualBenefit: Of(annual),
		PVBenefit:     pv,
		BCR:           bcr,
		Band:          BandFor(bcr),
	}
}
