// Package formulas holds the named appraisal constants, the evidence
// thresholds, and the pure calculators the metric layer is built from.
// Nothing in this package reads global state; every function is a pure
// function of its arguments.
package formulas

import "math"

// Quantity is a computed number that may be undefined. Degenerate inputs
// (zero variance, zero denominators, too few observations) produce an
// undefined Quantity with a Reason instead of NaN or Inf.
type Quantity struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
	Reason  string  `json:"reason,omitempty"`
}

// Of wraps v, converting NaN and ±Inf into an undefined quantity.
func Of(v float64) Quantity {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Undefined("non-finite result")
	}
	return Quantity{Value: v, Defined: true}
}

// Undefined returns a marked undefined quantity.
func Undefined(reason string) Quantity {
	return Quantity{Reason: reason}
}

// Map applies fn to a defined quantity; undefined quantities pass through.
func (q Quantity) Map(fn func(float64) float64) Quantity {
	if !q.Defined {
		return q
	}
	return Of(fn(q.Value))
}

// Or returns the value if defined, otherwise fallback.
func (q Quantity) Or(fallback float64) float64 {
	if !q.Defined {
		return fallback
	}
	return q.Value
}
