package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// WeightedMean returns Σ(v·w)/Σw. Pairs with a non-positive weight are
// ignored.
func WeightedMean(values, weights []float64) Quantity {
	var num, den float64
	for i, v := range values {
		w := weights[i]
		if w <= 0 {
			continue
		}
		num += v * w
		den += w
	}
	if den == 0 {
		return Undefined("zero total weight")
	}
	return Of(num / den)
}

// RatioOfSums returns scale·Σnum/Σden, the aggregate of a per-unit metric
// across rows. This equals WeightedMean of the per-row ratios weighted by
// den.
func RatioOfSums(num, den []float64, scale float64) Quantity {
	var n, d float64
	for i := range num {
		n += num[i]
		d += den[i]
	}
	if d == 0 {
		return Undefined("zero denominator")
	}
	return Of(scale * n / d)
}

// StdDev is the sample standard deviation of values.
func StdDev(values []float64) Quantity {
	if len(values) < 2 {
		return Undefined("fewer than two observations")
	}
	return Of(stat.StdDev(values, nil))
}

// MaxMinRatio is max/min; undefined when min is not positive.
func MaxMinRatio(max, min float64) Quantity {
	if min <= 0 {
		return Undefined("minimum is not positive")
	}
	return Of(max / min)
}

// CoefficientOfVariation is sd/mean.
func CoefficientOfVariation(sd, mean Quantity) Quantity {
	if !sd.Defined || !mean.Defined {
		return Undefined("inputs undefined")
	}
	if mean.Value == 0 {
		return Undefined("zero mean")
	}
	return Of(sd.Value / mean.Value)
}

// ZScore is (v-mean)/sd; undefined for zero spread.
func ZScore(v float64, mean, sd Quantity) Quantity {
	if !mean.Defined || !sd.Defined {
		return Undefined("inputs undefined")
	}
	if sd.Value == 0 {
		return Undefined("zero variance")
	}
	return Of((v - mean.Value) / sd.Value)
}

// Correlation is a Pearson coefficient with its two-tailed p-value.
// Computable is false when the sample is below the floor or degenerate;
// R and P are then undefined.
type Correlation struct {
	R          Quantity `json:"r"`
	P          Quantity `json:"p"`
	N          int      `json:"n"`
	Computable bool     `json:"computable"`
	Reason     string   `json:"reason,omitempty"`
}

// Pearson correlates x and y. Below minN it never computes a coefficient.
func Pearson(x, y []float64, minN int) Correlation {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n < minN || n < 3 {
		return notComputable(n, "sample below minimum")
	}
	x, y = x[:n], y[:n]
	if zeroSpread(x) || zeroSpread(y) {
		return notComputable(n, "zero variance")
	}

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return notComputable(n, "zero variance")
	}
	// Rounding can push |r| fractionally past 1.
	r = math.Max(-1, math.Min(1, r))

	return Correlation{
		R:          Of(r),
		P:          Of(TwoTailedP(r, n)),
		N:          n,
		Computable: true,
	}
}

// TwoTailedP is the p-value of Pearson's r under H0: ρ=0, using
// t = r·√((n-2)/(1-r²)) against Student's t with n-2 degrees of freedom.
func TwoTailedP(r float64, n int) float64 {
	df := float64(n - 2)
	if math.Abs(r) >= 1 {
		return 0
	}
	t := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return math.Min(1, 2*dist.Survival(math.Abs(t)))
}

func notComputable(n int, reason string) Correlation {
	return Correlation{
		R:      Undefined(reason),
		P:      Undefined(reason),
		N:      n,
		Reason: reason,
	}
}

func zeroSpread(xs []float64) bool {
	for _, v := range xs[1:] {
		if v != xs[0] {
			return false
		}
	}
	return true
}

// Gini is the weighted Gini coefficient of values:
// Σi Σj wi·wj·|xi−xj| / (2·(Σw)²·μ).
func Gini(values, weights []float64) Quantity {
	if len(values) < 2 {
		return Undefined("fewer than two groups")
	}
	// Sorted order makes the floating-point sums independent of input order.
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })
	xs := make([]float64, 0, len(values))
	ws := make([]float64, 0, len(values))
	for _, i := range idx {
		if weights[i] > 0 {
			xs = append(xs, values[i])
			ws = append(ws, weights[i])
		}
	}

	mean := WeightedMean(xs, ws)
	if !mean.Defined {
		return mean
	}
	if mean.Value <= 0 {
		return Undefined("mean is not positive")
	}

	var totalW, acc float64
	for i := range xs {
		totalW += ws[i]
		for j := range xs {
			acc += ws[i] * ws[j] * math.Abs(xs[i]-xs[j])
		}
	}
	return Of(acc / (2 * totalW * totalW * mean.Value))
}
