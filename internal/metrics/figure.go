package metrics

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"transitinsight/internal/formulas"
)

// Figure is one registered number: its stable reference, raw value and the
// exact text any prose or chart label must show for it.
type Figure struct {
	Ref     string  `json:"ref"`
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
	Display string  `json:"display"`
}

// FigureKind selects a display format.
type FigureKind int

const (
	// KindMetric uses the metric's own decimals.
	KindMetric FigureKind = iota
	// KindMagnitude shows |v| at metric decimals. Direction is carried
	// separately by the insight.
	KindMagnitude
	// KindPercent shows |v|·100 with a percent sign.
	KindPercent
	KindCount
	KindMoney
	KindRatio
	KindCoefficient
	KindPValue
)

const undefinedDisplay = "undefined"

// Formatter renders figures for British English. A Formatter is not safe
// for concurrent use; the calculator creates one per bundle.
type Formatter struct {
	p        *message.Printer
	decimals int
}

func NewFormatter(decimals int) *Formatter {
	return &Formatter{p: message.NewPrinter(language.BritishEnglish), decimals: decimals}
}

// Format returns the display text for q.
func (f *Formatter) Format(q formulas.Quantity, kind FigureKind) string {
	if !q.Defined {
		return undefinedDisplay
	}
	v := q.Value
	switch kind {
	case KindMetric:
		return f.fixed(v, f.decimals)
	case KindMagnitude:
		return f.fixed(math.Abs(v), f.decimals)
	case KindPercent:
		return f.fixed(math.Abs(v)*100, 1) + "%"
	case KindCount:
		return f.fixed(v, 0)
	case KindMoney:
		return f.money(v)
	case KindRatio:
		return f.fixed(v, 1)
	case KindCoefficient:
		return f.fixed(v, 2)
	case KindPValue:
		if v < 0.001 {
			return "<0.001"
		}
		return f.fixed(v, 3)
	default:
		return f.fixed(v, f.decimals)
	}
}

func (f *Formatter) fixed(v float64, decimals int) string {
	// Avoid "-0.0" for tiny negatives.
	if math.Abs(v) < 0.5*math.Pow10(-decimals) {
		v = 0
	}
	return f.p.Sprintf(fmt.Sprintf("%%.%df", decimals), v)
}

func (f *Formatter) money(v float64) string {
	switch a := math.Abs(v); {
	case a >= 1e9:
		return "£" + f.fixed(v/1e9, 1) + "bn"
	case a >= 1e6:
		return "£" + f.fixed(v/1e6, 1) + "m"
	default:
		return "£" + f.fixed(v, 0)
	}
}
