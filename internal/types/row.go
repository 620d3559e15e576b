package types

import (
	"sort"
	"strings"
)

// Row is one observational unit (a region or small area). Dimensions hold
// categorical fields such as region or area_type; Measures hold numeric
// fields such as population or stop_count. Rows are treated as immutable.
type Row struct {
	Dimensions map[string]string  `json:"dimensions"`
	Measures   map[string]float64 `json:"measures"`
}

// Dim returns the dimension value and whether the field exists.
func (r Row) Dim(name string) (string, bool) {
	v, ok := r.Dimensions[name]
	return v, ok
}

// Measure returns the measure value and whether the field exists.
func (r Row) Measure(name string) (float64, bool) {
	v, ok := r.Measures[name]
	return v, ok
}

// HasField reports whether name is present as a dimension or a measure.
func (r Row) HasField(name string) bool {
	if _, ok := r.Dimensions[name]; ok {
		return true
	}
	_, ok := r.Measures[name]
	return ok
}

// Filters selects rows by dimension values. Values within one dimension are
// OR-ed; dimensions are AND-ed. A dimension with no values is ignored.
type Filters struct {
	Dimensions map[string][]string `json:"dimensions,omitempty"`
}

// IsEmpty reports whether the filter selects everything.
func (f Filters) IsEmpty() bool {
	for _, vals := range f.Dimensions {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// HasFilter reports whether a constraint is set on dimension.
func (f Filters) HasFilter(dimension string) bool {
	return len(f.Dimensions[dimension]) > 0
}

// Matches reports whether a row passes every active dimension constraint.
// A row lacking a filtered dimension does not match.
func (f Filters) Matches(r Row) bool {
	for dim, vals := range f.Dimensions {
		if len(vals) == 0 {
			continue
		}
		got, ok := r.Dimensions[dim]
		if !ok {
			return false
		}
		hit := false
		for _, v := range vals {
			if v == got {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// Label renders the filter for citation in prose, e.g.
// "area_type: Rural; region: North East, Wales". Output is sorted so equal
// filters always produce the same label.
func (f Filters) Label() string {
	if f.IsEmpty() {
		return "all areas"
	}
	dims := make([]string, 0, len(f.Dimensions))
	for d, vals := range f.Dimensions {
		if len(vals) > 0 {
			dims = append(dims, d)
		}
	}
	sort.Strings(dims)

	parts := make([]string, 0, len(dims))
	for _, d := range dims {
		vals := append([]string(nil), f.Dimensions[d]...)
		sort.Strings(vals)
		parts = append(parts, d+": "+strings.Join(vals, ", "))
	}
	return strings.Join(parts, "; ")
}
