package viewctx

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitinsight/internal/types"
)

func regionRows(names ...string) []types.Row {
	rows := make([]types.Row, 0, len(names))
	for _, n := range names {
		rows = append(rows, types.Row{
			Dimensions: map[string]string{"region": n},
			Measures:   map[string]float64{"population": 1000, "stop_count": 5},
		})
	}
	return rows
}

func TestResolve_Modes(t *testing.T) {
	rows := regionRows("London", "Wales", "Scotland", "North East")

	all := Resolve(rows, "region", types.Filters{})
	assert.Equal(t, types.ModeAllPeers, all.Mode)
	assert.Equal(t, 4, all.GroupCount)
	assert.Equal(t, 4, all.Universe)
	assert.True(t, all.IsMultiGroup)
	assert.Equal(t, "all areas", all.FilterLabel)

	one := Resolve(rows, "region", types.Filters{Dimensions: map[string][]string{"region": {"Wales"}}})
	assert.Equal(t, types.ModeSingleSubject, one.Mode)
	assert.Equal(t, "Wales", one.Subject)
	assert.False(t, one.IsMultiGroup)

	subset := Resolve(rows, "region", types.Filters{Dimensions: map[string][]string{"region": {"Wales", "London"}}})
	assert.Equal(t, types.ModeSubsetOfPeers, subset.Mode)
	assert.Equal(t, []string{"London", "Wales"}, subset.Groups)
	assert.True(t, subset.IsMultiGroup)
}

func TestResolve_EmptyAndAbsent(t *testing.T) {
	empty := Resolve(nil, "region", types.Filters{})
	assert.Equal(t, types.ModeNoData, empty.Mode)
	assert.Equal(t, 0, empty.GroupCount)
	assert.False(t, empty.HasData())

	rows := regionRows("London", "Wales")
	absent := Resolve(rows, "region", types.Filters{Dimensions: map[string][]string{"region": {"Atlantis"}}})
	assert.Equal(t, types.ModeNoData, absent.Mode)
	assert.Equal(t, 0, absent.RowCount)
	assert.Equal(t, 2, absent.Universe)
}

// Every group count maps to exactly one mode, and zero never maps to a mode
// that would permit a narrative.
func TestClassify_Totality(t *testing.T) {
	const universe = 9
	for n := 0; n <= universe; n++ {
		t.Run(fmt.Sprintf("groups=%d", n), func(t *testing.T) {
			mode := Classify(n, universe)
			switch n {
			case 0:
				assert.Equal(t, types.ModeNoData, mode)
			case 1:
				assert.Equal(t, types.ModeSingleSubject, mode)
			case universe:
				assert.Equal(t, types.ModeAllPeers, mode)
			default:
				assert.Equal(t, types.ModeSubsetOfPeers, mode)
			}
		})
	}
}

func TestResolve_SingleGroupUniverse(t *testing.T) {
	vc := Resolve(regionRows("Wales", "Wales"), "region", types.Filters{})
	require.Equal(t, types.ModeSingleSubject, vc.Mode)
	assert.Equal(t, 2, vc.RowCount)
	assert.Equal(t, 1, vc.GroupCount)
}

func TestResolve_FilterOnOtherDimension(t *testing.T) {
	rows := []types.Row{
		{Dimensions: map[string]string{"region": "Wales", "area_type": "Rural"}},
		{Dimensions: map[string]string{"region": "Wales", "area_type": "Urban"}},
		{Dimensions: map[string]string{"region": "London", "area_type": "Urban"}},
	}
	vc := Resolve(rows, "region", types.Filters{Dimensions: map[string][]string{"area_type": {"Rural"}}})
	assert.Equal(t, types.ModeSingleSubject, vc.Mode)
	assert.Equal(t, 1, vc.RowCount)
	assert.Equal(t, "area_type: Rural", vc.FilterLabel)
}

func TestApply_PreservesOrder(t *testing.T) {
	rows := regionRows("C", "A", "B", "A")
	got := Apply(rows, types.Filters{Dimensions: map[string][]string{"region": {"A", "B"}}})
	require.Len(t, got, 3)
	assert.Equal(t, "A", got[0].Dimensions["region"])
	assert.Equal(t, "B", got[1].Dimensions["region"])
}
