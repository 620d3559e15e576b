package insight

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"transitinsight/internal/metrics"
	"transitinsight/internal/types"
)

// Per-1,000 densities 8.4 … 4.1. The low-density regions are the most
// populous, so the weighted aggregate (1068/200 = 5.34) sits well below the
// plain mean of the nine values (6.13). London, at z ≈ 2.4, is the only
// outlier; South West and North East trail the aggregate.
var nineRegions = []struct {
	name  string
	pop   float64
	stops float64
}{
	{"London", 10000, 84},
	{"North West", 10000, 72},
	{"Wales", 10000, 68},
	{"South East", 10000, 65},
	{"West Midlands", 10000, 61},
	{"Yorkshire", 20000, 118},
	{"East Midlands", 30000, 162},
	{"South West", 40000, 192},
	{"North East", 60000, 246},
}

func regionRows() []types.Row {
	rows := make([]types.Row, 0, len(nineRegions))
	for _, r := range nineRegions {
		rows = append(rows, types.Row{
			Dimensions: map[string]string{ColRegion: r.name, ColAreaType: "Urban"},
			Measures:   map[string]float64{ColPopulation: r.pop, ColStopCount: r.stops},
		})
	}
	return rows
}

// areaRows builds n small areas spread over four regions with stop density
// perfectly tracking deprivation.
func areaRows(n int) []types.Row {
	regions := []string{"London", "Wales", "North East", "South West"}
	rows := make([]types.Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, types.Row{
			Dimensions: map[string]string{
				ColRegion:   regions[i%len(regions)],
				"lsoa_code": fmt.Sprintf("E0100%04d", i),
			},
			Measures: map[string]float64{
				ColPopulation: 1500,
				ColStopCount:  float64(3 + i),
				ColIMDScore:   float64(10 + 2*i),
			},
		})
	}
	return rows
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sectionConfig(t *testing.T, id string) metrics.MetricConfig {
	t.Helper()
	for _, cfg := range Catalogue() {
		if cfg.ID == id {
			return cfg
		}
	}
	t.Fatalf("section %s not in catalogue", id)
	return metrics.MetricConfig{}
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(Options{Logger: quietLogger()}, Catalogue()...)
	require.NoError(t, err)
	return e
}
