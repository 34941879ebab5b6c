package celltools

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func nan() float64 {
	return math.NaN()
}

// northUpGrid builds a grid whose top-left corner is at (lng, lat) with
// square pixels of size degrees.
func northUpGrid(t testing.TB, width, height int, lng, lat, size float64, samples []float64) *RasterGrid {
	t.Helper()
	if samples == nil {
		samples = make([]float64, width*height)
	}
	grid, err := NewRasterGrid(width, height, GeoTransform{lng, size, 0, lat, 0, -size}, samples, nil)
	require.NoError(t, err)
	return grid
}

func filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func randomSamples(seed int64, n int, levels int) []float64 {
	r := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(r.Intn(levels))
	}
	return out
}

// hexagonAt returns a non-pentagon cell at res containing (lat, lng).
func hexagonAt(t testing.TB, lat, lng float64, res int) HexCell {
	t.Helper()
	cell, err := HexCellFromLatLng(lat, lng, res)
	require.NoError(t, err)
	require.False(t, cell.IsPentagon())
	return cell
}

func assertAntichain(t testing.TB, result AggregationResult) {
	t.Helper()
	present := make(map[HexCell]bool, len(result))
	for _, cv := range result {
		present[cv.Cell] = true
	}
	for _, cv := range result {
		cell := cv.Cell
		for cell.Resolution() > MinResolution {
			parent, err := cell.Parent()
			require.NoError(t, err)
			require.False(t, present[parent], "%s has ancestor %s in the result", cv.Cell, parent)
			cell = parent
		}
	}
}

func fmtPoint(latLng [2]float64) string {
	return fmt.Sprintf("%v %v", latLng[1], latLng[0])
}
