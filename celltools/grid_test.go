package celltools

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeoTransformInvert(t *testing.T) {
	gt := GeoTransform{10, 0.5, 0.1, 40, 0.05, -0.25}
	inv, err := gt.Invert()
	require.NoError(t, err)

	for _, p := range [][2]float64{{0, 0}, {3, 7}, {12.5, 0.25}} {
		lng, lat := gt.Apply(p[0], p[1])
		col, row := inv.Apply(lng, lat)
		assert.InDelta(t, p[0], col, 1e-9)
		assert.InDelta(t, p[1], row, 1e-9)
	}
}

func TestGeoTransformDegenerate(t *testing.T) {
	_, err := GeoTransform{0, 0, 0, 0, 0, -1}.Invert()
	assert.True(t, errors.Is(err, ErrDegenerateTransform))
}

func TestGeoTransformScale(t *testing.T) {
	gt := GeoTransform{10, 0.01, 0, 50, 0, -0.02}
	scaled := gt.Scale(4, 2)
	assert.Equal(t, GeoTransform{10, 0.04, 0, 50, 0, -0.04}, scaled)
	assert.InDelta(t, 0.04, scaled.PixelSize(), 1e-12)
}

func TestNewRasterGrid(t *testing.T) {
	gt := GeoTransform{0, 1, 0, 0, 0, -1}

	_, err := NewRasterGrid(0, 3, gt, nil, nil)
	assert.True(t, errors.Is(err, ErrEmptyGrid))

	_, err = NewRasterGrid(2, 2, gt, []float64{1, 2, 3}, nil)
	assert.Error(t, err)

	_, err = NewRasterGrid(2, 2, GeoTransform{}, []float64{1, 2, 3, 4}, nil)
	assert.True(t, errors.Is(err, ErrDegenerateTransform))

	grid, err := NewRasterGrid(2, 2, gt, []float64{1, 2, 3, 4}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3.0, grid.At(0, 1))
	lat, lng := grid.PixelCenter(1, 0)
	assert.Equal(t, -0.5, lat)
	assert.Equal(t, 1.5, lng)
}

func TestIsNoData(t *testing.T) {
	nd := -9999.0
	grid := &RasterGrid{NoData: &nd}
	assert.True(t, grid.IsNoData(-9999))
	assert.False(t, grid.IsNoData(0))

	nan := nan()
	grid.NoData = &nan
	assert.True(t, grid.IsNoData(nan))
	assert.False(t, grid.IsNoData(1))

	grid.NoData = nil
	assert.False(t, grid.IsNoData(-9999))
}
