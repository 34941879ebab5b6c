package celltools

import (
	"math"

	"github.com/pkg/errors"
)

// GeoTransform maps pixel (col, row) to (lng, lat), in GDAL coefficient
// order: originX, pixelWidth, rowRotation, originY, colRotation, pixelHeight.
type GeoTransform [6]float64

func (gt GeoTransform) Apply(col, row float64) (lng, lat float64) {
	lng = gt[0] + col*gt[1] + row*gt[2]
	lat = gt[3] + col*gt[4] + row*gt[5]
	return lng, lat
}

func (gt GeoTransform) determinant() float64 {
	return gt[1]*gt[5] - gt[2]*gt[4]
}

func (gt GeoTransform) Invertible() bool {
	det := gt.determinant()
	return det != 0 && !math.IsNaN(det) && !math.IsInf(det, 0)
}

// Invert returns the transform mapping (lng, lat) back to fractional (col, row).
func (gt GeoTransform) Invert() (GeoTransform, error) {
	if !gt.Invertible() {
		return GeoTransform{}, errors.Wrapf(ErrDegenerateTransform, "transform %v", gt)
	}
	invDet := 1 / gt.determinant()
	a, b, d, e := gt[1]*invDet, gt[2]*invDet, gt[4]*invDet, gt[5]*invDet
	return GeoTransform{
		(gt[2]*gt[3] - gt[0]*gt[5]) * invDet,
		e,
		-b,
		(gt[0]*gt[4] - gt[1]*gt[3]) * invDet,
		-d,
		a,
	}, nil
}

// Scale stretches pixel size by sx along columns and sy along rows while
// keeping the origin fixed.
func (gt GeoTransform) Scale(sx, sy float64) GeoTransform {
	return GeoTransform{gt[0], gt[1] * sx, gt[2] * sy, gt[3], gt[4] * sx, gt[5] * sy}
}

// PixelSize is the length of one pixel step along the column axis, in
// transform units (degrees for EPSG:4326).
func (gt GeoTransform) PixelSize() float64 {
	return math.Hypot(gt[1], gt[4])
}

// GridGeometry is the shape of a raster without its samples.
type GridGeometry struct {
	Width     int
	Height    int
	Transform GeoTransform
}

func (g GridGeometry) validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return errors.Wrapf(ErrEmptyGrid, "grid is %dx%d", g.Width, g.Height)
	}
	if !g.Transform.Invertible() {
		return errors.Wrapf(ErrDegenerateTransform, "transform %v", g.Transform)
	}
	return nil
}

// RasterGrid is a single band held in memory, samples in row-major order.
// A grid is never modified after construction; Resample returns a new one.
type RasterGrid struct {
	GridGeometry
	Samples []float64
	NoData  *float64
}

func NewRasterGrid(width, height int, gt GeoTransform, samples []float64, noData *float64) (*RasterGrid, error) {
	geom := GridGeometry{Width: width, Height: height, Transform: gt}
	if err := geom.validate(); err != nil {
		return nil, err
	}
	if len(samples) != width*height {
		return nil, errors.Errorf("grid is %dx%d but has %d samples", width, height, len(samples))
	}
	return &RasterGrid{GridGeometry: geom, Samples: samples, NoData: noData}, nil
}

func (g *RasterGrid) Geometry() GridGeometry {
	return g.GridGeometry
}

func (g *RasterGrid) At(col, row int) float64 {
	return g.Samples[row*g.Width+col]
}

// IsNoData reports whether v is the grid's no-data sentinel. A NaN sentinel
// matches any NaN sample.
func (g *RasterGrid) IsNoData(v float64) bool {
	if g.NoData == nil {
		return false
	}
	nd := *g.NoData
	if math.IsNaN(nd) {
		return math.IsNaN(v)
	}
	return v == nd
}

// PixelCenter returns the geographic center of a pixel.
func (g *RasterGrid) PixelCenter(col, row int) (lat, lng float64) {
	lng, lat = g.Transform.Apply(float64(col)+0.5, float64(row)+0.5)
	return lat, lng
}
