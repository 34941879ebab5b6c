package celltools

import (
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// MetersPerDegree approximates one degree of longitude at the equator.
const MetersPerDegree = 111320

// Resample returns a new grid whose pixels are about one edge length of
// target-1 wide, sampled by nearest neighbour so source values survive
// unchanged. No-data samples become 0 and the result carries no no-data value.
func Resample(grid *RasterGrid, target int) (*RasterGrid, error) {
	if err := ValidateResolution(target); err != nil {
		return nil, err
	}
	if err := grid.validate(); err != nil {
		return nil, err
	}
	edgeRes := target - 1
	if edgeRes < MinResolution {
		edgeRes = MinResolution
	}
	edgeM, err := EdgeLength(edgeRes, Meters)
	if err != nil {
		return nil, err
	}

	scale := grid.Transform.PixelSize() / (edgeM / MetersPerDegree)
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, errors.Wrapf(ErrDegenerateScale, "scale factor %v", scale)
	}
	width := int(math.Round(float64(grid.Width) * scale))
	height := int(math.Round(float64(grid.Height) * scale))
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrDegenerateScale, "scale factor %v turns %dx%d into %dx%d", scale, grid.Width, grid.Height, width, height)
	}
	logrus.Infof("Resampling %dx%d to %dx%d for %.2fm pixels", grid.Width, grid.Height, width, height, edgeM)

	xRatio := float64(grid.Width) / float64(width)
	yRatio := float64(grid.Height) / float64(height)

	srcCols := make([]int, width)
	for col := range srcCols {
		srcCols[col] = nearest(col, xRatio, grid.Width)
	}

	samples := make([]float64, width*height)
	for row := 0; row < height; row++ {
		srcRow := nearest(row, yRatio, grid.Height)
		for col, srcCol := range srcCols {
			v := grid.At(srcCol, srcRow)
			if grid.IsNoData(v) {
				v = 0
			}
			samples[row*width+col] = v
		}
	}

	out := &RasterGrid{
		GridGeometry: GridGeometry{
			Width:     width,
			Height:    height,
			Transform: grid.Transform.Scale(xRatio, yRatio),
		},
		Samples: samples,
	}
	logrus.Debug("Resampling done")
	return out, nil
}

// nearest maps an output pixel index to the source pixel containing its center.
func nearest(i int, ratio float64, limit int) int {
	src := int(math.Floor((float64(i) + 0.5) * ratio))
	if src >= limit {
		src = limit - 1
	}
	return src
}
