package celltools

import (
	"github.com/airbusgeo/godal"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// GDALOpener reads rasters through GDAL.
type GDALOpener struct{}

func (GDALOpener) Open(path string) (*RasterGrid, error) {
	return OpenRaster(path)
}

// OpenRaster loads band 1 of the raster at path, block by block.
func OpenRaster(path string) (grid *RasterGrid, err error) {
	godal.RegisterAll()
	ds, err := godal.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrAcquisition, "open raster %s: %v", path, err)
	}
	defer func() {
		if cerr := ds.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(ErrAcquisition, "close raster %s: %v", path, cerr)
		}
	}()

	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, errors.Wrapf(ErrAcquisition, "geotransform of %s: %v", path, err)
	}
	bands := ds.Bands()
	if len(bands) == 0 {
		return nil, errors.Wrapf(ErrEmptyGrid, "%s has no bands", path)
	}
	band := bands[0]
	struc := band.Structure()
	width, height := struc.SizeX, struc.SizeY
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrEmptyGrid, "%s is %dx%d", path, width, height)
	}

	samples := make([]float64, width*height)
	for block, ok := struc.FirstBlock(), true; ok; block, ok = block.Next() {
		logrus.Debugf("Reading block at [%v, %v]", block.X0, block.Y0)
		blockBuf := make([]float64, block.W*block.H)
		if err := band.Read(block.X0, block.Y0, blockBuf, block.W, block.H); err != nil {
			return nil, errors.Wrapf(ErrAcquisition, "read block [%d, %d] of %s: %v", block.X0, block.Y0, path, err)
		}
		for row := 0; row < block.H; row++ {
			dst := (block.Y0+row)*width + block.X0
			copy(samples[dst:dst+block.W], blockBuf[row*block.W:(row+1)*block.W])
		}
	}

	var noData *float64
	if nd, ok := band.NoData(); ok {
		noData = &nd
	} else {
		logrus.Debug("NoData not set")
	}
	return NewRasterGrid(width, height, GeoTransform(gt), samples, noData)
}
