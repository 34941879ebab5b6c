package celltools

import (
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const defaultBandRows = 64

// CellValue is one output row.
type CellValue struct {
	Cell  HexCell
	Value float64
}

func (c CellValue) String() string {
	return fmt.Sprintf("%s,%v", c.Cell, c.Value)
}

// AggregationResult holds cells sorted by index, unique by index.
type AggregationResult []CellValue

type AggregateOpts struct {
	// Policy decides the value of a cell that receives several samples.
	Policy  AggPolicy
	Compact bool
	// NumWorkers bounds the goroutines locating cells. Output does not
	// depend on it.
	NumWorkers int
	// BandRows is the number of raster rows handed to a worker at a time.
	BandRows int
}

func DefaultAggregateOpts() AggregateOpts {
	return AggregateOpts{
		Policy:     PolicyLast,
		Compact:    true,
		NumWorkers: 1,
		BandRows:   defaultBandRows,
	}
}

// sample ties a cell to the pixel that painted it.
type sample struct {
	pixel int
	cell  HexCell
}

type rowBand struct {
	start, end int
}

// Aggregate maps every valid pixel of grid onto cells at res and reduces
// cells hit by several pixels with the configured policy. Samples are
// folded in row-major scan order, so PolicyLast keeps the pixel painted
// last. When res is at or finer than the grid's native fitting resolution,
// every cell whose center lies inside a pixel also takes that pixel's
// value, so small cells between pixel centers are not left empty.
func Aggregate(grid *RasterGrid, res int, opts AggregateOpts) (AggregationResult, error) {
	if grid == nil {
		return nil, errors.Wrap(ErrEmptyGrid, "nil grid")
	}
	if err := ValidateResolution(res); err != nil {
		return nil, err
	}
	if err := grid.validate(); err != nil {
		return nil, err
	}
	if len(grid.Samples) != grid.Width*grid.Height {
		return nil, errors.Errorf("grid is %dx%d but has %d samples", grid.Width, grid.Height, len(grid.Samples))
	}
	if opts.Policy == "" {
		opts.Policy = PolicyLast
	}

	native, err := NativeFittingResolution(grid.Geometry(), SmallerThanPixel)
	if err != nil {
		return nil, err
	}
	fill := res >= native
	logrus.Debugf("Aggregating %dx%d grid at resolution %d (native %d, fill %v, policy %s)", grid.Width, grid.Height, res, native, fill, opts.Policy)

	samples, err := locateSamples(grid, res, fill, opts)
	if err != nil {
		return nil, err
	}
	leaves, mixed := aggCellResults(groupByCell(grid, samples), opts.Policy.Func())
	logrus.Infof("Located %d samples in %d cells (%d mixed)", len(samples), len(leaves), len(mixed))

	if opts.Compact {
		leaves, err = compact(leaves, mixed, res)
		if err != nil {
			return nil, err
		}
		logrus.Infof("Compacted to %d cells", len(leaves))
	}
	return sortedResult(leaves), nil
}

// locateSamples splits the grid into row bands, locates each band
// concurrently and concatenates the bands in row order.
func locateSamples(grid *RasterGrid, res int, fill bool, opts AggregateOpts) ([]sample, error) {
	inv, err := grid.Transform.Invert()
	if err != nil {
		return nil, err
	}
	bandRows := opts.BandRows
	if bandRows <= 0 {
		bandRows = defaultBandRows
	}
	workers := opts.NumWorkers
	if workers <= 0 {
		workers = 1
	}

	var bands []rowBand
	for start := 0; start < grid.Height; start += bandRows {
		end := start + bandRows
		if end > grid.Height {
			end = grid.Height
		}
		bands = append(bands, rowBand{start, end})
	}

	results := make([][]sample, len(bands))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, band := range bands {
		g.Go(func() error {
			located, err := locateBand(grid, inv, band, res, fill)
			if err != nil {
				return err
			}
			results[i] = located
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, r := range results {
		total += len(r)
	}
	samples := make([]sample, 0, total)
	for _, r := range results {
		samples = append(samples, r...)
	}
	return samples, nil
}

func locateBand(grid *RasterGrid, inv GeoTransform, band rowBand, res int, fill bool) ([]sample, error) {
	logrus.Debugf("Locating rows [%d, %d)", band.start, band.end)
	out := make([]sample, 0, (band.end-band.start)*grid.Width)
	for row := band.start; row < band.end; row++ {
		for col := 0; col < grid.Width; col++ {
			pix := row*grid.Width + col
			if grid.IsNoData(grid.Samples[pix]) {
				continue
			}
			lat, lng := grid.PixelCenter(col, row)
			cell, err := HexCellFromLatLng(lat, lng, res)
			if err != nil {
				return nil, err
			}
			out = append(out, sample{pix, cell})
		}
	}
	if !fill {
		return out, nil
	}

	cells, err := cellsInPolygon(bandRing(grid, band), res)
	if err != nil {
		return nil, err
	}
	for _, cell := range cells {
		lat, lng, err := cell.Center()
		if err != nil {
			return nil, err
		}
		colF, rowF := inv.Apply(lng, lat)
		col, row := int(math.Floor(colF)), int(math.Floor(rowF))
		if col < 0 || col >= grid.Width || row < band.start || row >= band.end {
			continue
		}
		pix := row*grid.Width + col
		if grid.IsNoData(grid.Samples[pix]) {
			continue
		}
		out = append(out, sample{pix, cell})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].pixel != out[j].pixel {
			return out[i].pixel < out[j].pixel
		}
		return out[i].cell.Less(out[j].cell)
	})
	deduped := out[:0]
	for _, s := range out {
		if len(deduped) > 0 && s == deduped[len(deduped)-1] {
			continue
		}
		deduped = append(deduped, s)
	}
	return deduped, nil
}

// bandRing is the outline of a row band as (lng, lat) vertices.
func bandRing(grid *RasterGrid, band rowBand) [][2]float64 {
	w := float64(grid.Width)
	corners := [][2]float64{
		{0, float64(band.start)},
		{w, float64(band.start)},
		{w, float64(band.end)},
		{0, float64(band.end)},
	}
	ring := make([][2]float64, len(corners))
	for i, c := range corners {
		lng, lat := grid.Transform.Apply(c[0], c[1])
		ring[i] = [2]float64{lng, lat}
	}
	return ring
}

// groupByCell collects sample values per cell, keeping scan order.
func groupByCell(grid *RasterGrid, samples []sample) map[HexCell][]float64 {
	outMap := make(map[HexCell][]float64)
	for _, s := range samples {
		outMap[s.cell] = append(outMap[s.cell], grid.Samples[s.pixel])
	}
	return outMap
}

// aggCellResults reduces every cell's samples with aggFunc. Cells whose
// samples disagree are also returned as mixed: their reduced value is what
// gets written, but they never merge with their siblings.
func aggCellResults(resMap map[HexCell][]float64, aggFunc AggFunc) (map[HexCell]float64, map[HexCell]bool) {
	out := make(map[HexCell]float64, len(resMap))
	mixed := make(map[HexCell]bool)
	for cell, values := range resMap {
		out[cell] = aggFunc(values...)
		for _, v := range values[1:] {
			if v != values[0] {
				mixed[cell] = true
				break
			}
		}
	}
	return out, mixed
}

func sortedResult(cells map[HexCell]float64) AggregationResult {
	out := make(AggregationResult, 0, len(cells))
	for cell, v := range cells {
		out = append(out, CellValue{cell, v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cell.Less(out[j].Cell) })
	return out
}
