package celltools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAcquirer struct {
	calls int
	err   error
}

func (f *fakeAcquirer) Acquire(ctx context.Context, location string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "/cache/" + location, nil
}

type fakeOpener struct {
	grid *RasterGrid
	path string
}

func (f *fakeOpener) Open(path string) (*RasterGrid, error) {
	f.path = path
	return f.grid, nil
}

type fakePersister struct {
	tables map[string]AggregationResult
	err    error
}

func (f *fakePersister) ReplaceTable(ctx context.Context, table string, result AggregationResult) error {
	if f.err != nil {
		return f.err
	}
	if f.tables == nil {
		f.tables = make(map[string]AggregationResult)
	}
	f.tables[table] = result
	return nil
}

func testPipeline(t *testing.T, grid *RasterGrid, res int) (*Pipeline, *fakeAcquirer, *fakePersister) {
	t.Helper()
	acq := &fakeAcquirer{}
	store := &fakePersister{}
	return &Pipeline{
		Config: Config{
			Resolution: res,
			SearchMode: SmallerThanPixel,
			Aggregate:  DefaultAggregateOpts(),
		},
		Acquirer:  acq,
		Opener:    &fakeOpener{grid: grid},
		Persister: store,
	}, acq, store
}

func TestPipelineRejectsResolutionBeforeIO(t *testing.T) {
	p, acq, store := testPipeline(t, nil, 16)
	_, err := p.Run(context.Background(), "raster.tif", "t1")
	assert.True(t, errors.Is(err, ErrInvalidResolution), "got %v", err)
	assert.Zero(t, acq.calls)
	assert.Empty(t, store.tables)
}

func TestPipelineResamplesCoarserRequest(t *testing.T) {
	geom := equatorGeometry(0.001, 100)
	samples := make([]float64, 100*100)
	for i := range samples {
		if i%100 >= 50 {
			samples[i] = 1
		}
	}
	grid, err := NewRasterGrid(geom.Width, geom.Height, geom.Transform, samples, nil)
	require.NoError(t, err)

	p, acq, store := testPipeline(t, grid, 8)
	var exported AggregationResult
	p.Sink = func(r AggregationResult) error {
		exported = r
		return nil
	}

	result, err := p.Run(context.Background(), "raster.tif", "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, acq.calls)
	assert.Equal(t, "/cache/raster.tif", p.Opener.(*fakeOpener).path)
	require.NotEmpty(t, result)
	assert.Equal(t, result, store.tables["t1"])
	assert.Equal(t, result, exported)
	assertAntichain(t, result)
	for _, cv := range result {
		assert.LessOrEqual(t, cv.Cell.Resolution(), 8)
		assert.Contains(t, []float64{0, 1}, cv.Value)
	}
}

func TestPipelineStageFailures(t *testing.T) {
	grid := gridAroundCell(t, hexagonAt(t, 10, 20, 5), 4, 4, filled(16, 5))

	p, acq, store := testPipeline(t, grid, 5)
	acq.err = ErrAcquisition
	_, err := p.Run(context.Background(), "missing.tif", "t1")
	assert.True(t, errors.Is(err, ErrAcquisition), "got %v", err)
	assert.Contains(t, err.Error(), "acquire")

	// Coarser than the raster by far: resampling collapses it to nothing.
	p, _, store = testPipeline(t, grid, 5)
	_, err = p.Run(context.Background(), "raster.tif", "t1")
	assert.True(t, errors.Is(err, ErrDegenerateScale), "got %v", err)
	assert.Empty(t, store.tables)

	native, err := NativeFittingResolution(grid.Geometry(), SmallerThanPixel)
	require.NoError(t, err)
	p, _, store = testPipeline(t, grid, native)
	store.err = ErrPersistence
	_, err = p.Run(context.Background(), "raster.tif", "t1")
	assert.True(t, errors.Is(err, ErrPersistence), "got %v", err)

	p, _, _ = testPipeline(t, grid, native)
	p.Sink = func(AggregationResult) error { return errors.New("disk full") }
	_, err = p.Run(context.Background(), "raster.tif", "t1")
	assert.ErrorContains(t, err, "export")
}

func TestPipelineStopsWhenCancelled(t *testing.T) {
	grid := gridAroundCell(t, hexagonAt(t, 10, 20, 5), 4, 4, filled(16, 5))
	native, err := NativeFittingResolution(grid.Geometry(), SmallerThanPixel)
	require.NoError(t, err)
	p, _, store := testPipeline(t, grid, native)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Run(ctx, "raster.tif", "t1")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, store.tables)
}
