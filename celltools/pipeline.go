package celltools

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Acquirer turns a raster location (path or URL) into a local file path.
type Acquirer interface {
	Acquire(ctx context.Context, location string) (string, error)
}

// Opener reads band 1 of a local raster.
type Opener interface {
	Open(path string) (*RasterGrid, error)
}

// Persister replaces table with the rows of result.
type Persister interface {
	ReplaceTable(ctx context.Context, table string, result AggregationResult) error
}

// Sink receives the final result before it is persisted, e.g. a file export.
type Sink func(AggregationResult) error

// Config is everything one run needs besides its collaborators.
type Config struct {
	DatabaseURL string
	StoreDriver string
	CacheDir    string
	Resolution  int
	SearchMode  SearchMode
	Aggregate   AggregateOpts
}

type Pipeline struct {
	Config    Config
	Acquirer  Acquirer
	Opener    Opener
	Persister Persister
	Sink      Sink
}

// Run converts the raster at location into table. The resolution is checked
// before any I/O; a failure at any stage stops the run and names the stage.
func (p *Pipeline) Run(ctx context.Context, location, table string) (AggregationResult, error) {
	cfg := p.Config
	if err := ValidateResolution(cfg.Resolution); err != nil {
		return nil, err
	}
	if p.Acquirer == nil || p.Opener == nil || p.Persister == nil {
		return nil, errors.New("pipeline needs an acquirer, an opener and a persister")
	}

	path, err := p.Acquirer.Acquire(ctx, location)
	if err != nil {
		return nil, errors.Wrapf(err, "acquire %s", location)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	logrus.Infof("Processing raster file: %s", path)
	grid, err := p.Opener.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}

	result, err := p.process(grid)
	if err != nil {
		return nil, err
	}
	logrus.Infof("Raster calculation done in %v, %d cells", time.Since(start).Round(time.Millisecond), len(result))

	if p.Sink != nil {
		if err := p.Sink(result); err != nil {
			return nil, errors.Wrap(err, "export")
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.Persister.ReplaceTable(ctx, table, result); err != nil {
		return nil, errors.Wrapf(err, "persist %s", table)
	}
	return result, nil
}

func (p *Pipeline) process(grid *RasterGrid) (AggregationResult, error) {
	cfg := p.Config
	plan, err := PlanResolution(grid.Geometry(), cfg.Resolution, cfg.SearchMode)
	if err != nil {
		return nil, errors.Wrap(err, "select resolution")
	}
	if plan.Resample {
		grid, err = Resample(grid, cfg.Resolution)
		if err != nil {
			return nil, errors.Wrap(err, "resample")
		}
		native, err := NativeFittingResolution(grid.Geometry(), cfg.SearchMode)
		if err != nil {
			return nil, errors.Wrap(err, "resample")
		}
		logrus.Infof("New native resolution: %d", native)
		if native != cfg.Resolution {
			logrus.Warnf("Resampled native resolution %d does not match requested %d", native, cfg.Resolution)
		}
	}
	result, err := Aggregate(grid, cfg.Resolution, cfg.Aggregate)
	if err != nil {
		return nil, errors.Wrap(err, "aggregate")
	}
	return result, nil
}
