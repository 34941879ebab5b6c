package celltools

import "github.com/pkg/errors"

// Error kinds returned by the pipeline. Callers match them with errors.Is;
// every returned error wraps exactly one of these.
var (
	ErrInvalidResolution   = errors.New("invalid resolution")
	ErrInvalidUnit         = errors.New("invalid unit")
	ErrDegenerateScale     = errors.New("degenerate scale")
	ErrDegenerateTransform = errors.New("degenerate geotransform")
	ErrEmptyGrid           = errors.New("empty grid")
	ErrAcquisition         = errors.New("acquisition failure")
	ErrPersistence         = errors.New("persistence failure")
)
