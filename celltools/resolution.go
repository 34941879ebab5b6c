package celltools

import (
	"math"
	"strings"

	"github.com/golang/geo/s2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const EarthRadius = 6371000

type SearchMode int

const (
	// SmallerThanPixel picks the coarsest resolution whose edge length is
	// below the pixel footprint.
	SmallerThanPixel SearchMode = iota
	// MinDiff picks the resolution whose edge length is closest to the
	// pixel footprint.
	MinDiff
)

func (m SearchMode) String() string {
	switch m {
	case SmallerThanPixel:
		return "smaller_than_pixel"
	case MinDiff:
		return "min_diff"
	default:
		return "unknown"
	}
}

func ParseSearchMode(s string) (SearchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "smaller_than_pixel":
		return SmallerThanPixel, nil
	case "min_diff":
		return MinDiff, nil
	default:
		return 0, errors.Errorf("search mode %q not recognized, choose from: smaller_than_pixel, min_diff", s)
	}
}

// PixelFootprint returns the ground size in meters of one pixel at the grid
// center, as the side of a square with the pixel's area.
func PixelFootprint(geom GridGeometry) (float64, error) {
	if err := geom.validate(); err != nil {
		return 0, err
	}
	cx, cy := float64(geom.Width)/2, float64(geom.Height)/2
	origin := latLngAt(geom.Transform, cx, cy)
	across := latLngAt(geom.Transform, cx+1, cy)
	down := latLngAt(geom.Transform, cx, cy+1)

	width := origin.Distance(across).Radians() * EarthRadius
	height := origin.Distance(down).Radians() * EarthRadius
	footprint := math.Sqrt(width * height)
	if footprint <= 0 || math.IsNaN(footprint) || math.IsInf(footprint, 0) {
		return 0, errors.Wrapf(ErrDegenerateTransform, "pixel footprint %v m", footprint)
	}
	return footprint, nil
}

func latLngAt(gt GeoTransform, col, row float64) s2.LatLng {
	lng, lat := gt.Apply(col, row)
	return s2.LatLngFromDegrees(lat, lng)
}

// NativeFittingResolution returns the resolution that best matches the
// grid's pixel size under the given search mode.
func NativeFittingResolution(geom GridGeometry, mode SearchMode) (int, error) {
	footprint, err := PixelFootprint(geom)
	if err != nil {
		return 0, err
	}
	switch mode {
	case SmallerThanPixel:
		for res := MinResolution; res <= MaxResolution; res++ {
			if edgeLengthsKm[res]*1000 < footprint {
				return res, nil
			}
		}
		return MaxResolution, nil
	case MinDiff:
		best, bestDiff := MinResolution, math.Inf(1)
		for res := MinResolution; res <= MaxResolution; res++ {
			diff := math.Abs(edgeLengthsKm[res]*1000 - footprint)
			if diff < bestDiff {
				best, bestDiff = res, diff
			}
		}
		return best, nil
	default:
		return 0, errors.Errorf("unknown search mode %d", mode)
	}
}

// ResolutionPlan records how a requested resolution relates to the grid.
type ResolutionPlan struct {
	Requested int
	Native    int
	// Resample is set when the request is coarser than the grid, so the
	// grid should be shrunk before aggregation.
	Resample bool
	// FinerThanNative is set when the request asks for more detail than the
	// pixels carry; samples will be repeated across several cells.
	FinerThanNative bool
}

func PlanResolution(geom GridGeometry, requested int, mode SearchMode) (ResolutionPlan, error) {
	if err := ValidateResolution(requested); err != nil {
		return ResolutionPlan{}, err
	}
	native, err := NativeFittingResolution(geom, mode)
	if err != nil {
		return ResolutionPlan{}, err
	}
	plan := ResolutionPlan{
		Requested:       requested,
		Native:          native,
		Resample:        requested < native,
		FinerThanNative: requested > native,
	}
	logrus.Infof("Native fitting resolution %d (%s), requested %d", native, mode, requested)
	if plan.FinerThanNative {
		logrus.Warnf("Requested resolution %d is finer than the raster supports (%d); samples will be duplicated across cells", requested, native)
	}
	return plan, nil
}
