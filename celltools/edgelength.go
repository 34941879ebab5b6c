package celltools

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	MinResolution = 0
	MaxResolution = 15
)

type Unit string

const (
	Kilometers Unit = "km"
	Meters     Unit = "m"
)

// Average hexagon edge length in km for resolutions 0 to 15. These must not
// change: existing tables were produced against exactly these values.
var edgeLengthsKm = [MaxResolution + 1]float64{
	1281.256011,
	483.0568391,
	182.5129565,
	68.97922179,
	26.07175968,
	9.854090990,
	3.724532667,
	1.406475763,
	0.531414010,
	0.200786148,
	0.075863783,
	0.028663897,
	0.010830188,
	0.004092010,
	0.001546100,
	0.000584169,
}

func ValidateResolution(res int) error {
	if res < MinResolution || res > MaxResolution {
		return errors.Wrapf(ErrInvalidResolution, "resolution %d must be between %d and %d", res, MinResolution, MaxResolution)
	}
	return nil
}

// EdgeLength returns the average edge length of a cell at res in the given unit.
func EdgeLength(res int, unit Unit) (float64, error) {
	if err := ValidateResolution(res); err != nil {
		return 0, err
	}
	km := edgeLengthsKm[res]
	switch unit {
	case Kilometers:
		return km, nil
	case Meters:
		return km * 1000, nil
	default:
		return 0, errors.Wrapf(ErrInvalidUnit, "unit %q, use %q or %q", unit, Kilometers, Meters)
	}
}

func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "km", "kilometers", "kilometres":
		return Kilometers, nil
	case "m", "meters", "metres":
		return Meters, nil
	default:
		return "", errors.Wrapf(ErrInvalidUnit, "unit %q", s)
	}
}
