package celltools

import (
	"github.com/pkg/errors"
	h3 "github.com/uber/h3-go/v4"
)

// HexCell is a hierarchical hexagonal cell. The underlying index packs the
// resolution and the path from the base cell (3 bits per level) into a
// 64-bit integer, so ordering and equality are integer comparisons.
type HexCell struct {
	id h3.Cell
}

func HexCellFromLatLng(lat, lng float64, res int) (HexCell, error) {
	if err := ValidateResolution(res); err != nil {
		return HexCell{}, err
	}
	c, err := h3.LatLngToCell(h3.NewLatLng(lat, lng), res)
	if err != nil {
		return HexCell{}, errors.Wrapf(err, "locate cell for (%v, %v)", lat, lng)
	}
	return HexCell{c}, nil
}

// ParseHexCell reads the canonical hex string produced by String.
func ParseHexCell(s string) (HexCell, error) {
	var c h3.Cell
	if err := c.UnmarshalText([]byte(s)); err != nil {
		return HexCell{}, errors.Wrapf(err, "parse cell %q", s)
	}
	if !c.IsValid() {
		return HexCell{}, errors.Errorf("invalid cell %q", s)
	}
	return HexCell{c}, nil
}

func (c HexCell) Resolution() int {
	return c.id.Resolution()
}

func (c HexCell) String() string {
	return c.id.String()
}

func (c HexCell) Less(other HexCell) bool {
	return c.id < other.id
}

func (c HexCell) IsPentagon() bool {
	return c.id.IsPentagon()
}

// ChildCount is the number of children one level down: 7, or 6 for the
// twelve pentagons at each resolution.
func (c HexCell) ChildCount() int {
	if c.IsPentagon() {
		return 6
	}
	return 7
}

func (c HexCell) Parent() (HexCell, error) {
	res := c.Resolution()
	if res == MinResolution {
		return HexCell{}, errors.Wrapf(ErrInvalidResolution, "cell %s has no parent", c)
	}
	p, err := c.id.Parent(res - 1)
	if err != nil {
		return HexCell{}, errors.Wrapf(err, "parent of %s", c)
	}
	return HexCell{p}, nil
}

func (c HexCell) Children() ([]HexCell, error) {
	return c.ChildrenAt(c.Resolution() + 1)
}

// ChildrenAt returns every descendant of c at res. A res equal to the cell's
// own resolution returns the cell itself.
func (c HexCell) ChildrenAt(res int) ([]HexCell, error) {
	if err := ValidateResolution(res); err != nil {
		return nil, err
	}
	if res < c.Resolution() {
		return nil, errors.Wrapf(ErrInvalidResolution, "resolution %d is coarser than cell %s", res, c)
	}
	if res == c.Resolution() {
		return []HexCell{c}, nil
	}
	kids, err := c.id.Children(res)
	if err != nil {
		return nil, errors.Wrapf(err, "children of %s", c)
	}
	out := make([]HexCell, len(kids))
	for i, k := range kids {
		out[i] = HexCell{k}
	}
	return out, nil
}

func (c HexCell) Center() (lat, lng float64, err error) {
	ll, err := c.id.LatLng()
	if err != nil {
		return 0, 0, errors.Wrapf(err, "center of %s", c)
	}
	return ll.Lat, ll.Lng, nil
}

// Boundary returns the cell vertices as (lat, lng) pairs, counter-clockwise.
func (c HexCell) Boundary() ([][2]float64, error) {
	b, err := c.id.Boundary()
	if err != nil {
		return nil, errors.Wrapf(err, "boundary of %s", c)
	}
	out := make([][2]float64, len(b))
	for i, ll := range b {
		out[i] = [2]float64{ll.Lat, ll.Lng}
	}
	return out, nil
}

// cellsInPolygon returns the cells at res whose centers fall inside the
// polygon given as (lng, lat) vertices.
func cellsInPolygon(ring [][2]float64, res int) ([]HexCell, error) {
	loop := make(h3.GeoLoop, len(ring))
	for i, xy := range ring {
		loop[i] = h3.LatLng{Lat: xy[1], Lng: xy[0]}
	}
	cells, err := h3.PolygonToCells(h3.GeoPolygon{GeoLoop: loop}, res)
	if err != nil {
		return nil, errors.Wrap(err, "polyfill")
	}
	out := make([]HexCell, len(cells))
	for i, c := range cells {
		out[i] = HexCell{c}
	}
	return out, nil
}
