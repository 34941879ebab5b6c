package celltools

import (
	"github.com/pkg/errors"
)

type siblingGroup struct {
	value   float64
	count   int
	uniform bool
}

// Compact merges every complete group of siblings holding the same value
// into their parent, level by level from res up to resolution 0. All
// input cells must be at res. The output is the smallest set of cells, none
// an ancestor of another, that expands back to exactly the input.
func Compact(leaves map[HexCell]float64, res int) (map[HexCell]float64, error) {
	return compact(leaves, nil, res)
}

// compact is Compact where every group holding a cell of mixed is left
// alone, whatever the values say.
func compact(leaves map[HexCell]float64, mixed map[HexCell]bool, res int) (map[HexCell]float64, error) {
	if err := ValidateResolution(res); err != nil {
		return nil, err
	}
	level := make(map[HexCell]float64, len(leaves))
	for cell, v := range leaves {
		if cell.Resolution() != res {
			return nil, errors.Errorf("cell %s is at resolution %d, want %d", cell, cell.Resolution(), res)
		}
		level[cell] = v
	}

	out := make(map[HexCell]float64)
	for r := res; r > MinResolution && len(level) > 0; r-- {
		parents := make(map[HexCell]HexCell, len(level))
		groups := make(map[HexCell]*siblingGroup)
		for cell, v := range level {
			p, err := cell.Parent()
			if err != nil {
				return nil, err
			}
			parents[cell] = p
			g, ok := groups[p]
			if !ok {
				// NaN never equals itself, so a NaN group never merges.
				groups[p] = &siblingGroup{value: v, count: 1, uniform: v == v && !mixed[cell]}
				continue
			}
			g.count++
			if v != g.value || mixed[cell] {
				g.uniform = false
			}
		}

		next := make(map[HexCell]float64)
		for cell, v := range level {
			p := parents[cell]
			g := groups[p]
			if g.uniform && g.count == p.ChildCount() {
				next[p] = g.value
				continue
			}
			out[cell] = v
		}
		level = next
	}
	for cell, v := range level {
		out[cell] = v
	}
	return out, nil
}

// Expand replaces every cell in result with its descendants at res.
func Expand(result AggregationResult, res int) (map[HexCell]float64, error) {
	out := make(map[HexCell]float64)
	for _, cv := range result {
		kids, err := cv.Cell.ChildrenAt(res)
		if err != nil {
			return nil, err
		}
		for _, k := range kids {
			if _, dup := out[k]; dup {
				return nil, errors.Errorf("cell %s is covered twice", k)
			}
			out[k] = cv.Value
		}
	}
	return out, nil
}
