package celltools

import (
	"fmt"
	"strings"
)

// CellToWKT renders the outline of a cell as a closed WKT polygon in lng/lat order.
func CellToWKT(cell HexCell) (string, error) {
	vertices, err := cell.Boundary()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("POLYGON((")
	for _, v := range vertices {
		fmt.Fprintf(&b, "%v %v, ", v[1], v[0])
	}
	fmt.Fprintf(&b, "%v %v))", vertices[0][1], vertices[0][0])
	return b.String(), nil
}
