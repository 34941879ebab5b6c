package celltools

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexCellHierarchy(t *testing.T) {
	cell := hexagonAt(t, 51.5, -0.12, 9)
	assert.Equal(t, 9, cell.Resolution())

	parent, err := cell.Parent()
	require.NoError(t, err)
	assert.Equal(t, 8, parent.Resolution())

	kids, err := parent.Children()
	require.NoError(t, err)
	assert.Len(t, kids, parent.ChildCount())
	assert.Contains(t, kids, cell)
	for _, k := range kids {
		p, err := k.Parent()
		require.NoError(t, err)
		assert.Equal(t, parent, p)
	}

	grandkids, err := parent.ChildrenAt(10)
	require.NoError(t, err)
	assert.Len(t, grandkids, 49)

	self, err := cell.ChildrenAt(9)
	require.NoError(t, err)
	assert.Equal(t, []HexCell{cell}, self)

	_, err = cell.ChildrenAt(8)
	assert.True(t, errors.Is(err, ErrInvalidResolution))
}

func TestHexCellStringRoundTrip(t *testing.T) {
	cell := hexagonAt(t, -33.9, 151.2, 7)
	parsed, err := ParseHexCell(cell.String())
	require.NoError(t, err)
	assert.Equal(t, cell, parsed)

	_, err = ParseHexCell("not-a-cell")
	assert.Error(t, err)
}

func TestHexCellRootHasNoParent(t *testing.T) {
	cell, err := HexCellFromLatLng(0, 0, 0)
	require.NoError(t, err)
	_, err = cell.Parent()
	assert.True(t, errors.Is(err, ErrInvalidResolution))
}

func TestHexCellPentagonChildren(t *testing.T) {
	pentagon, err := ParseHexCell("8009fffffffffff")
	require.NoError(t, err)
	require.True(t, pentagon.IsPentagon())
	assert.Equal(t, 6, pentagon.ChildCount())

	kids, err := pentagon.Children()
	require.NoError(t, err)
	assert.Len(t, kids, 6)
}

func TestHexCellFromLatLngInvalidResolution(t *testing.T) {
	_, err := HexCellFromLatLng(0, 0, 16)
	assert.True(t, errors.Is(err, ErrInvalidResolution))
}

func TestHexCellCenterIsInsideCell(t *testing.T) {
	cell := hexagonAt(t, 35.68, 139.69, 6)
	lat, lng, err := cell.Center()
	require.NoError(t, err)
	again, err := HexCellFromLatLng(lat, lng, 6)
	require.NoError(t, err)
	assert.Equal(t, cell, again)
}

func TestCellToWKT(t *testing.T) {
	cell := hexagonAt(t, 1.0, 2.0, 5)
	wkt, err := CellToWKT(cell)
	require.NoError(t, err)

	vertices, err := cell.Boundary()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(vertices), 6)
	assert.Regexp(t, `^POLYGON\(\(.*\)\)$`, wkt)
	first := vertices[0]
	prefix := "POLYGON((" + fmtPoint(first)
	suffix := fmtPoint(first) + "))"
	assert.True(t, len(wkt) > len(prefix) && wkt[:len(prefix)] == prefix, wkt)
	assert.True(t, wkt[len(wkt)-len(suffix):] == suffix, wkt)
}
