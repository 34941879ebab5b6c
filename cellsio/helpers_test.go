package cellsio

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"hex-tools/celltools"
)

func sampleResult(t testing.TB, values ...float64) celltools.AggregationResult {
	t.Helper()
	var result celltools.AggregationResult
	for i, v := range values {
		cell, err := celltools.HexCellFromLatLng(40+float64(i), -3, 6)
		require.NoError(t, err)
		result = append(result, celltools.CellValue{Cell: cell, Value: v})
	}
	return result
}

func countRows(t testing.TB, store *TableStore, table string) int {
	t.Helper()
	var n int
	err := store.db.QueryRowContext(context.Background(), fmt.Sprintf("SELECT COUNT(*) FROM %s", store.quote(table))).Scan(&n)
	require.NoError(t, err)
	return n
}

// readTable returns the stored rows keyed by hex index.
func readTable(t testing.TB, store *TableStore, table string) map[string]sql.NullFloat64 {
	t.Helper()
	rows, err := store.db.QueryContext(context.Background(), fmt.Sprintf("SELECT hex_index, value FROM %s", store.quote(table)))
	require.NoError(t, err)
	defer rows.Close()
	out := make(map[string]sql.NullFloat64)
	for rows.Next() {
		var idx string
		var v sql.NullFloat64
		require.NoError(t, rows.Scan(&idx, &v))
		out[idx] = v
	}
	require.NoError(t, rows.Err())
	return out
}
