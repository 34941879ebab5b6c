package cellsio

import (
	"os"

	"github.com/parquet-go/parquet-go"
	"github.com/sirupsen/logrus"

	"hex-tools/celltools"
)

// Rows are flushed to the file in groups of this size.
const rowBufferSize = 64 * 1024

type CellRow struct {
	HexIndex   string  `parquet:"hex_index"`
	Resolution int32   `parquet:"resolution"`
	Value      float64 `parquet:"value"`
	Geom       string  `parquet:"geom,optional"`
}

// WriteToParquet writes the result as snappy-compressed parquet. With
// withGeom set, every row also carries the cell outline as WKT.
func WriteToParquet(result celltools.AggregationResult, path string, withGeom bool) (err error) {
	output, err := os.Create(path)
	if err != nil {
		return err
	}

	writer := parquet.NewGenericWriter[CellRow](output, parquet.Compression(&parquet.Snappy))
	defer func() {
		if cerr := writer.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if cerr := output.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	rowBuf := make([]CellRow, 0, rowBufferSize)
	flush := func() error {
		if _, err := writer.Write(rowBuf); err != nil {
			return err
		}
		rowBuf = rowBuf[:0]
		return writer.Flush()
	}

	for i, cell := range result {
		row := CellRow{
			HexIndex:   cell.Cell.String(),
			Resolution: int32(cell.Cell.Resolution()),
			Value:      cell.Value,
		}
		if withGeom {
			if row.Geom, err = celltools.CellToWKT(cell.Cell); err != nil {
				return err
			}
		}
		rowBuf = append(rowBuf, row)
		if len(rowBuf) == rowBufferSize {
			logrus.Infof("Writing cell %d", i)
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if len(rowBuf) > 0 {
		return flush()
	}
	return nil
}
