package cellsio

import (
	"os"

	"github.com/sirupsen/logrus"

	"hex-tools/celltools"
)

// WriteToCSV writes one hex_index,value line per cell.
func WriteToCSV(result celltools.AggregationResult, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logrus.Error(err)
		}
	}()

	if _, err := f.WriteString("hex_index,value\n"); err != nil {
		return err
	}

	for i, cell := range result {
		if i%10000 == 0 {
			logrus.Debugf("Writing cell %d", i)
		}
		if _, err := f.WriteString(cell.String() + "\n"); err != nil {
			return err
		}
	}
	if err = f.Sync(); err != nil {
		return err
	}
	return nil
}
