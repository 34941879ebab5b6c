package cmd

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hex-tools/cellsio"
	"hex-tools/celltools"
)

var numWorkers int
var hexRes int

// indexrasterCmd represents the indexraster command
var indexrasterCmd = &cobra.Command{
	Use:   "indexraster",
	Short: "Convert a raster to hexagonal cells and load them into a table",
	Long: `Convert a GeoTIFF (EPSG:4326, band 1) into hexagonal cells at the
	requested resolution, compact same-valued sibling groups, and replace the
	destination table with (hex_index, value) rows.

	When the requested resolution is coarser than the raster, the raster is
	first resampled (nearest neighbour) so that pixels match the cells.

	Options:
		--cog:        Raster path, http(s):// URL or s3://bucket/key.
		--table:      Destination table, replaced on every run.
		--res:        Cell resolution, 0 to 15.
		--aggFunc:    Value for cells hit by several pixels: last (default),
		              first, mean, majority, sum, min, max.
		--searchMode: How the native resolution is chosen: smaller_than_pixel
		              (default) or min_diff.
		--compact:    Merge complete sibling groups (default true).
		--out:        Also write the rows to a .parquet or .csv file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		setLogLevels()

		res := viper.GetInt("res")
		if err := celltools.ValidateResolution(res); err != nil {
			return err
		}
		cfg, err := configFromViper()
		if err != nil {
			return err
		}

		store, err := cellsio.OpenStore(cfg.StoreDriver, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logrus.Error(err)
			}
		}()

		pipeline := &celltools.Pipeline{
			Config:    cfg,
			Acquirer:  cellsio.NewFetcher(cfg.CacheDir),
			Opener:    celltools.GDALOpener{},
			Persister: store,
			Sink:      chooseSink(viper.GetString("out"), viper.GetBool("geom")),
		}

		logrus.Info("Starting processing")
		if _, err := pipeline.Run(cmd.Context(), viper.GetString("cog"), viper.GetString("table")); err != nil {
			return err
		}
		logrus.Info("Processing completed")
		return nil
	},
}

func configFromViper() (celltools.Config, error) {
	policy, err := celltools.ParseAggPolicy(viper.GetString("aggFunc"))
	if err != nil {
		return celltools.Config{}, err
	}
	mode, err := celltools.ParseSearchMode(viper.GetString("searchMode"))
	if err != nil {
		return celltools.Config{}, err
	}
	if policy == celltools.PolicyLast {
		logrus.Debug("Cells hit by several pixels keep the last pixel in scan order")
	}
	return celltools.Config{
		DatabaseURL: viper.GetString("DATABASE_URL"),
		StoreDriver: viper.GetString("STORE_DRIVER"),
		CacheDir:    viper.GetString("STATIC_DIR"),
		Resolution:  viper.GetInt("res"),
		SearchMode:  mode,
		Aggregate: celltools.AggregateOpts{
			Policy:     policy,
			Compact:    viper.GetBool("compact"),
			NumWorkers: viper.GetInt("numWorkers"),
		},
	}, nil
}

func chooseSink(out string, withGeom bool) celltools.Sink {
	if out == "" {
		return nil
	}
	switch strings.ToLower(filepath.Ext(out)) {
	case ".parquet":
		return func(result celltools.AggregationResult) error {
			return cellsio.WriteToParquet(result, out, withGeom)
		}
	case ".csv":
		return func(result celltools.AggregationResult) error {
			return cellsio.WriteToCSV(result, out)
		}
	default:
		return func(celltools.AggregationResult) error {
			return errors.Errorf("output %s: use a .parquet or .csv extension", out)
		}
	}
}

func init() {
	rootCmd.AddCommand(indexrasterCmd)

	flags := indexrasterCmd.Flags()
	flags.String("cog", "", "Raster path or URL (EPSG:4326)")
	flags.String("table", "", "Name of the database table")
	flags.IntVarP(&hexRes, "res", "r", 8, "Hexagonal cell resolution, 0 to 15")
	flags.IntVarP(&numWorkers, "numWorkers", "n", 1, "Number of workers locating cells")
	flags.StringP("aggFunc", "a", "last", "Value for cells hit by several pixels: last, first, mean, majority, sum, min, max")
	flags.String("searchMode", "smaller_than_pixel", "Native resolution search: smaller_than_pixel or min_diff")
	flags.Bool("compact", true, "Merge complete same-valued sibling groups into their parent")
	flags.StringP("out", "o", "", "Also write rows to this .parquet or .csv file")
	flags.Bool("geom", false, "Include cell outlines as WKT in parquet output")
	for _, name := range []string{"cog", "table"} {
		if err := indexrasterCmd.MarkFlagRequired(name); err != nil {
			logrus.Exit(1)
		}
	}
	for _, name := range []string{"cog", "table", "res", "numWorkers", "aggFunc", "searchMode", "compact", "out", "geom"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			logrus.Exit(1)
		}
	}
}
