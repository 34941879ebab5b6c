package cmd

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"hex-tools/celltools"
)

var edgeUnit string

// edgelengthCmd prints the average cell edge length for one or all resolutions.
var edgelengthCmd = &cobra.Command{
	Use:   "edgelength [res]",
	Short: "Print the average hexagon edge length per resolution",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		unit, err := celltools.ParseUnit(edgeUnit)
		if err != nil {
			return err
		}
		from, to := celltools.MinResolution, celltools.MaxResolution
		if len(args) == 1 {
			res, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.Wrapf(err, "resolution %q", args[0])
			}
			from, to = res, res
		}
		for res := from; res <= to; res++ {
			length, err := celltools.EdgeLength(res, unit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%v %s\n", res, length, unit)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(edgelengthCmd)
	edgelengthCmd.Flags().StringVarP(&edgeUnit, "unit", "u", "km", "Unit: km or m")
}
