package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siertrichain/blockchain/foundation/blockchain/fractal"
	"github.com/siertrichain/blockchain/foundation/blockchain/geometry"
)

func subdivideCmd() *cobra.Command {
	var depth int
	var scheme string
	var limit int

	cmd := &cobra.Command{
		Use:   "subdivide",
		Short: "Print the leaves of the genesis triangle at a depth.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := schemeFlag(scheme)
			if err != nil {
				return err
			}

			tree, err := fractal.NewTree(geometry.Genesis(), s)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "depth: %d  leaves: %d\n", depth, tree.Count(depth))

			var n int
			for leaf := range tree.Leaves(depth) {
				if limit > 0 && n == limit {
					fmt.Fprintln(out, "...")
					break
				}
				fmt.Fprintf(out, "%-*s area %s  %s\n", depth+1, leaf.Address, leaf.Triangle.Area(), leaf.Triangle)
				n++
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&depth, "depth", "n", 1, "Subdivision depth.")
	cmd.Flags().StringVar(&scheme, "scheme", "full", "Children retained: full or gasket.")
	cmd.Flags().IntVarP(&limit, "limit", "l", 16, "Maximum leaves to print, 0 for all.")

	return cmd
}
