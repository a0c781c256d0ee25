package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siertrichain/blockchain/foundation/blockchain/genesis"
	"github.com/siertrichain/blockchain/foundation/blockchain/mining"
)

func depthCmd() *cobra.Command {
	var height uint64
	var genesisPath string

	cmd := &cobra.Command{
		Use:   "depth",
		Short: "Print the depth a block at a height must be mined at.",
		RunE: func(cmd *cobra.Command, args []string) error {
			gen := genesis.Default()
			if genesisPath != "" {
				var err error
				if gen, err = genesis.Load(genesisPath); err != nil {
					return err
				}
			}

			depth := mining.RequiredDepth(height, gen.InitialDepth, gen.AdjustmentInterval)
			fmt.Fprintf(cmd.OutOrStdout(), "height: %d  depth: %d\n", height, depth)

			return nil
		},
	}

	cmd.Flags().Uint64VarP(&height, "height", "b", 0, "Block height.")
	cmd.Flags().StringVarP(&genesisPath, "genesis", "g", "", "Path to a genesis file, defaults when empty.")

	return cmd
}
