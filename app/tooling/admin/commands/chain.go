package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siertrichain/blockchain/foundation/blockchain/consensus"
)

func validateCmd() *cobra.Command {
	var cf chainFlags

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate every block of a stored chain.",
		RunE: func(cmd *cobra.Command, args []string) error {
			blocks, err := cf.load()
			if err != nil {
				return err
			}

			if err := consensus.ValidateChain(consensus.Default{}, blocks); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "chain valid: %d blocks\n", len(blocks))
			return nil
		},
	}

	cf.register(cmd)

	return cmd
}

func scoreCmd() *cobra.Command {
	var cf chainFlags

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Print the complexity score of a stored chain.",
		RunE: func(cmd *cobra.Command, args []string) error {
			blocks, err := cf.load()
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(consensus.Stats(blocks))
		},
	}

	cf.register(cmd)

	return cmd
}
