package commands

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/siertrichain/blockchain/foundation/blockchain/mining"
)

func mineCmd() *cobra.Command {
	var depth int
	var threshold string
	var scheme string
	var workers int
	var chaotic bool
	var seed uint64

	cmd := &cobra.Command{
		Use:   "mine",
		Short: "Search the genesis triangle for a leaf below the threshold.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := schemeFlag(scheme)
			if err != nil {
				return err
			}

			th, err := decimal.NewFromString(threshold)
			if err != nil {
				return fmt.Errorf("threshold: %w", err)
			}

			cfg := mining.Config{
				Scheme:  s,
				Workers: workers,
			}
			if seed != 0 {
				cfg.Rand = rand.New(rand.NewPCG(seed, seed))
			}

			miner, err := mining.New(cfg)
			if err != nil {
				return err
			}

			mine := miner.Deterministic
			if chaotic {
				mine = miner.Chaotic
			}

			result, err := mine(cmd.Context(), depth, th)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().IntVarP(&depth, "depth", "n", 10, "Subdivision depth to search.")
	cmd.Flags().StringVarP(&threshold, "threshold", "t", "0.000001", "Area a leaf must be strictly below.")
	cmd.Flags().StringVar(&scheme, "scheme", "full", "Children retained: full or gasket.")
	cmd.Flags().IntVarP(&workers, "workers", "w", 1, "Goroutines searching the tree.")
	cmd.Flags().BoolVar(&chaotic, "chaotic", false, "Scale leaf areas by a random factor.")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for the chaotic miner, 0 for random.")

	return cmd
}
