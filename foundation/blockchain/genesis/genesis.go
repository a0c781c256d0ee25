// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/siertrichain/blockchain/foundation/blockchain/fractal"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date               time.Time       `json:"date"`                // Also the timestamp of the genesis block.
	ChainID            uint16          `json:"chain_id"`            // The chain id represents an unique id for this running instance.
	TransPerBlock      uint16          `json:"trans_per_block"`     // The maximum number of transactions that can be in a block.
	InitialDepth       uint64          `json:"initial_depth"`       // Subdivision depth required at height 0.
	AdjustmentInterval uint64          `json:"adjustment_interval"` // Blocks between each one level increase of depth.
	Threshold          decimal.Decimal `json:"threshold"`           // Area a leaf must be strictly below to win a block.
	GenesisThreshold   decimal.Decimal `json:"genesis_threshold"`   // Area threshold used to mine the genesis block.
	MaxDepth           int             `json:"max_depth"`           // Deepest level a miner will expand.
	Scheme             fractal.Scheme  `json:"scheme"`              // Children retained by every subdivision step.
}

// Default returns the protocol settings used when no genesis file is
// provided.
func Default() Genesis {
	return Genesis{
		Date:               time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:            1,
		TransPerBlock:      10,
		InitialDepth:       1,
		AdjustmentInterval: 10,
		Threshold:          decimal.RequireFromString("0.000001"),
		GenesisThreshold:   decimal.RequireFromString("0.5"),
		MaxDepth:           24,
		Scheme:             fractal.Scheme{Retained: slices.Clone(fractal.Full.Retained)},
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Missing fields keep the default
// values.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	genesis := Default()
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decode genesis %s: %w", path, err)
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Validate checks the settings can drive a chain.
func (g Genesis) Validate() error {
	switch {
	case g.InitialDepth == 0:
		return errors.New("genesis: initial depth must be at least 1")
	case g.MaxDepth <= 0:
		return errors.New("genesis: max depth must be positive")
	case g.InitialDepth > uint64(g.MaxDepth):
		return fmt.Errorf("genesis: initial depth %d above max depth %d", g.InitialDepth, g.MaxDepth)
	case !g.Threshold.IsPositive():
		return fmt.Errorf("genesis: threshold %s must be positive", g.Threshold)
	case !g.GenesisThreshold.IsPositive():
		return fmt.Errorf("genesis: genesis threshold %s must be positive", g.GenesisThreshold)
	case g.TransPerBlock == 0:
		return errors.New("genesis: trans per block must be at least 1")
	}

	if err := g.Scheme.Validate(); err != nil {
		return fmt.Errorf("genesis: %w", err)
	}

	return nil
}

// Timestamp returns the genesis block timestamp in unix seconds.
func (g Genesis) Timestamp() uint64 {
	return uint64(g.Date.UTC().Unix())
}
