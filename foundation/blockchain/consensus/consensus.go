// Package consensus provides the rules a block must satisfy to extend the
// chain and the scoring used to compare chains.
package consensus

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/siertrichain/blockchain/foundation/blockchain/database"
	"github.com/siertrichain/blockchain/foundation/blockchain/fractal"
	"github.com/siertrichain/blockchain/foundation/blockchain/mining"
	"github.com/siertrichain/blockchain/foundation/metrics"
)

// Set of validation failures. Returned errors wrap one of these with the
// details of the mismatch.
var (
	ErrInvalidIndex        = errors.New("invalid block index")
	ErrInvalidPreviousHash = errors.New("invalid previous hash")
	ErrInvalidHash         = errors.New("invalid block hash")
	ErrInvalidGenesis      = errors.New("invalid genesis block")
)

// EventHandler defines a function that is called when events occur while
// validating.
type EventHandler func(v string, args ...any)

// Consensus represents the behavior required to decide whether a block may
// follow another and to score a chain.
type Consensus interface {
	ValidateBlock(block database.Block, prev database.Block) error
	ChainComplexityScore(chain []database.Block) float64
}

// =============================================================================

// Default implements the protocol rules: consecutive index, link to the
// previous hash and a hash that matches the block contents.
type Default struct {
	EvHandler EventHandler
}

// ValidateBlock checks the block against its parent and returns the first
// violation found, checked in the order index, link, hash.
func (d Default) ValidateBlock(block database.Block, prev database.Block) error {
	ev := d.ev()

	ev("consensus: ValidateBlock: validate: blk[%d]: check: block index is the next index", block.Index)

	if err := checkIndex(block, prev); err != nil {
		return fail("index", err)
	}

	ev("consensus: ValidateBlock: validate: blk[%d]: check: previous hash does match parent block", block.Index)

	if err := checkLink(block, prev); err != nil {
		return fail("previous_hash", err)
	}

	ev("consensus: ValidateBlock: validate: blk[%d]: check: block hash does match contents", block.Index)

	if err := checkHash(block); err != nil {
		return fail("hash", err)
	}

	return nil
}

// ChainComplexityScore returns the sum of the mining address depths of every
// block. An empty chain scores zero.
func (Default) ChainComplexityScore(chain []database.Block) float64 {
	var score float64
	for _, block := range chain {
		score += float64(block.Depth())
	}
	return score
}

func (d Default) ev() EventHandler {
	if d.EvHandler != nil {
		return d.EvHandler
	}
	return func(string, ...any) {}
}

// =============================================================================

var std Default

// ValidateBlock validates with the default rules.
func ValidateBlock(block database.Block, prev database.Block) error {
	return std.ValidateBlock(block, prev)
}

// ChainComplexityScore scores with the default rules.
func ChainComplexityScore(chain []database.Block) float64 {
	return std.ChainComplexityScore(chain)
}

// IsValid reports whether the block passes the default rules.
func IsValid(block database.Block, prev database.Block) bool {
	return std.ValidateBlock(block, prev) == nil
}

// ValidateBlockAll runs every check instead of stopping at the first failure.
// The violations are combined and can be listed with multierr.Errors.
func ValidateBlockAll(block database.Block, prev database.Block) error {
	return multierr.Combine(
		checkIndex(block, prev),
		checkLink(block, prev),
		checkHash(block),
	)
}

// ValidateChain checks the genesis block and then every consecutive pair
// with the specified rules.
func ValidateChain(c Consensus, chain []database.Block) error {
	if len(chain) == 0 {
		return fmt.Errorf("%w: chain is empty", ErrInvalidGenesis)
	}

	genesis := chain[0]
	switch {
	case genesis.Index != 0:
		return fail("genesis", fmt.Errorf("%w: index %d", ErrInvalidGenesis, genesis.Index))
	case genesis.PrevHash != database.RootHash:
		return fail("genesis", fmt.Errorf("%w: previous hash %q", ErrInvalidGenesis, genesis.PrevHash))
	case !genesis.IsSealed():
		return fail("genesis", fmt.Errorf("%w: %w", ErrInvalidGenesis, checkHash(genesis)))
	}

	for i := 1; i < len(chain); i++ {
		if err := c.ValidateBlock(chain[i], chain[i-1]); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
	}

	return nil
}

// ValidateWork checks the mining result carried by the block proves the work
// for the tree and threshold. It is not part of ValidateBlock.
func ValidateWork(tree fractal.Tree, block database.Block, threshold decimal.Decimal) error {
	if err := mining.Verify(tree, block.MiningResult, threshold); err != nil {
		return fail("work", fmt.Errorf("blk[%d]: %w", block.Index, err))
	}
	return nil
}

// =============================================================================

// ChainStats summarizes the mining depths of a chain.
type ChainStats struct {
	Blocks      int     `json:"blocks"`
	Score       float64 `json:"score"`
	MeanDepth   float64 `json:"mean_depth"`
	StdDevDepth float64 `json:"stddev_depth"`
	MaxDepth    float64 `json:"max_depth"`
}

// Stats computes the summary for the chain.
func Stats(chain []database.Block) ChainStats {
	cs := ChainStats{Blocks: len(chain)}
	if len(chain) == 0 {
		return cs
	}

	depths := make([]float64, len(chain))
	for i, block := range chain {
		depths[i] = float64(block.Depth())
	}

	cs.Score = floats.Sum(depths)
	cs.MaxDepth = floats.Max(depths)
	cs.MeanDepth = stat.Mean(depths, nil)
	if len(depths) > 1 {
		cs.StdDevDepth = stat.StdDev(depths, nil)
	}

	return cs
}

// =============================================================================

func checkIndex(block database.Block, prev database.Block) error {
	if exp := prev.Index + 1; block.Index != exp {
		return fmt.Errorf("%w: got %d, exp %d", ErrInvalidIndex, block.Index, exp)
	}
	return nil
}

func checkLink(block database.Block, prev database.Block) error {
	if block.PrevHash != prev.Hash {
		return fmt.Errorf("%w: got %s, exp %s", ErrInvalidPreviousHash, block.PrevHash, prev.Hash)
	}
	return nil
}

func checkHash(block database.Block) error {
	if exp := block.CalculateHash(); block.Hash != exp {
		return fmt.Errorf("%w: got %s, exp %s", ErrInvalidHash, block.Hash, exp)
	}
	return nil
}

// fail records the failure reason and returns the error unchanged.
func fail(reason string, err error) error {
	metrics.ValidationFailures.WithLabelValues(reason).Inc()
	return err
}
