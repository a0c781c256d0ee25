package state

import (
	"github.com/siertrichain/blockchain/foundation/blockchain/consensus"
	"github.com/siertrichain/blockchain/foundation/blockchain/database"
	"github.com/siertrichain/blockchain/foundation/blockchain/fractal"
	"github.com/siertrichain/blockchain/foundation/blockchain/genesis"
	"github.com/siertrichain/blockchain/foundation/blockchain/mining"
)

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	return s.chain.LatestBlock()
}

// RetrieveBlocks returns a copy of every block in the chain.
func (s *State) RetrieveBlocks() []database.Block {
	return s.chain.Blocks()
}

// RetrieveBlock returns the block at the specified index.
func (s *State) RetrieveBlock(index uint64) (database.Block, error) {
	return s.chain.Block(index)
}

// RetrieveMempool returns a copy of the mempool in arrival order.
func (s *State) RetrieveMempool() []string {
	return s.mempool.Copy()
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// Height returns the index of the latest block.
func (s *State) Height() uint64 {
	return s.chain.Height()
}

// ComplexityScore returns the complexity score of the chain.
func (s *State) ComplexityScore() float64 {
	return s.consensus.ChainComplexityScore(s.chain.Blocks())
}

// Stats returns the depth summary of the chain.
func (s *State) Stats() consensus.ChainStats {
	return consensus.Stats(s.chain.Blocks())
}

// ValidateChain runs the consensus rules over the whole chain.
func (s *State) ValidateChain() error {
	return consensus.ValidateChain(s.consensus, s.chain.Blocks())
}

// RequiredDepth returns the subdivision depth a block at the specified
// height must be mined at.
func (s *State) RequiredDepth(height uint64) int {
	return mining.RequiredDepth(height, s.genesis.InitialDepth, s.genesis.AdjustmentInterval)
}

// Tree returns the subdivision tree blocks are mined from.
func (s *State) Tree() fractal.Tree {
	return s.miner.Tree()
}
