package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/siertrichain/blockchain/foundation/blockchain/consensus"
	"github.com/siertrichain/blockchain/foundation/blockchain/database"
	"github.com/siertrichain/blockchain/foundation/blockchain/mining"
)

// Set of errors returned when creating or accepting blocks.
var (
	ErrNoTransactions = errors.New("no transactions in mempool")
	ErrTooShallow     = errors.New("block mined above the required depth")
	ErrChaoticWork    = errors.New("chaotic mining results are not accepted")
)

// =============================================================================

// MineNewBlock attempts to create a new block that can become the next block
// in the chain. Mining starts at the depth required for the next height and
// goes one level deeper each time a depth is exhausted.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: check mempool count")

	// Are there enough transactions in the pool.
	if s.mempool.Count() == 0 {
		return database.Block{}, ErrNoTransactions
	}

	// Pick the best transactions from the mempool.
	trans := s.mempool.PickBest(int(s.genesis.TransPerBlock))

	prev := s.chain.LatestBlock()
	required := s.RequiredDepth(prev.Index + 1)

	s.evHandler("state: MineNewBlock: MINING: perform geometric work: blk[%d] depth[%d] txs[%d]", prev.Index+1, required, len(trans))

	if required > s.miner.MaxDepth() {
		return database.Block{}, fmt.Errorf("%w: required depth %d, max %d", mining.ErrDepthLimit, required, s.miner.MaxDepth())
	}

	var result mining.Result
	var err error
	for depth := required; depth <= s.miner.MaxDepth(); depth++ {
		result, err = s.miner.Deterministic(ctx, depth, s.genesis.Threshold)
		if !errors.Is(err, mining.ErrExhausted) {
			break
		}
		s.evHandler("state: MineNewBlock: MINING: depth[%d] exhausted", depth)
	}
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	block := database.NewBlock(prev, trans, result, uint64(time.Now().UTC().Unix()))

	s.evHandler("state: MineNewBlock: MINING: validate and update database")

	// Validate the block and then update the blockchain database.
	if err := s.validateUpdateDatabase(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// ProcessProposedBlock takes a block received from outside this node,
// validates it and if that passes, adds the block to the local blockchain.
// Besides the consensus rules the work must be genuine and mined at least as
// deep as required for its height.
func (s *State) ProcessProposedBlock(block database.Block) error {
	s.evHandler("state: ProcessProposedBlock: started: prevBlk[%s]: newBlk[%s]: numTrans[%d]", block.PrevHash, block.Hash, len(block.Transactions))
	defer s.evHandler("state: ProcessProposedBlock: completed: newBlk[%s]", block.Hash)

	// The proposer chooses the chaos factor, so a chaotic result proves nothing.
	if block.MiningResult.IsChaotic() {
		return ErrChaoticWork
	}

	if required := s.RequiredDepth(block.Index); block.Depth() < required {
		return fmt.Errorf("%w: got %d, exp at least %d", ErrTooShallow, block.Depth(), required)
	}

	if err := consensus.ValidateWork(s.miner.Tree(), block, s.genesis.Threshold); err != nil {
		return err
	}

	// Validate the block and then update the blockchain database.
	if err := s.validateUpdateDatabase(block); err != nil {
		return err
	}

	// If the runMiningOperation function is being executed it needs to stop
	// immediately. The G executing runMiningOperation will not return from the
	// function until done is called. That allows this function to complete
	// its state changes before a new mining operation takes place.
	if s.Worker != nil {
		done := s.Worker.SignalCancelMining()
		defer func() {
			s.evHandler("state: ProcessProposedBlock: signal runMiningOperation to terminate")
			done()
		}()
	}

	return nil
}

// =============================================================================

// validateUpdateDatabase takes the block and validates the block against the
// consensus rules. If the block passes, then the state of the node is updated
// including adding the block to storage.
func (s *State) validateUpdateDatabase(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: validateUpdateDatabase: validate block")

	if err := s.consensus.ValidateBlock(block, s.chain.LatestBlock()); err != nil {
		return err
	}

	s.evHandler("state: validateUpdateDatabase: write to storage")

	// Write the new block to the chain in storage.
	if err := s.storage.Write(block); err != nil {
		return err
	}
	s.chain.AddBlock(block)

	s.evHandler("state: validateUpdateDatabase: remove transactions from mempool")

	for _, tx := range block.Transactions {
		s.mempool.Delete(tx)
	}

	s.updateMetrics()

	// Send an event about this new block.
	s.blockEvent(block)

	return nil
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockJSON, err := json.Marshal(block)
	if err != nil {
		blockJSON = fmt.Appendf(nil, "%q", err.Error())
	}

	s.evHandler(`viewer: block: {"index":%d,"depth":%d,"block":%s}`, block.Index, block.Depth(), string(blockJSON))
}
