// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/siertrichain/blockchain/foundation/blockchain/consensus"
	"github.com/siertrichain/blockchain/foundation/blockchain/database"
	"github.com/siertrichain/blockchain/foundation/blockchain/genesis"
	"github.com/siertrichain/blockchain/foundation/blockchain/geometry"
	"github.com/siertrichain/blockchain/foundation/blockchain/mempool"
	"github.com/siertrichain/blockchain/foundation/blockchain/mining"
	"github.com/siertrichain/blockchain/foundation/blockchain/territory"
	"github.com/siertrichain/blockchain/foundation/metrics"
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining() (done func())
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Genesis        genesis.Genesis
	Storage        database.Serializer
	Consensus      consensus.Consensus
	SelectStrategy string
	Workers        int
	EvHandler      EventHandler
}

// State manages the blockchain database.
type State struct {
	mu        sync.Mutex
	evHandler EventHandler

	genesis   genesis.Genesis
	miner     *mining.Miner
	consensus consensus.Consensus
	mempool   *mempool.Mempool
	storage   database.Serializer
	chain     *database.Blockchain
	territory *territory.Registry

	Worker Worker
}

// New constructs a new blockchain for data management. Blocks already in
// storage are validated and loaded, otherwise genesis is mined and stored.
func New(ctx context.Context, cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, err
	}

	if cfg.Storage == nil {
		return nil, fmt.Errorf("state: storage is required")
	}

	cons := cfg.Consensus
	if cons == nil {
		cons = consensus.Default{EvHandler: consensus.EventHandler(ev)}
	}

	// Construct the miner every block of this chain is searched with.
	miner, err := mining.New(mining.Config{
		Root:      geometry.Genesis(),
		Scheme:    cfg.Genesis.Scheme,
		MaxDepth:  cfg.Genesis.MaxDepth,
		Workers:   cfg.Workers,
		EvHandler: mining.EventHandler(ev),
	})
	if err != nil {
		return nil, err
	}

	// Construct a mempool with the specified select strategy.
	strategy := cfg.SelectStrategy
	if strategy == "" {
		strategy = "fifo"
	}
	mp, err := mempool.NewWithStrategy(strategy)
	if err != nil {
		return nil, err
	}

	// Load all existing blocks from storage into memory for processing.
	blocks, err := database.ReadAll(cfg.Storage)
	if err != nil {
		return nil, err
	}

	switch len(blocks) {
	case 0:
		ev("state: New: no blocks in storage: mining genesis")

		block, err := database.MineGenesis(ctx, database.GenesisConfig{
			Miner:     miner,
			Threshold: cfg.Genesis.GenesisThreshold,
			Timestamp: cfg.Genesis.Timestamp(),
			MaxDepth:  cfg.Genesis.MaxDepth,
			EvHandler: ev,
		})
		if err != nil {
			return nil, err
		}

		if err := cfg.Storage.Write(block); err != nil {
			return nil, err
		}
		blocks = []database.Block{block}

	default:
		ev("state: New: validating blocks from storage: count[%d]", len(blocks))

		if err := consensus.ValidateChain(cons, blocks); err != nil {
			return nil, fmt.Errorf("stored chain: %w", err)
		}
	}

	chain, err := database.LoadBlockchain(blocks)
	if err != nil {
		return nil, err
	}

	tree := miner.Tree()

	// Create the State to provide support for managing the blockchain.
	state := State{
		evHandler: ev,
		genesis:   cfg.Genesis,
		miner:     miner,
		consensus: cons,
		mempool:   mp,
		storage:   cfg.Storage,
		chain:     chain,
		territory: territory.NewRegistry(&tree),
	}
	state.updateMetrics()

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {

	// Make sure the database file is properly closed.
	defer func() {
		s.storage.Close()
	}()

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// updateMetrics publishes the chain gauges.
func (s *State) updateMetrics() {
	metrics.ChainHeight.Set(float64(s.chain.Height()))
	metrics.ComplexityScore.Set(s.consensus.ChainComplexityScore(s.chain.Blocks()))
}
