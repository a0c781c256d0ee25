// Package database handles the in memory chain of blocks and the lower level
// support for storing and reading those blocks.
package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/siertrichain/blockchain/foundation/blockchain/mining"
)

// Set of errors returned by the database.
var (
	ErrNotFound   = errors.New("block not found")
	ErrEmptyChain = errors.New("chain holds no blocks")
	ErrEndOfChain = errors.New("end of chain")
)

// Serializer interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Serializer interface {
	Write(block Block) error
	GetBlock(index uint64) (Block, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks. Next returns
// ErrEndOfChain once every block has been read. Any other error means the
// walk stopped early.
type Iterator interface {
	Next() (Block, error)
	Done() bool
}

// ReadAll walks the serializer from genesis and returns every stored block.
func ReadAll(s Serializer) ([]Block, error) {
	var blocks []Block

	iter := s.ForEach()
	for {
		block, err := iter.Next()
		if err != nil {
			if errors.Is(err, ErrEndOfChain) {
				return blocks, nil
			}
			return nil, err
		}
		blocks = append(blocks, block)
	}
}

// =============================================================================

// GenesisConfig represents the settings used to mine the genesis block.
type GenesisConfig struct {
	Miner     *mining.Miner
	Threshold decimal.Decimal
	Timestamp uint64
	MaxDepth  int
	EvHandler func(v string, args ...any)
}

// Blockchain is the ordered, append only sequence of blocks starting with
// genesis.
type Blockchain struct {
	mu     sync.RWMutex
	blocks []Block
}

// NewBlockchain constructs a chain holding only a freshly mined genesis
// block. Mining starts at depth 1 and goes one level deeper each time a depth
// is exhausted, until MaxDepth.
func NewBlockchain(ctx context.Context, cfg GenesisConfig) (*Blockchain, error) {
	genesis, err := MineGenesis(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &Blockchain{blocks: []Block{genesis}}, nil
}

// MineGenesis mines and seals the genesis block.
func MineGenesis(ctx context.Context, cfg GenesisConfig) (Block, error) {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Miner == nil {
		m, err := mining.New(mining.DefaultConfig())
		if err != nil {
			return Block{}, err
		}
		cfg.Miner = m
	}

	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 || maxDepth > cfg.Miner.MaxDepth() {
		maxDepth = cfg.Miner.MaxDepth()
	}

	ev("database: MineGenesis: started: threshold[%s] maxDepth[%d]", cfg.Threshold, maxDepth)

	for depth := 1; depth <= maxDepth; depth++ {
		result, err := cfg.Miner.Deterministic(ctx, depth, cfg.Threshold)
		if err != nil {
			if errors.Is(err, mining.ErrExhausted) {
				ev("database: MineGenesis: depth[%d] exhausted", depth)
				continue
			}
			return Block{}, err
		}

		timestamp := cfg.Timestamp
		if timestamp == 0 {
			timestamp = uint64(time.Now().UTC().Unix())
		}

		genesis := Block{
			Index:        0,
			Timestamp:    timestamp,
			Transactions: []string{},
			PrevHash:     RootHash,
			MiningResult: result,
		}
		genesis.Seal()

		ev("database: MineGenesis: completed: %s", genesis)

		return genesis, nil
	}

	return Block{}, fmt.Errorf("genesis: %w: threshold %s up to depth %d", mining.ErrExhausted, cfg.Threshold, maxDepth)
}

// LoadBlockchain constructs a chain from blocks previously read from storage.
// No validation is performed.
func LoadBlockchain(blocks []Block) (*Blockchain, error) {
	if len(blocks) == 0 {
		return nil, ErrEmptyChain
	}

	cpy := make([]Block, len(blocks))
	copy(cpy, blocks)

	return &Blockchain{blocks: cpy}, nil
}

// AddBlock appends the block to the end of the chain. The caller is
// responsible for validating the block first.
func (bc *Blockchain) AddBlock(block Block) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	bc.blocks = append(bc.blocks, block)
}

// Blocks returns a copy of the chain in order.
func (bc *Blockchain) Blocks() []Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	cpy := make([]Block, len(bc.blocks))
	copy(cpy, bc.blocks)

	return cpy
}

// Genesis returns the first block.
func (bc *Blockchain) Genesis() Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	return bc.blocks[0]
}

// LatestBlock returns the last block of the chain.
func (bc *Blockchain) LatestBlock() Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	return bc.blocks[len(bc.blocks)-1]
}

// Height returns the index of the latest block.
func (bc *Blockchain) Height() uint64 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	return uint64(len(bc.blocks) - 1)
}

// Len returns the number of blocks in the chain.
func (bc *Blockchain) Len() int {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	return len(bc.blocks)
}

// Block returns the block at the specified index.
func (bc *Blockchain) Block(index uint64) (Block, error) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	if index >= uint64(len(bc.blocks)) {
		return Block{}, fmt.Errorf("%w: index %d, height %d", ErrNotFound, index, len(bc.blocks)-1)
	}

	return bc.blocks[index], nil
}
