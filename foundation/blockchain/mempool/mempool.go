// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/siertrichain/blockchain/foundation/blockchain/mempool/selector"
)

// ErrEmptyTransaction is returned when an empty payload is submitted.
var ErrEmptyTransaction = errors.New("transaction payload is empty")

// Mempool represents a cache of pending transactions keyed by the hash of
// their payload.
type Mempool struct {
	pool     map[string]selector.Tx
	seq      uint64
	mu       sync.RWMutex
	selectFn selector.Func
}

// New constructs a new mempool using the default select strategy.
func New() (*Mempool, error) {
	return NewWithStrategy(selector.StrategyFIFO)
}

// NewWithStrategy constructs a new mempool with specified select strategy.
func NewWithStrategy(strategy string) (*Mempool, error) {
	selectFn, err := selector.Retrieve(strategy)
	if err != nil {
		return nil, err
	}

	mp := Mempool{
		pool:     make(map[string]selector.Tx),
		selectFn: selectFn,
	}

	return &mp, nil
}

// TxID returns the key a payload is stored under.
func TxID(payload string) string {
	return crypto.Keccak256Hash([]byte(payload)).Hex()
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds a transaction to the mempool. Submitting the same payload
// again keeps its original place in line.
func (mp *Mempool) Upsert(payload string) (int, error) {
	if payload == "" {
		return 0, ErrEmptyTransaction
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	id := TxID(payload)
	if _, exists := mp.pool[id]; !exists {
		mp.seq++
		mp.pool[id] = selector.Tx{
			ID:       id,
			Payload:  payload,
			Seq:      mp.seq,
			Received: time.Now().UTC(),
		}
	}

	return len(mp.pool), nil
}

// Delete removes a transaction from the mempool.
func (mp *Mempool) Delete(payload string) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	delete(mp.pool, TxID(payload))
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]selector.Tx)
}

// Copy returns every pending payload in arrival order.
func (mp *Mempool) Copy() []string {
	return payloads(mp.sorted(selector.Func(fifo), -1))
}

// PickBest uses the configured select strategy to return the next set
// of transactions for the next block. Pass -1 for all the transactions.
func (mp *Mempool) PickBest(howMany int) []string {
	return payloads(mp.sorted(mp.selectFn, howMany))
}

// =============================================================================

func (mp *Mempool) sorted(fn selector.Func, howMany int) []selector.Tx {
	mp.mu.RLock()
	txs := make([]selector.Tx, 0, len(mp.pool))
	for _, tx := range mp.pool {
		txs = append(txs, tx)
	}
	mp.mu.RUnlock()

	return fn(txs, howMany)
}

func fifo(txs []selector.Tx, howMany int) []selector.Tx {
	fn, _ := selector.Retrieve(selector.StrategyFIFO)
	return fn(txs, howMany)
}

func payloads(txs []selector.Tx) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.Payload
	}
	return out
}
