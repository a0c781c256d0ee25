// Package selector provides different transaction selecting algorithms.
package selector

import (
	"fmt"
	"sort"
	"time"
)

// List of different select strategies.
const (
	StrategyFIFO     = "fifo"
	StrategySmallest = "smallest"
)

// Map of different select strategies with functions.
var strategies = map[string]Func{
	StrategyFIFO:     fifoSelect,
	StrategySmallest: smallestSelect,
}

// Tx is a pending transaction as seen by a selector.
type Tx struct {
	ID       string
	Payload  string
	Seq      uint64
	Received time.Time
}

// Func defines a function that takes the pending transactions and selects
// howMany of them in an order based on the function's strategy. Receiving -1
// for howMany must return all the transactions in the strategy's ordering.
type Func func(txs []Tx, howMany int) []Tx

// Retrieve returns the specified select strategy function.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}
	return fn, nil
}

// =============================================================================

// fifoSelect returns transactions in the order they arrived.
var fifoSelect = func(txs []Tx, howMany int) []Tx {
	sort.Sort(bySeq(txs))
	return take(txs, howMany)
}

// smallestSelect returns the shortest payloads first, packing more
// transactions into a block. Ties keep arrival order.
var smallestSelect = func(txs []Tx, howMany int) []Tx {
	sort.Sort(bySeq(txs))
	sort.SliceStable(txs, func(i, j int) bool {
		return len(txs[i].Payload) < len(txs[j].Payload)
	})
	return take(txs, howMany)
}

func take(txs []Tx, howMany int) []Tx {
	if howMany < 0 || howMany > len(txs) {
		howMany = len(txs)
	}
	return txs[:howMany]
}

// =============================================================================

// bySeq provides sorting support by the arrival sequence.
type bySeq []Tx

// Len returns the number of transactions in the list.
func (bs bySeq) Len() int {
	return len(bs)
}

// Less helps to sort the list by sequence in ascending order to keep the
// transactions in the order they arrived.
func (bs bySeq) Less(i, j int) bool {
	return bs[i].Seq < bs[j].Seq
}

// Swap moves transactions in the order of the sequence value.
func (bs bySeq) Swap(i, j int) {
	bs[i], bs[j] = bs[j], bs[i]
}
