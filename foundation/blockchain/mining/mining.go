// Package mining searches a subdivision tree for a leaf triangle whose area
// falls below a difficulty threshold.
package mining

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/siertrichain/blockchain/foundation/blockchain/fractal"
	"github.com/siertrichain/blockchain/foundation/blockchain/geometry"
	"github.com/siertrichain/blockchain/foundation/metrics"
)

// DefaultMaxDepth bounds the search space at 4^24 leaves.
const DefaultMaxDepth = 24

// Set of errors returned by the miner.
var (
	ErrExhausted    = errors.New("no leaf satisfies the threshold at this depth")
	ErrDepthLimit   = errors.New("depth exceeds the mining limit")
	ErrInvalidDepth = errors.New("depth must not be negative")
	ErrInvalidProof = errors.New("mining result does not prove the work")
)

// Variant labels used for metrics and events.
const (
	variantDeterministic = "deterministic"
	variantChaotic       = "chaotic"
)

var quarter = decimal.RequireFromString("0.25")

// EventHandler defines a function that is called when events occur while
// mining.
type EventHandler func(v string, args ...any)

// =============================================================================

// Result is the leaf that won a mining round.
type Result struct {
	Address     fractal.Address   `json:"address"`
	Triangle    geometry.Triangle `json:"triangle"`
	ChaosFactor *float64          `json:"chaos_factor,omitempty"`
}

// Depth returns the depth the result was mined at.
func (r Result) Depth() int {
	return r.Address.Depth()
}

// IsChaotic reports whether the result came from the chaotic miner.
func (r Result) IsChaotic() bool {
	return r.ChaosFactor != nil
}

// =============================================================================

// Config represents the settings for a miner.
type Config struct {
	Root      geometry.Triangle
	Scheme    fractal.Scheme
	MaxDepth  int
	Workers   int
	Rand      *rand.Rand
	EvHandler EventHandler
}

// DefaultConfig returns the protocol settings: the genesis root triangle, all
// four children retained and a single worker.
func DefaultConfig() Config {
	return Config{
		Root:     geometry.Genesis(),
		Scheme:   fractal.Full,
		MaxDepth: DefaultMaxDepth,
		Workers:  1,
	}
}

// Miner performs the search through one subdivision tree.
type Miner struct {
	tree      fractal.Tree
	maxDepth  int
	workers   int
	evHandler EventHandler

	mu   sync.Mutex
	rand *rand.Rand
}

// New constructs a miner. Unset fields take the values from DefaultConfig.
func New(cfg Config) (*Miner, error) {
	def := DefaultConfig()

	if cfg.Root.Equal(geometry.Triangle{}) {
		cfg.Root = def.Root
	}
	if cfg.Scheme.Retained == nil {
		cfg.Scheme = def.Scheme
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = def.MaxDepth
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	tree, err := fractal.NewTree(cfg.Root, cfg.Scheme)
	if err != nil {
		return nil, err
	}

	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	m := Miner{
		tree:      tree,
		maxDepth:  cfg.MaxDepth,
		workers:   cfg.Workers,
		evHandler: ev,
		rand:      cfg.Rand,
	}

	return &m, nil
}

// Tree returns the subdivision tree the miner searches.
func (m *Miner) Tree() fractal.Tree {
	return m.tree
}

// MaxDepth returns the deepest level the miner will search.
func (m *Miner) MaxDepth() int {
	return m.maxDepth
}

// Deterministic expands the tree to the specified depth and returns the first
// leaf in traversal order whose area is strictly below the threshold. It
// returns ErrExhausted when no leaf qualifies. Independent nodes with the
// same root and depth always find the same leaf.
func (m *Miner) Deterministic(ctx context.Context, depth int, threshold decimal.Decimal) (Result, error) {
	if err := m.checkDepth(depth); err != nil {
		return Result{}, err
	}

	m.evHandler("mining: Deterministic: started: depth[%d] threshold[%s] workers[%d]", depth, threshold, m.workers)
	defer m.evHandler("mining: Deterministic: completed")

	start := time.Now()

	// All leaves below a triangle hold exactly area/4^remaining, so a subtree
	// whose leaves can't be below the threshold is skipped without changing
	// which leaf is found first.
	prune := func(tri geometry.Triangle, _ fractal.Address, remaining int) bool {
		return !leafArea(tri, remaining).LessThan(threshold)
	}

	accept := func(leaf fractal.Leaf) bool {
		return leaf.Triangle.Area().LessThan(threshold)
	}

	var (
		leaf    fractal.Leaf
		scanned uint64
		err     error
	)

	switch {
	case m.workers > 1 && depth > 0:
		leaf, scanned, err = m.parallel(ctx, depth, prune, accept)
	default:
		var found bool
		leaf, found, scanned, err = m.scan(ctx, fractal.Leaf{Triangle: m.tree.Root}, depth, prune, accept, nil)
		if err == nil && !found {
			err = ErrExhausted
		}
	}

	observe(variantDeterministic, start, scanned, err)

	if err != nil {
		m.evHandler("mining: Deterministic: no result: depth[%d] scanned[%d]: %s", depth, scanned, err)
		return Result{}, err
	}

	m.evHandler("mining: Deterministic: SOLVED: address[%s] scanned[%d]", leaf.Address.Position(), scanned)

	return Result{Address: leaf.Address, Triangle: leaf.Triangle}, nil
}

// Chaotic expands the tree like Deterministic but draws a fresh factor in
// [0,1) for every leaf and compares area*factor against the threshold. The
// factor is recorded in the result. Two nodes will not agree on the winner.
func (m *Miner) Chaotic(ctx context.Context, depth int, threshold decimal.Decimal) (Result, error) {
	if err := m.checkDepth(depth); err != nil {
		return Result{}, err
	}

	m.evHandler("mining: Chaotic: started: depth[%d] threshold[%s]", depth, threshold)
	defer m.evHandler("mining: Chaotic: completed")

	// The random source is not safe for concurrent use.
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()

	var factor float64
	accept := func(leaf fractal.Leaf) bool {
		factor = m.rand.Float64()
		effective := leaf.Triangle.Area().Mul(decimal.NewFromFloat(factor))
		return effective.LessThan(threshold)
	}

	leaf, found, scanned, err := m.scan(ctx, fractal.Leaf{Triangle: m.tree.Root}, depth, nil, accept, nil)
	if err == nil && !found {
		err = ErrExhausted
	}

	observe(variantChaotic, start, scanned, err)

	if err != nil {
		m.evHandler("mining: Chaotic: no result: depth[%d] scanned[%d]: %s", depth, scanned, err)
		return Result{}, err
	}

	m.evHandler("mining: Chaotic: SOLVED: address[%s] factor[%f] scanned[%d]", leaf.Address.Position(), factor, scanned)

	return Result{Address: leaf.Address, Triangle: leaf.Triangle, ChaosFactor: &factor}, nil
}

// =============================================================================

// checkDepth enforces the bounds on the search space.
func (m *Miner) checkDepth(depth int) error {
	switch {
	case depth < 0:
		return fmt.Errorf("%w: %d", ErrInvalidDepth, depth)
	case depth > m.maxDepth:
		return fmt.Errorf("%w: depth %d, max %d", ErrDepthLimit, depth, m.maxDepth)
	}
	return nil
}

// scan walks the leaves below start in traversal order and returns the first
// one accepted. The abort function lets a parallel search stop a scan whose
// answer can no longer matter.
func (m *Miner) scan(ctx context.Context, start fractal.Leaf, remaining int, prune fractal.PruneFunc, accept func(fractal.Leaf) bool, abort func() bool) (fractal.Leaf, bool, uint64, error) {
	if err := ctx.Err(); err != nil {
		return fractal.Leaf{}, false, 0, err
	}

	var (
		found   fractal.Leaf
		ok      bool
		scanned uint64
		err     error
	)

	m.tree.WalkFrom(start, remaining, prune, func(leaf fractal.Leaf) bool {
		if err = ctx.Err(); err != nil {
			return false
		}
		if abort != nil && abort() {
			return false
		}

		scanned++
		if accept(leaf) {
			found, ok = leaf, true
			return false
		}
		return true
	})

	return found, ok, scanned, err
}

// parallel splits the tree into disjoint address prefixes and scans them
// concurrently. The hit under the lowest prefix wins, which is the leaf a
// sequential scan would have found.
func (m *Miner) parallel(ctx context.Context, depth int, prune fractal.PruneFunc, accept func(fractal.Leaf) bool) (fractal.Leaf, uint64, error) {
	level := m.partitionLevel(depth)

	var prefixes []fractal.Leaf
	for leaf := range m.tree.Leaves(level) {
		prefixes = append(prefixes, leaf)
	}

	var (
		best    atomic.Int64
		scanned atomic.Uint64
		hits    = make([]fractal.Leaf, len(prefixes))
		found   = make([]bool, len(prefixes))
	)
	best.Store(math.MaxInt64)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)

	for i, prefix := range prefixes {
		idx := int64(i)
		abort := func() bool {
			return best.Load() < idx
		}

		g.Go(func() error {
			if abort() {
				return nil
			}

			leaf, ok, n, err := m.scan(gctx, prefix, depth-level, prune, accept, abort)
			scanned.Add(n)
			if err != nil {
				return err
			}

			if ok {
				hits[idx] = leaf
				found[idx] = true
				for {
					cur := best.Load()
					if idx >= cur || best.CompareAndSwap(cur, idx) {
						break
					}
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fractal.Leaf{}, scanned.Load(), err
	}

	for i := range prefixes {
		if found[i] {
			return hits[i], scanned.Load(), nil
		}
	}

	return fractal.Leaf{}, scanned.Load(), ErrExhausted
}

// partitionLevel picks the shallowest level that yields a few prefixes per
// worker, never deeper than the search itself.
func (m *Miner) partitionLevel(depth int) int {
	b := m.tree.Scheme.Branching()
	target := m.workers * 4

	level, n := 0, 1
	for n < target && level < depth {
		level++
		n *= b
	}

	return level
}

// leafArea returns the area every leaf holds remaining levels below tri.
func leafArea(tri geometry.Triangle, remaining int) decimal.Decimal {
	area := tri.Area()
	for range remaining {
		area = area.Mul(quarter)
	}
	return area
}

// observe records the metrics for a mining call.
func observe(variant string, start time.Time, scanned uint64, err error) {
	outcome := metrics.OutcomeFound
	switch {
	case errors.Is(err, ErrExhausted):
		outcome = metrics.OutcomeExhausted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome = metrics.OutcomeCancelled
	case err != nil:
		outcome = metrics.OutcomeError
	}

	metrics.LeavesScanned.WithLabelValues(variant).Add(float64(scanned))
	metrics.MiningDuration.WithLabelValues(variant).Observe(time.Since(start).Seconds())
	metrics.MiningAttempts.WithLabelValues(variant, outcome).Inc()
}
