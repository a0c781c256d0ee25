package mining

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/siertrichain/blockchain/foundation/blockchain/fractal"
)

// RequiredDepth returns the subdivision depth a block at the specified
// height must be mined at. The depth grows by one every interval blocks. An
// interval of zero keeps the initial depth forever.
func RequiredDepth(height, initial, interval uint64) int {
	if interval == 0 {
		return int(initial)
	}
	return int(initial + height/interval)
}

// Verify checks a result proves the work for the tree and threshold: the
// address resolves to the recorded triangle, and that triangle's area (scaled
// by the chaos factor when present) is strictly below the threshold.
func Verify(tree fractal.Tree, result Result, threshold decimal.Decimal) error {
	tri, err := tree.Resolve(result.Address)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProof, err)
	}

	if !tri.Equal(result.Triangle) {
		return fmt.Errorf("%w: triangle does not match address %s", ErrInvalidProof, result.Address.Position())
	}

	area := tri.Area()
	if result.ChaosFactor != nil {
		f := *result.ChaosFactor
		if f < 0 || f >= 1 {
			return fmt.Errorf("%w: chaos factor %f out of range", ErrInvalidProof, f)
		}
		area = area.Mul(decimal.NewFromFloat(f))
	}

	if !area.LessThan(threshold) {
		return fmt.Errorf("%w: area %s not below threshold %s", ErrInvalidProof, area, threshold)
	}

	return nil
}

// =============================================================================

var defaultMiner = sync.OnceValue(func() *Miner {
	m, err := New(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return m
})

// Deterministic mines the genesis tree with the default configuration.
func Deterministic(ctx context.Context, depth int, threshold decimal.Decimal) (Result, error) {
	return defaultMiner().Deterministic(ctx, depth, threshold)
}

// Chaotic mines the genesis tree with the default configuration and an
// unseeded random source.
func Chaotic(ctx context.Context, depth int, threshold decimal.Decimal) (Result, error) {
	return defaultMiner().Chaotic(ctx, depth, threshold)
}
