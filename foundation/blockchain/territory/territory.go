// Package territory maintains ownership of triangles produced by the
// subdivision tree. Territories are keyed by the geometric hash of their
// triangle and defended with staked tokens.
package territory

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/siertrichain/blockchain/foundation/blockchain/fractal"
	"github.com/siertrichain/blockchain/foundation/blockchain/geometry"
)

// HashPlaces is the number of decimal places coordinates are rounded to
// before hashing a triangle.
const HashPlaces = 8

// shapeTolerance bounds how far the sides of a claimed triangle may differ,
// relative to its first side. Subdivision of the equilateral genesis only
// produces equilateral children, so anything else is not a territory.
var shapeTolerance = decimal.New(1, -6)

// Set of errors returned by the registry.
var (
	ErrAlreadyClaimed    = errors.New("territory already claimed")
	ErrNotFound          = errors.New("territory not found")
	ErrInsufficientStake = errors.New("stake not sufficient")
	ErrDegenerate        = errors.New("triangle is degenerate")
	ErrNotEquilateral    = errors.New("triangle is not equilateral")
	ErrAddressMismatch   = errors.New("address does not resolve to triangle")
	ErrInvalidStake      = errors.New("stake must not be negative")
)

// Territory is a triangle owned by an account.
type Territory struct {
	Key      string            `json:"key"`
	Triangle geometry.Triangle `json:"triangle"`
	Address  fractal.Address   `json:"address"`
	Owner    string            `json:"owner"`
	Stake    decimal.Decimal   `json:"stake"`
}

// Key returns the registry key of a triangle.
func Key(t geometry.Triangle) string {
	return geometry.GeometricHash(t, HashPlaces)
}

// =============================================================================

// Registry holds the claimed territories.
type Registry struct {
	mu          sync.RWMutex
	tree        *fractal.Tree
	territories map[string]Territory
}

// NewRegistry constructs an empty registry. When a tree is provided, claims
// must carry an address that resolves to the claimed triangle in that tree.
func NewRegistry(tree *fractal.Tree) *Registry {
	return &Registry{
		tree:        tree,
		territories: make(map[string]Territory),
	}
}

// Claim registers a new territory for the owner.
func (r *Registry) Claim(tri geometry.Triangle, address fractal.Address, owner string, stake decimal.Decimal) (Territory, error) {
	if err := r.checkProof(tri, address); err != nil {
		return Territory{}, err
	}
	if stake.IsNegative() {
		return Territory{}, fmt.Errorf("%w: %s", ErrInvalidStake, stake)
	}

	key := Key(tri)

	r.mu.Lock()
	defer r.mu.Unlock()

	if t, exists := r.territories[key]; exists {
		return Territory{}, fmt.Errorf("%w: key %s, owner %s", ErrAlreadyClaimed, key, t.Owner)
	}

	t := Territory{
		Key:      key,
		Triangle: tri,
		Address:  address.Clone(),
		Owner:    owner,
		Stake:    stake,
	}
	r.territories[key] = t

	return t, nil
}

// Defend adds stake to an existing territory.
func (r *Registry) Defend(key string, additional decimal.Decimal) (Territory, error) {
	if additional.IsNegative() {
		return Territory{}, fmt.Errorf("%w: %s", ErrInvalidStake, additional)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, exists := r.territories[key]
	if !exists {
		return Territory{}, fmt.Errorf("%w: key %s", ErrNotFound, key)
	}

	t.Stake = t.Stake.Add(additional)
	r.territories[key] = t

	return t, nil
}

// Conquer transfers a territory to the challenger when the challenger's
// triangle is valid and the stake is strictly greater than the one
// defending it. The territory keeps its key and address.
func (r *Registry) Conquer(key string, challenger string, tri geometry.Triangle, stake decimal.Decimal) (Territory, error) {
	if err := checkShape(tri); err != nil {
		return Territory{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, exists := r.territories[key]
	if !exists {
		return Territory{}, fmt.Errorf("%w: key %s", ErrNotFound, key)
	}

	if !stake.GreaterThan(t.Stake) {
		return Territory{}, fmt.Errorf("%w: got %s, defended by %s", ErrInsufficientStake, stake, t.Stake)
	}

	t.Triangle = tri
	t.Owner = challenger
	t.Stake = stake
	r.territories[key] = t

	return t, nil
}

// Get returns the territory stored under the key.
func (r *Registry) Get(key string) (Territory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.territories[key]
	if !exists {
		return Territory{}, fmt.Errorf("%w: key %s", ErrNotFound, key)
	}

	return t, nil
}

// List returns every territory ordered by key.
func (r *Registry) List() []Territory {
	r.mu.RLock()
	list := make([]Territory, 0, len(r.territories))
	for _, t := range r.territories {
		list = append(list, t)
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].Key < list[j].Key
	})

	return list
}

// Value returns base / area^2, so smaller triangles are worth more. A
// degenerate triangle is worth nothing.
func Value(tri geometry.Triangle, base decimal.Decimal) decimal.Decimal {
	area := tri.Area()
	if area.IsZero() {
		return decimal.Zero
	}
	return base.Div(area.Mul(area))
}

// checkProof validates the triangle and, when the registry knows the tree,
// that the address names it.
func (r *Registry) checkProof(tri geometry.Triangle, address fractal.Address) error {
	if err := checkShape(tri); err != nil {
		return err
	}

	if r.tree == nil {
		return nil
	}

	resolved, err := r.tree.Resolve(address)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAddressMismatch, err)
	}
	if !resolved.Equal(tri) {
		return fmt.Errorf("%w: %s", ErrAddressMismatch, address.Position())
	}

	return nil
}

// checkShape rejects degenerate and non equilateral triangles.
func checkShape(tri geometry.Triangle) error {
	if tri.IsDegenerate() {
		return ErrDegenerate
	}

	epsilon := tri.A.Distance(tri.B).Mul(shapeTolerance)
	if !geometry.IsEquilateral(tri, epsilon) {
		return fmt.Errorf("%w: %s", ErrNotEquilateral, tri)
	}

	return nil
}
