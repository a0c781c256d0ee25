package fractal

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/siertrichain/blockchain/foundation/blockchain/geometry"
)

// ErrNotRetained is returned when an address walks through a child the
// subdivision scheme discards.
var ErrNotRetained = errors.New("address digit not retained by scheme")

// =============================================================================

// Scheme describes which children of each subdivision step are kept as
// candidates for recursion.
type Scheme struct {
	Retained []uint8 `json:"retained"`
}

// Full retains all four children. This is the scheme the chain mines with.
var Full = Scheme{Retained: []uint8{0, 1, 2, 3}}

// Gasket discards the central medial triangle, the classical construction.
var Gasket = Scheme{Retained: []uint8{0, 1, 2}}

// Validate checks the scheme retains at least one child, in range, once.
func (s Scheme) Validate() error {
	if len(s.Retained) == 0 {
		return errors.New("scheme retains no children")
	}

	var seen [Fanout]bool
	for _, c := range s.Retained {
		if int(c) >= Fanout {
			return fmt.Errorf("scheme child %d out of range", c)
		}
		if seen[c] {
			return fmt.Errorf("scheme child %d retained twice", c)
		}
		seen[c] = true
	}

	return nil
}

// Retains reports whether the child is a candidate for recursion.
func (s Scheme) Retains(child uint8) bool {
	for _, c := range s.Retained {
		if c == child {
			return true
		}
	}
	return false
}

// Branching returns the number of children kept at each level.
func (s Scheme) Branching() int {
	return len(s.Retained)
}

// =============================================================================

// Leaf is one triangle at the bottom of a subdivision tree tagged with the
// path taken to reach it.
type Leaf struct {
	Address  Address           `json:"address"`
	Triangle geometry.Triangle `json:"triangle"`
}

// PruneFunc reports whether the subtree below tri can be skipped. The address
// is only valid for the duration of the call.
type PruneFunc func(tri geometry.Triangle, address Address, remaining int) bool

// Subdivide expands t to the specified depth with every child retained and
// appends the leaves to out in pre-order: corner 0, corner 1, corner 2 and
// then the medial triangle, recursively.
func Subdivide(t geometry.Triangle, depth int, address Address, out []Leaf) []Leaf {
	if depth <= 0 {
		return append(out, Leaf{Address: address.Clone(), Triangle: t})
	}

	children := t.Subdivide()
	for i := range children {
		out = Subdivide(children[i], depth-1, address.Child(uint8(i)), out)
	}

	return out
}

// =============================================================================

// Tree is a subdivision tree rooted at a fixed triangle.
type Tree struct {
	Root   geometry.Triangle
	Scheme Scheme
}

// NewTree constructs a tree for the root triangle and scheme.
func NewTree(root geometry.Triangle, scheme Scheme) (Tree, error) {
	if err := scheme.Validate(); err != nil {
		return Tree{}, err
	}

	return Tree{Root: root, Scheme: scheme}, nil
}

// Count returns the number of leaves at the specified depth, saturating at
// the largest uint64.
func (t Tree) Count(depth int) uint64 {
	b := uint64(t.Scheme.Branching())

	n := uint64(1)
	for range depth {
		if b != 0 && n > math.MaxUint64/b {
			return math.MaxUint64
		}
		n *= b
	}

	return n
}

// Leaves returns a lazy producer of the leaves at the specified depth in
// traversal order. Stopping the iteration stops the expansion.
func (t Tree) Leaves(depth int) iter.Seq[Leaf] {
	return func(yield func(Leaf) bool) {
		t.Walk(depth, nil, yield)
	}
}

// Subtree returns a lazy producer of the leaves found remaining levels below
// the prefix leaf. Addresses include the prefix.
func (t Tree) Subtree(prefix Leaf, remaining int) iter.Seq[Leaf] {
	return func(yield func(Leaf) bool) {
		t.WalkFrom(prefix, remaining, nil, yield)
	}
}

// Walk visits the leaves at the specified depth in traversal order. Subtrees
// for which prune returns true are skipped. Walk returns false if visit asked
// to stop.
func (t Tree) Walk(depth int, prune PruneFunc, visit func(Leaf) bool) bool {
	return t.WalkFrom(Leaf{Triangle: t.Root}, depth, prune, visit)
}

// WalkFrom is Walk starting below the specified prefix leaf.
func (t Tree) WalkFrom(prefix Leaf, remaining int, prune PruneFunc, visit func(Leaf) bool) bool {
	path := make(Address, len(prefix.Address), len(prefix.Address)+max(remaining, 0))
	copy(path, prefix.Address)

	return t.walk(prefix.Triangle, remaining, path, prune, visit)
}

// walk performs the depth first expansion. Siblings reuse the backing array
// of path, so leaves get their own copy of the address.
func (t Tree) walk(tri geometry.Triangle, remaining int, path Address, prune PruneFunc, visit func(Leaf) bool) bool {
	if prune != nil && prune(tri, path, remaining) {
		return true
	}

	if remaining <= 0 {
		return visit(Leaf{Address: path.Clone(), Triangle: tri})
	}

	children := tri.Subdivide()
	for _, c := range t.Scheme.Retained {
		if !t.walk(children[c], remaining-1, append(path, c), prune, visit) {
			return false
		}
	}

	return true
}

// Resolve recomputes the triangle an address names within this tree.
func (t Tree) Resolve(address Address) (geometry.Triangle, error) {
	if err := address.Validate(Fanout); err != nil {
		return geometry.Triangle{}, err
	}

	tri := t.Root
	for level, d := range address {
		if !t.Scheme.Retains(d) {
			return geometry.Triangle{}, fmt.Errorf("%w: level %d, digit %d", ErrNotRetained, level, d)
		}
		tri = tri.Subdivide()[d]
	}

	return tri, nil
}
