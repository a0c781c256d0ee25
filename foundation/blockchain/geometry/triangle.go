package geometry

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
)

// genesisHeight approximates sqrt(3)/2. It is a protocol constant: every node
// must use exactly this literal or addresses resolve to different triangles.
const genesisHeight = "0.86602540378"

// Triangle represents three points on the plane. The order of the points is
// significant for subdivision but not for area.
type Triangle struct {
	A Point `json:"a"`
	B Point `json:"b"`
	C Point `json:"c"`
}

// NewTriangle constructs a triangle from three points.
func NewTriangle(a, b, c Point) Triangle {
	return Triangle{A: a, B: b, C: c}
}

// Genesis returns the canonical equilateral root triangle every subdivision
// tree of the chain starts from.
func Genesis() Triangle {
	return Triangle{
		A: MustPoint("0", "0"),
		B: MustPoint("1", "0"),
		C: MustPoint("0.5", genesisHeight),
	}
}

// Area returns the area of the triangle using the shoelace formula. The value
// is never negative and is zero only for degenerate triangles.
func (t Triangle) Area() decimal.Decimal {
	s := t.A.X.Mul(t.B.Y.Sub(t.C.Y)).
		Add(t.B.X.Mul(t.C.Y.Sub(t.A.Y))).
		Add(t.C.X.Mul(t.A.Y.Sub(t.B.Y)))

	return s.Mul(half).Abs()
}

// Subdivide splits the triangle through its edge midpoints into the three
// corner triangles followed by the central medial triangle. Each child holds
// exactly one quarter of the parent area.
func (t Triangle) Subdivide() [4]Triangle {
	ab := t.A.Midpoint(t.B)
	bc := t.B.Midpoint(t.C)
	ca := t.C.Midpoint(t.A)

	return [4]Triangle{
		{A: t.A, B: ab, C: ca},
		{A: ab, B: t.B, C: bc},
		{A: ca, B: bc, C: t.C},
		{A: ab, B: bc, C: ca},
	}
}

// IsDegenerate reports whether the points are collinear or coincident.
func (t Triangle) IsDegenerate() bool {
	return t.Area().IsZero()
}

// Equal reports whether the triangles hold the same points in the same order.
func (t Triangle) Equal(u Triangle) bool {
	return t.A.Equal(u.A) && t.B.Equal(u.B) && t.C.Equal(u.C)
}

// String implements the fmt.Stringer interface.
func (t Triangle) String() string {
	return fmt.Sprintf("[%s %s %s]", t.A, t.B, t.C)
}

// IsEquilateral reports whether all three sides agree within epsilon.
func IsEquilateral(t Triangle, epsilon decimal.Decimal) bool {
	ab := t.A.Distance(t.B)
	bc := t.B.Distance(t.C)
	ca := t.C.Distance(t.A)

	return ab.Sub(bc).Abs().LessThan(epsilon) && bc.Sub(ca).Abs().LessThan(epsilon)
}

// GeometricHash derives the key the ownership layer uses for a triangle. The
// coordinates are rounded to places decimals so equal shapes reached through
// different arithmetic paths share a key.
func GeometricHash(t Triangle, places int32) string {
	var sb strings.Builder
	for i, p := range [3]Point{t.A, t.B, t.C} {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(p.X.StringFixed(places))
		sb.WriteByte(',')
		sb.WriteString(p.Y.StringFixed(places))
	}

	return hexutil.Encode(crypto.Keccak256([]byte(sb.String())))
}
