// Package geometry provides the exact decimal point and triangle primitives
// the geometric proof of work is built on.
package geometry

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// half is used for every halving operation. Multiplying by a finite decimal
// is exact, where Div would round at the package division precision.
var half = decimal.RequireFromString("0.5")

// distancePrecision is the number of decimal places kept when a square root
// leaves the exact domain.
const distancePrecision = 20

// Point represents a location on the plane with arbitrary precision
// decimal coordinates.
type Point struct {
	X decimal.Decimal `json:"x"`
	Y decimal.Decimal `json:"y"`
}

// NewPoint constructs a point from decimal coordinates.
func NewPoint(x, y decimal.Decimal) Point {
	return Point{X: x, Y: y}
}

// MustPoint constructs a point from decimal literals and panics if either
// literal is malformed. It is meant for package level constants.
func MustPoint(x, y string) Point {
	return Point{
		X: decimal.RequireFromString(x),
		Y: decimal.RequireFromString(y),
	}
}

// Midpoint returns the exact average of the two points.
func (p Point) Midpoint(q Point) Point {
	return Point{
		X: p.X.Add(q.X).Mul(half),
		Y: p.Y.Add(q.Y).Mul(half),
	}
}

// Distance returns the euclidean distance between the two points. The square
// root is not exact, so the value is rounded to distancePrecision places.
func (p Point) Distance(q Point) decimal.Decimal {
	dx := p.X.Sub(q.X)
	dy := p.Y.Sub(q.Y)
	sq := dx.Mul(dx).Add(dy.Mul(dy))

	f, _, err := big.ParseFloat(sq.String(), 10, 128, big.ToNearestEven)
	if err != nil {
		return decimal.Zero
	}
	f.Sqrt(f)

	return decimal.RequireFromString(f.Text('f', distancePrecision))
}

// Equal reports whether both coordinates hold the same value.
func (p Point) Equal(q Point) bool {
	return p.X.Equal(q.X) && p.Y.Equal(q.Y)
}

// String implements the fmt.Stringer interface.
func (p Point) String() string {
	return fmt.Sprintf("(%s, %s)", p.X, p.Y)
}
