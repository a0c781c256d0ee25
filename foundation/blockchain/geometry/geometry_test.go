package geometry_test

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/siertrichain/blockchain/foundation/blockchain/geometry"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func Test_Point(t *testing.T) {
	t.Log("Given the need to work with exact points.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen parsing, halving and measuring.", testID)
		{
			p := geometry.MustPoint("1.0", "2.0")
			if !p.X.Equal(dec("1")) || !p.Y.Equal(dec("2")) {
				t.Fatalf("\t%s\tTest %d:\tShould parse the coordinates: %s", failed, testID, p)
			}
			t.Logf("\t%s\tTest %d:\tShould parse the coordinates.", success, testID)

			mid := geometry.MustPoint("0", "0").Midpoint(geometry.MustPoint("2", "2"))
			if !mid.Equal(geometry.MustPoint("1", "1")) {
				t.Fatalf("\t%s\tTest %d:\tShould find the midpoint: %s", failed, testID, mid)
			}
			t.Logf("\t%s\tTest %d:\tShould find the midpoint.", success, testID)

			d := geometry.MustPoint("0", "0").Distance(geometry.MustPoint("3", "4"))
			if !d.Equal(dec("5")) {
				t.Fatalf("\t%s\tTest %d:\tShould measure the distance: %s", failed, testID, d)
			}
			t.Logf("\t%s\tTest %d:\tShould measure the distance.", success, testID)
		}
	}
}

func Test_Area(t *testing.T) {
	type table struct {
		name string
		tri  geometry.Triangle
		exp  string
	}

	tt := []table{
		{
			name: "isosceles",
			tri:  geometry.NewTriangle(geometry.MustPoint("0", "0"), geometry.MustPoint("1", "0"), geometry.MustPoint("0.5", "1")),
			exp:  "0.5",
		},
		{
			name: "clockwise",
			tri:  geometry.NewTriangle(geometry.MustPoint("0", "0"), geometry.MustPoint("0.5", "1"), geometry.MustPoint("1", "0")),
			exp:  "0.5",
		},
		{
			name: "collinear",
			tri:  geometry.NewTriangle(geometry.MustPoint("0", "0"), geometry.MustPoint("1", "1"), geometry.MustPoint("2", "2")),
			exp:  "0",
		},
		{
			name: "coincident",
			tri:  geometry.NewTriangle(geometry.MustPoint("3", "3"), geometry.MustPoint("3", "3"), geometry.MustPoint("3", "3")),
			exp:  "0",
		},
	}

	t.Log("Given the need to measure triangle areas.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a %s triangle.", testID, tst.name)
			{
				f := func(t *testing.T) {
					area := tst.tri.Area()
					if !area.Equal(dec(tst.exp)) {
						t.Fatalf("\t%s\tTest %d:\tShould have area %s, got %s.", failed, testID, tst.exp, area)
					}
					t.Logf("\t%s\tTest %d:\tShould have area %s.", success, testID, tst.exp)

					if tst.tri.IsDegenerate() != (tst.exp == "0") {
						t.Fatalf("\t%s\tTest %d:\tShould report degeneracy correctly.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould report degeneracy correctly.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_SubdivideOrder(t *testing.T) {
	a := geometry.MustPoint("0", "0")
	b := geometry.MustPoint("2", "0")
	c := geometry.MustPoint("1", "2")
	children := geometry.NewTriangle(a, b, c).Subdivide()

	ab := a.Midpoint(b)
	bc := b.Midpoint(c)
	ca := c.Midpoint(a)

	exp := [4]geometry.Triangle{
		geometry.NewTriangle(a, ab, ca),
		geometry.NewTriangle(ab, b, bc),
		geometry.NewTriangle(ca, bc, c),
		geometry.NewTriangle(ab, bc, ca),
	}

	t.Log("Given the need to subdivide triangles in a fixed order.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen subdividing through the edge midpoints.", testID)
		{
			for i := range exp {
				if !children[i].Equal(exp[i]) {
					t.Fatalf("\t%s\tTest %d:\tShould produce child %d as %s, got %s.", failed, testID, i, exp[i], children[i])
				}
			}
			t.Logf("\t%s\tTest %d:\tShould produce the corners followed by the medial triangle.", success, testID)
		}
	}
}

func Test_AreaConservation(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	coord := func() decimal.Decimal {
		return decimal.NewFromInt(r.Int64N(2_000_000) - 1_000_000).Shift(-3)
	}

	tris := []geometry.Triangle{geometry.Genesis()}
	for range 50 {
		tris = append(tris, geometry.NewTriangle(
			geometry.NewPoint(coord(), coord()),
			geometry.NewPoint(coord(), coord()),
			geometry.NewPoint(coord(), coord()),
		))
	}

	quarter := dec("0.25")

	t.Log("Given the need to conserve area across subdivision.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen subdividing %d triangles twelve levels deep.", testID, len(tris))
		{
			for _, tri := range tris {
				parent := tri
				for level := range 12 {
					area := parent.Area()
					children := parent.Subdivide()

					sum := decimal.Zero
					for i, child := range children {
						if !child.Area().Equal(area.Mul(quarter)) {
							t.Fatalf("\t%s\tTest %d:\tShould give child %d a quarter of the area at level %d of %s.", failed, testID, i, level, tri)
						}
						sum = sum.Add(child.Area())
					}
					if !sum.Equal(area) {
						t.Fatalf("\t%s\tTest %d:\tShould sum the children to the parent at level %d: %s, %s.", failed, testID, level, sum, area)
					}

					parent = children[level%4]
				}
			}
			t.Logf("\t%s\tTest %d:\tShould give every child exactly a quarter of its parent.", success, testID)
		}
	}
}

func Test_Genesis(t *testing.T) {
	epsilon := dec("0.000000001")

	t.Log("Given the need for a canonical root triangle.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen building the genesis triangle.", testID)
		{
			g := geometry.Genesis()

			if !g.Area().Equal(dec("0.43301270189")) {
				t.Fatalf("\t%s\tTest %d:\tShould have the fixed area: %s", failed, testID, g.Area())
			}
			t.Logf("\t%s\tTest %d:\tShould have the fixed area.", success, testID)

			if !geometry.IsEquilateral(g, epsilon) {
				t.Fatalf("\t%s\tTest %d:\tShould be equilateral.", failed, testID)
			}
			for i, child := range g.Subdivide() {
				if !geometry.IsEquilateral(child, epsilon) {
					t.Fatalf("\t%s\tTest %d:\tShould keep child %d equilateral.", failed, testID, i)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould be equilateral with equilateral children.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen checking a skewed triangle.", testID)
		{
			skewed := geometry.NewTriangle(geometry.MustPoint("0", "0"), geometry.MustPoint("2", "0"), geometry.MustPoint("0.5", "1"))
			if geometry.IsEquilateral(skewed, epsilon) {
				t.Fatalf("\t%s\tTest %d:\tShould not be equilateral.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not be equilateral.", success, testID)
		}
	}
}

func Test_GeometricHash(t *testing.T) {
	t.Log("Given the need to key triangles by their shape.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen hashing the genesis triangle.", testID)
		{
			g := geometry.Genesis()

			h := geometry.GeometricHash(g, 8)
			if !strings.HasPrefix(h, "0x") || len(h) != 66 {
				t.Fatalf("\t%s\tTest %d:\tShould produce a 0x prefixed keccak digest: %s", failed, testID, h)
			}
			if h != geometry.GeometricHash(g, 8) {
				t.Fatalf("\t%s\tTest %d:\tShould be deterministic.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould produce a stable digest.", success, testID)

			same := geometry.NewTriangle(geometry.MustPoint("0.000", "0"), g.B, g.C)
			if h != geometry.GeometricHash(same, 8) {
				t.Fatalf("\t%s\tTest %d:\tShould ignore trailing zeros.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould ignore trailing zeros.", success, testID)

			if h == geometry.GeometricHash(g.Subdivide()[0], 8) {
				t.Fatalf("\t%s\tTest %d:\tShould tell a child from its parent.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould tell a child from its parent.", success, testID)
		}
	}
}
