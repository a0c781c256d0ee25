package territory_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/siertrichain/blockchain/foundation/blockchain/fractal"
	"github.com/siertrichain/blockchain/foundation/blockchain/geometry"
	"github.com/siertrichain/blockchain/foundation/blockchain/territory"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRegistry(t *testing.T) {
	tree, _ := fractal.NewTree(geometry.Genesis(), fractal.Full)
	reg := territory.NewRegistry(&tree)

	addr := fractal.Address{1, 3}
	tri, _ := tree.Resolve(addr)

	t.Log("Given the need to manage territory ownership.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen claiming a triangle.", testID)
		{
			terr, err := reg.Claim(tri, addr, "alice", dec("10"))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould claim the territory: %v", failed, testID, err)
			}
			if terr.Key != territory.Key(tri) || terr.Owner != "alice" {
				t.Fatalf("\t%s\tTest %d:\tShould key the territory by its triangle.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould claim the territory.", success, testID)

			if _, err := reg.Claim(tri, addr, "bob", dec("1")); !errors.Is(err, territory.ErrAlreadyClaimed) {
				t.Fatalf("\t%s\tTest %d:\tShould refuse a second claim: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould refuse a second claim.", success, testID)

			if _, err := reg.Claim(tri, fractal.Address{1, 2}, "bob", dec("1")); !errors.Is(err, territory.ErrAddressMismatch) {
				t.Fatalf("\t%s\tTest %d:\tShould refuse a wrong address: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould refuse a wrong address.", success, testID)

			flat := geometry.NewTriangle(geometry.MustPoint("0", "0"), geometry.MustPoint("1", "1"), geometry.MustPoint("2", "2"))
			if _, err := reg.Claim(flat, addr, "bob", dec("1")); !errors.Is(err, territory.ErrDegenerate) {
				t.Fatalf("\t%s\tTest %d:\tShould refuse a degenerate triangle: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould refuse a degenerate triangle.", success, testID)

			skewed := geometry.NewTriangle(geometry.MustPoint("0", "0"), geometry.MustPoint("2", "0"), geometry.MustPoint("0.5", "1"))
			if _, err := reg.Claim(skewed, addr, "bob", dec("1")); !errors.Is(err, territory.ErrNotEquilateral) {
				t.Fatalf("\t%s\tTest %d:\tShould refuse a non equilateral triangle: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould refuse a non equilateral triangle.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen defending and conquering.", testID)
		{
			key := territory.Key(tri)

			terr, err := reg.Defend(key, dec("5"))
			if err != nil || !terr.Stake.Equal(dec("15")) {
				t.Fatalf("\t%s\tTest %d:\tShould add stake: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould add stake.", success, testID)

			if _, err := reg.Conquer(key, "bob", tri, dec("15")); !errors.Is(err, territory.ErrInsufficientStake) {
				t.Fatalf("\t%s\tTest %d:\tShould require a strictly greater stake: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould require a strictly greater stake.", success, testID)

			skewed := geometry.NewTriangle(geometry.MustPoint("0", "0"), geometry.MustPoint("2", "0"), geometry.MustPoint("0.5", "1"))
			if _, err := reg.Conquer(key, "bob", skewed, dec("100")); !errors.Is(err, territory.ErrNotEquilateral) {
				t.Fatalf("\t%s\tTest %d:\tShould refuse to conquer with a non equilateral triangle: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould refuse to conquer with a non equilateral triangle.", success, testID)

			terr, err = reg.Conquer(key, "bob", tri, dec("15.5"))
			if err != nil || terr.Owner != "bob" || !terr.Address.Equal(addr) {
				t.Fatalf("\t%s\tTest %d:\tShould transfer ownership: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould transfer ownership.", success, testID)

			if _, err := reg.Get("0xmissing"); !errors.Is(err, territory.ErrNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould not find an unknown key: %v", failed, testID, err)
			}
			if _, err := reg.Defend("0xmissing", dec("1")); !errors.Is(err, territory.ErrNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould not defend an unknown key: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould not find an unknown key.", success, testID)

			if n := len(reg.List()); n != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould list one territory: %d", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould list one territory.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen valuing triangles.", testID)
		{
			children := tri.Subdivide()
			if !territory.Value(children[0], dec("1")).GreaterThan(territory.Value(tri, dec("1"))) {
				t.Fatalf("\t%s\tTest %d:\tShould value smaller triangles higher.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould value smaller triangles higher.", success, testID)

			// Each subdivision quarters the area, so the value grows sixteen fold.
			ratio := territory.Value(children[0], dec("1")).Div(territory.Value(tri, dec("1")))
			if !ratio.Round(6).Equal(dec("16")) {
				t.Fatalf("\t%s\tTest %d:\tShould grow sixteen fold: %s", failed, testID, ratio)
			}
			t.Logf("\t%s\tTest %d:\tShould grow sixteen fold.", success, testID)
		}
	}
}
