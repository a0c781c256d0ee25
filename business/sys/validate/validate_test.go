package validate_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/siertrichain/blockchain/business/sys/validate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type claim struct {
	Owner   string          `json:"owner" validate:"required"`
	Address string          `json:"address" validate:"required,numeric"`
	Stake   decimal.Decimal `json:"stake" validate:"required"`
}

func TestCheck(t *testing.T) {
	t.Log("Given the need to validate request models.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen checking a complete model.", testID)
		{
			c := claim{Owner: "alice", Address: "0123", Stake: decimal.NewFromInt(5)}
			if err := validate.Check(c); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept the model: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould accept the model.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen checking an incomplete model.", testID)
		{
			err := validate.Check(claim{Address: "12x"})
			if !validate.IsFieldErrors(err) {
				t.Fatalf("\t%s\tTest %d:\tShould return field errors: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould return field errors.", success, testID)

			fields := validate.GetFieldErrors(err).Fields()
			for _, name := range []string{"owner", "address", "stake"} {
				if _, exists := fields[name]; !exists {
					t.Fatalf("\t%s\tTest %d:\tShould name the %q field: %v", failed, testID, name, fields)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould name the failing fields by json tag.", success, testID)
		}
	}
}
