// Package fractal implements the recursive subdivision of a triangle into a
// tree of leaves and the addresses that identify those leaves.
package fractal

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Fanout is the number of children produced by one subdivision step.
const Fanout = 4

// ErrInvalidDigit is returned when an address holds a digit that can't name
// a child of a subdivision step.
var ErrInvalidDigit = errors.New("invalid address digit")

// Address records, level by level, which child was chosen when descending
// from the root triangle to a leaf. The length of the address is the depth
// of the leaf.
type Address []uint8

// Depth returns the subdivision depth of the address.
func (a Address) Depth() int {
	return len(a)
}

// Equal reports whether both addresses hold the same digits.
func (a Address) Equal(b Address) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy that does not share storage with a.
func (a Address) Clone() Address {
	if a == nil {
		return nil
	}
	cpy := make(Address, len(a))
	copy(cpy, a)
	return cpy
}

// Child returns a new address one level deeper.
func (a Address) Child(digit uint8) Address {
	child := make(Address, len(a), len(a)+1)
	copy(child, a)
	return append(child, digit)
}

// Validate checks every digit names a child of a subdivision with the
// specified fanout.
func (a Address) Validate(fanout int) error {
	for level, d := range a {
		if int(d) >= fanout {
			return fmt.Errorf("%w: level %d, digit %d, fanout %d", ErrInvalidDigit, level, d, fanout)
		}
	}
	return nil
}

// String returns the digits concatenated without a separator. This is the
// form used as block hash input, which is unambiguous only while every digit
// is a single decimal character.
func (a Address) String() string {
	var sb strings.Builder
	for _, d := range a {
		sb.WriteString(strconv.Itoa(int(d)))
	}
	return sb.String()
}

// Position returns the digits joined by a dash, the readable form of the
// leaf position within the hierarchy.
func (a Address) Position() string {
	parts := make([]string, len(a))
	for i, d := range a {
		parts[i] = strconv.Itoa(int(d))
	}
	return strings.Join(parts, "-")
}

// MarshalJSON encodes the address as an array of numbers instead of the
// base64 string used for byte slices.
func (a Address) MarshalJSON() ([]byte, error) {
	digits := make([]int, len(a))
	for i, d := range a {
		digits[i] = int(d)
	}
	return json.Marshal(digits)
}

// UnmarshalJSON decodes an array of numbers into the address.
func (a *Address) UnmarshalJSON(data []byte) error {
	var digits []int
	if err := json.Unmarshal(data, &digits); err != nil {
		return err
	}

	addr := make(Address, len(digits))
	for i, d := range digits {
		if d < 0 || d > 255 {
			return fmt.Errorf("%w: level %d, digit %d", ErrInvalidDigit, i, d)
		}
		addr[i] = uint8(d)
	}
	*a = addr

	return nil
}

// ParseAddress parses the dash separated form produced by Position or the
// compact form produced by String.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return Address{}, nil
	}

	parts := strings.Split(s, "-")
	if len(parts) == 1 {
		parts = strings.Split(s, "")
	}

	addr := make(Address, len(parts))
	for i, p := range parts {
		d, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: level %d: %s", ErrInvalidDigit, i, err)
		}
		addr[i] = uint8(d)
	}

	return addr, nil
}
