package model

import (
	"bytes"
	"strings"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

var (
	ErrQuantityOverflow = errors.New("quantity overflows 256 bits")
	ErrInvalidQuantity  = errors.New("invalid quantity")
)

// Quantity is an exact unsigned on-chain amount: lovelace, fees or native
// token units. Koios serialises these as decimal strings.
type Quantity struct {
	v uint256.Int
}

func NewQuantity(n uint64) Quantity {
	var q Quantity
	q.v.SetUint64(n)
	return q
}

func ParseQuantity(s string) (Quantity, error) {
	var q Quantity
	s = strings.TrimSpace(s)
	if s == "" {
		return q, errors.Wrap(ErrInvalidQuantity, "empty string")
	}
	if s[0] == '-' || s[0] == '+' {
		return q, errors.Wrapf(ErrInvalidQuantity, "signed value %q", s)
	}
	if err := q.v.SetFromDecimal(s); err != nil {
		if errors.Is(err, uint256.ErrBig256Range) {
			return q, errors.Wrapf(ErrQuantityOverflow, "parse %q", s)
		}
		return q, errors.Wrapf(ErrInvalidQuantity, "parse %q: %v", s, err)
	}
	return q, nil
}

func MustParseQuantity(s string) Quantity {
	q, err := ParseQuantity(s)
	if err != nil {
		panic(err)
	}
	return q
}

// Add returns q+o and fails instead of wrapping around.
func (q Quantity) Add(o Quantity) (Quantity, error) {
	var res Quantity
	if _, overflow := res.v.AddOverflow(&q.v, &o.v); overflow {
		return Quantity{}, ErrQuantityOverflow
	}
	return res, nil
}

func (q Quantity) Cmp(o Quantity) int {
	return q.v.Cmp(&o.v)
}

func (q Quantity) IsZero() bool {
	return q.v.IsZero()
}

func (q Quantity) String() string {
	return q.v.Dec()
}

// Format renders the quantity with the given number of decimals without
// going through floating point, e.g. 1500000 with 6 decimals is "1.500000".
func (q Quantity) Format(decimals int) string {
	digits := q.v.Dec()
	if decimals <= 0 {
		return digits
	}
	if len(digits) <= decimals {
		digits = strings.Repeat("0", decimals-len(digits)+1) + digits
	}
	cut := len(digits) - decimals
	return digits[:cut] + "." + digits[cut:]
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + q.v.Dec() + `"`), nil
}

// UnmarshalJSON accepts quoted decimal strings, bare integers and null.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		q.v.Clear()
		return nil
	}
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseQuantity(s)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}
