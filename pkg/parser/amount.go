package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatError reports a field that cannot be decoded as an implied-decimal
// amount or as a record date.
type FormatError struct {
	Token string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed token %q: %v", e.Token, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// ParseImpliedDecimal decodes an NAI amount: an integer with two implied
// decimal places and an optional trailing minus, so "12345" is 123.45 and
// "12345-" is -123.45. An empty token decodes to absent, not zero.
func ParseImpliedDecimal(token string) (decimal.NullDecimal, error) {
	if token == "" {
		return decimal.NullDecimal{}, nil
	}

	negative := strings.HasSuffix(token, "-")
	digits := strings.TrimSuffix(token, "-")

	units, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return decimal.NullDecimal{}, &FormatError{Token: token, Err: err}
	}

	d := decimal.New(units, -2)
	if negative {
		d = d.Neg()
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}
