// Package money is fixed-point currency: amounts are int64 cents and cross the
// wire as decimal strings with at most two fraction digits.
package money

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type Cents int64

var ErrInvalidAmount = errors.New("invalid amount")

var (
	amountPattern = regexp.MustCompile(`^[+-]?[0-9]+(\.[0-9]{1,2})?$`)
	maxCents      = decimal.NewFromInt(math.MaxInt64)
)

// Parse reads "150", "150.5" or "150.50" (optionally signed) into cents.
func Parse(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	if !amountPattern.MatchString(s) {
		return 0, fmt.Errorf("%w: %q needs digits and at most 2 fraction digits", ErrInvalidAmount, s)
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(s, "+"))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	c := d.Shift(2)
	if c.Abs().GreaterThan(maxCents) {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, s)
	}
	return Cents(c.IntPart()), nil
}

// Decimal is the amount in currency units.
func (c Cents) Decimal() decimal.Decimal { return decimal.New(int64(c), -2) }

func (c Cents) String() string { return c.Decimal().StringFixed(2) }

// Times multiplies a nightly rate by a night count.
func (c Cents) Times(n int) (Cents, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: negative multiplier %d", ErrInvalidAmount, n)
	}
	if n != 0 && (int64(c) > math.MaxInt64/int64(n) || int64(c) < math.MinInt64/int64(n)) {
		return 0, fmt.Errorf("%w: overflow", ErrInvalidAmount)
	}
	return c * Cents(n), nil
}

func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(c.String())), nil
}

// UnmarshalJSON accepts both "150.00" and a bare 150.00 without going
// through float64.
func (c *Cents) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		u, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidAmount, s)
		}
		s = u
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}
