package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits kept for balances (currency minor units).
const MoneyScale = 2

var errTooPrecise = errors.New("amount has more than two decimal places")

// ParseAmount parses user input such as "40", "40.5" or "40.50".
// Amounts with more than two fractional digits are rejected rather than rounded.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if !HasMoneyScale(d) {
		return decimal.Zero, errTooPrecise
	}
	return d, nil
}

// HasMoneyScale reports whether d fits into two fractional digits.
func HasMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}

// FormatMoney renders d with exactly two fractional digits.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyScale)
}
