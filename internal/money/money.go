// Package money parses and formats decimal currency amounts. Stored
// precision is whatever the gateway holds; display is always two fraction
// digits.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNotANumber  = errors.New("money: amount is not a number")
	ErrNotPositive = errors.New("money: amount must be positive")
)

// Format renders an amount with two fraction digits, e.g. 12.5 -> "12.50".
func Format(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}

// ParsePositive parses a decimal amount and requires it to be strictly
// positive. Used for price inputs before anything is sent to the gateway.
func ParsePositive(raw string) (float64, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, ErrNotANumber
	}
	if !value.IsPositive() {
		return 0, ErrNotPositive
	}
	f, _ := value.Float64()
	return f, nil
}
