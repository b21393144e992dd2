// Package money provides currency-safe conversion between the float amounts
// produced by statement parsing and the integer cents persisted in the
// database, following the Fowler Money pattern.
package money

import (
	"fmt"
	"math"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a statement carries no currency information.
const DefaultCurrency = "SGD"

// Money represents a monetary value with currency.
type Money struct {
	m *money.Money
}

// New creates a Money value from cents (minor units) and currency code.
func New(amountCents int64, currencyCode string) *Money {
	return &Money{m: money.New(amountCents, currencyCode)}
}

// NewFromFloat creates Money from a floating-point amount, rounding to the
// currency's minor unit via decimal arithmetic. NaN and infinities map to
// zero; callers filter those out before persistence.
func NewFromFloat(amount float64, currencyCode string) *Money {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return New(0, currencyCode)
	}

	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		currency = money.GetCurrency(DefaultCurrency)
	}

	d := decimal.NewFromFloat(amount)
	multiplier := decimal.New(1, int32(currency.Fraction))
	cents := d.Mul(multiplier).Round(0).IntPart()

	return New(cents, currency.Code)
}

// Cents returns the amount in minor units.
func (m *Money) Cents() int64 {
	return m.m.Amount()
}

// CurrencyCode returns the ISO-4217 currency code.
func (m *Money) CurrencyCode() string {
	return m.m.Currency().Code
}

// Float returns the amount in major units.
func (m *Money) Float() float64 {
	return m.m.AsMajorUnits()
}

// String formats the amount with its currency symbol.
func (m *Money) String() string {
	return m.m.Display()
}

// Add returns the sum of two Money values; currencies must match.
func (m *Money) Add(other *Money) (*Money, error) {
	sum, err := m.m.Add(other.m)
	if err != nil {
		return nil, fmt.Errorf("failed to add money values: %w", err)
	}
	return &Money{m: sum}, nil
}
