package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Defaults applied when no pricing configuration is given.
var (
	DefaultFreeShippingThreshold = decimal.RequireFromString("50.00")
	DefaultShippingFee           = decimal.RequireFromString("5.99")
	DefaultTaxRate               = decimal.RequireFromString("0.20")
)

const moneyPlaces = 2

type PricingPolicy struct {
	// Subtotals at or above the threshold ship free.
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
	// TaxRate applies to the subtotal only, never to shipping.
	TaxRate decimal.Decimal
}

func DefaultPricing() PricingPolicy {
	return PricingPolicy{
		FreeShippingThreshold: DefaultFreeShippingThreshold,
		ShippingFee:           DefaultShippingFee,
		TaxRate:               DefaultTaxRate,
	}
}

func (p PricingPolicy) Validate() error {
	if p.FreeShippingThreshold.IsNegative() {
		return errors.New("free shipping threshold must not be negative")
	}
	if p.ShippingFee.IsNegative() {
		return errors.New("shipping fee must not be negative")
	}
	if p.TaxRate.IsNegative() || p.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return errors.New("tax rate must be between 0 and 1")
	}
	return nil
}

type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Calculate prices validated lines. Subtotal and tax are rounded half-up to
// cents once; total is their exact sum with shipping, so
// Total == Subtotal + Shipping + Tax always holds.
func (p PricingPolicy) Calculate(lines []ValidatedLine) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal)
	}
	subtotal = subtotal.Round(moneyPlaces)

	shipping := p.ShippingFee.Round(moneyPlaces)
	if subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(p.TaxRate).Round(moneyPlaces)

	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}

// Cents converts a money amount to integer cents, rounding half-up.
func Cents(d decimal.Decimal) int64 {
	return d.Round(moneyPlaces).Shift(moneyPlaces).IntPart()
}

func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -moneyPlaces)
}
