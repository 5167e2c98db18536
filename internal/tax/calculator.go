package tax

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-cart/internal/shop"
)

var hundred = decimal.NewFromInt(100)

// Calculator computes tax breakdowns for monetary amounts. Gross amounts
// already contain tax, net amounts do not. Every rate bucket is rounded
// half-up to the currency precision; a leftover cent against the rounded
// total is assigned to the largest-rate bucket so the breakdown reconciles
// exactly with the gross/net delta.
type Calculator struct {
	Precision int32
}

func (c Calculator) precision() int32 {
	if c.Precision <= 0 {
		return 2
	}
	return c.Precision
}

// Calculate returns the tax breakdown for amount under the given display
// state. An empty rule set yields an empty breakdown.
func (c Calculator) Calculate(amount decimal.Decimal, rules *RuleCollection, state shop.TaxState) *CalculatedTaxCollection {
	result := NewCalculatedTaxCollection()
	if rules == nil || rules.Count() == 0 {
		return result
	}

	precision := c.precision()
	rawTotal := decimal.Zero
	largest := -1
	raw := make([]CalculatedTax, 0, rules.Count())

	for _, rule := range rules.Rules() {
		share := amount
		if !rule.Percentage.IsZero() && !rule.Percentage.Equal(hundred) {
			share = amount.Mul(rule.Percentage).Div(hundred)
		}
		var t decimal.Decimal
		switch state {
		case shop.TaxStateNet:
			t = share.Mul(rule.Rate).Div(hundred)
		default:
			t = share.Mul(rule.Rate).Div(hundred.Add(rule.Rate))
		}
		rawTotal = rawTotal.Add(t)
		raw = append(raw, CalculatedTax{Tax: t, Rate: rule.Rate, Price: share})
		if largest < 0 || rule.Rate.GreaterThan(raw[largest].Rate) {
			largest = len(raw) - 1
		}
	}

	roundedSum := decimal.Zero
	for i := range raw {
		raw[i].Tax = raw[i].Tax.Round(precision)
		roundedSum = roundedSum.Add(raw[i].Tax)
	}

	// Reconcile rounding drift against the rounded raw total.
	if remainder := rawTotal.Round(precision).Sub(roundedSum); !remainder.IsZero() && largest >= 0 {
		raw[largest].Tax = raw[largest].Tax.Add(remainder)
	}

	for _, t := range raw {
		result.Add(t)
	}
	return result
}
