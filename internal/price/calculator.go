package price

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-cart/internal/shop"
	"github.com/noah-isme/backend-cart/internal/tax"
)

var hundred = decimal.NewFromInt(100)

// Calculator turns a resolved price definition into an evaluated Price. It
// performs no lookups; unresolved definitions are a caller bug.
type Calculator struct{}

// Calculate evaluates the definition under the context's tax display state.
func (c Calculator) Calculate(def Definition, ctx *shop.Context) (Price, error) {
	if !def.IsCalculated {
		return Price{}, fmt.Errorf("price definition is not resolved")
	}
	if def.Quantity < 1 {
		return Price{}, fmt.Errorf("price definition quantity must be positive, got %d", def.Quantity)
	}

	precision := ctx.Precision()
	unit := def.Unit.Round(precision)
	total := unit.Mul(decimal.NewFromInt(int64(def.Quantity))).Round(precision)

	rules := def.TaxRules
	if rules == nil {
		rules = tax.NewRuleCollection()
	}
	taxes := tax.Calculator{Precision: precision}.Calculate(total, rules, ctx.TaxState)

	return Price{
		Unit:            unit,
		Total:           total,
		CalculatedTaxes: taxes,
		TaxRules:        rules,
		Quantity:        def.Quantity,
	}, nil
}

// PercentageCalculator derives a percentage share price from a set of base
// prices, scaling their merged tax breakdown proportionally. Used for
// percentage vouchers, with a negative percentage producing a discount.
type PercentageCalculator struct{}

// Calculate returns the price representing percentage of the summed base
// prices. The resulting breakdown scales each rate bucket by the same
// percentage so tax-inclusive totals stay consistent.
func (PercentageCalculator) Calculate(percentage decimal.Decimal, base []Price, ctx *shop.Context) Price {
	precision := ctx.Precision()

	baseTotal := decimal.Zero
	merged := tax.NewCalculatedTaxCollection()
	rules := tax.NewRuleCollection()
	for _, p := range base {
		baseTotal = baseTotal.Add(p.Total)
		merged.Merge(p.Taxes())
		rules = rules.Merge(p.TaxRules)
	}

	total := baseTotal.Mul(percentage).Div(hundred).Round(precision)
	taxes := tax.NewCalculatedTaxCollection()
	for _, bucket := range merged.Taxes() {
		taxes.Add(tax.CalculatedTax{
			Tax:   bucket.Tax.Mul(percentage).Div(hundred).Round(precision),
			Rate:  bucket.Rate,
			Price: bucket.Price.Mul(percentage).Div(hundred).Round(precision),
		})
	}

	return Price{
		Unit:            total,
		Total:           total,
		CalculatedTaxes: taxes,
		TaxRules:        rules,
		Quantity:        1,
	}
}
