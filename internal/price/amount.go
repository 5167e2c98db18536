package price

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-cart/internal/shop"
	"github.com/noah-isme/backend-cart/internal/tax"
)

// CartPrice is the aggregate price of a whole cart: the summed position
// total, the derived net amount and the merged tax breakdown, tagged with
// the tax display state it was computed under.
type CartPrice struct {
	Net             decimal.Decimal
	Total           decimal.Decimal
	Position        decimal.Decimal
	CalculatedTaxes *tax.CalculatedTaxCollection
	TaxRules        *tax.RuleCollection
	TaxState        shop.TaxState
}

// Taxes returns the breakdown, never nil.
func (p CartPrice) Taxes() *tax.CalculatedTaxCollection {
	if p.CalculatedTaxes == nil {
		return tax.NewCalculatedTaxCollection()
	}
	return p.CalculatedTaxes
}

// AmountCalculator folds line item prices into the cart level CartPrice.
// Identical tax rates across line items are merged into one bucket.
type AmountCalculator struct{}

// Calculate sums the prices and reconciles gross/net totals. An empty input
// yields a zero price with an empty breakdown.
func (AmountCalculator) Calculate(prices []Price, ctx *shop.Context) CartPrice {
	position := decimal.Zero
	taxes := tax.NewCalculatedTaxCollection()
	rules := tax.NewRuleCollection()

	for _, p := range prices {
		position = position.Add(p.Total)
		taxes.Merge(p.Taxes())
		rules = rules.Merge(p.TaxRules)
	}

	precision := ctx.Precision()
	taxSum := taxes.Sum().Round(precision)

	var net, total decimal.Decimal
	switch ctx.TaxState {
	case shop.TaxStateNet:
		net = position
		total = position.Add(taxSum)
	default:
		total = position
		net = position.Sub(taxSum)
	}

	return CartPrice{
		Net:             net,
		Total:           total,
		Position:        position,
		CalculatedTaxes: taxes,
		TaxRules:        rules,
		TaxState:        ctx.TaxState,
	}
}
