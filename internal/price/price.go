package price

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-cart/internal/tax"
)

// Definition is the unevaluated intent of a price: a unit amount, the tax
// rules that apply and the quantity it will be multiplied with. IsCalculated
// signals that the unit amount is already resolved; definitions still
// pointing at catalog data must be resolved by a processor before they reach
// the price calculator.
type Definition struct {
	Unit         decimal.Decimal
	TaxRules     *tax.RuleCollection
	Quantity     int
	IsCalculated bool
}

// NewDefinition returns a resolved price definition.
func NewDefinition(unit decimal.Decimal, rules *tax.RuleCollection, quantity int) Definition {
	return Definition{Unit: unit, TaxRules: rules, Quantity: quantity, IsCalculated: true}
}

// WithQuantity returns a copy of the definition carrying the given quantity.
// Line item quantity always wins over a quantity embedded in a stale
// definition.
func (d Definition) WithQuantity(quantity int) Definition {
	d.Quantity = quantity
	return d
}

// Price is the evaluated result: unit and total amount with the computed tax
// breakdown and the rules it was derived from.
type Price struct {
	Unit            decimal.Decimal
	Total           decimal.Decimal
	CalculatedTaxes *tax.CalculatedTaxCollection
	TaxRules        *tax.RuleCollection
	Quantity        int
}

// Taxes returns the breakdown, never nil.
func (p Price) Taxes() *tax.CalculatedTaxCollection {
	if p.CalculatedTaxes == nil {
		return tax.NewCalculatedTaxCollection()
	}
	return p.CalculatedTaxes
}
