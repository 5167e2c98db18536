package tax

import (
	"github.com/shopspring/decimal"
)

// CalculatedTax is the evaluated tax portion for a single rate: the tax
// amount itself, the rate it was computed with and the price share it was
// computed from.
type CalculatedTax struct {
	Tax   decimal.Decimal
	Rate  decimal.Decimal
	Price decimal.Decimal
}

// CalculatedTaxCollection holds calculated taxes unique by rate in insertion
// order. Adding an existing rate merges by summing tax and price, which is
// how line item breakdowns aggregate into a cart level breakdown.
type CalculatedTaxCollection struct {
	taxes []CalculatedTax
}

// NewCalculatedTaxCollection builds a collection from the given taxes,
// merging duplicate rates.
func NewCalculatedTaxCollection(taxes ...CalculatedTax) *CalculatedTaxCollection {
	c := &CalculatedTaxCollection{}
	for _, t := range taxes {
		c.Add(t)
	}
	return c
}

// Add inserts the calculated tax, summing into an existing rate bucket.
func (c *CalculatedTaxCollection) Add(t CalculatedTax) {
	for i, existing := range c.taxes {
		if existing.Rate.Equal(t.Rate) {
			c.taxes[i].Tax = existing.Tax.Add(t.Tax)
			c.taxes[i].Price = existing.Price.Add(t.Price)
			return
		}
	}
	c.taxes = append(c.taxes, t)
}

// Merge adds every tax of the other collection into this one.
func (c *CalculatedTaxCollection) Merge(other *CalculatedTaxCollection) {
	if other == nil {
		return
	}
	for _, t := range other.taxes {
		c.Add(t)
	}
}

// Get returns the bucket for the given rate.
func (c *CalculatedTaxCollection) Get(rate decimal.Decimal) (CalculatedTax, bool) {
	if c == nil {
		return CalculatedTax{}, false
	}
	for _, t := range c.taxes {
		if t.Rate.Equal(rate) {
			return t, true
		}
	}
	return CalculatedTax{}, false
}

// Sum returns the total tax amount across all rate buckets.
func (c *CalculatedTaxCollection) Sum() decimal.Decimal {
	sum := decimal.Zero
	if c == nil {
		return sum
	}
	for _, t := range c.taxes {
		sum = sum.Add(t.Tax)
	}
	return sum
}

// Taxes returns the buckets in insertion order.
func (c *CalculatedTaxCollection) Taxes() []CalculatedTax {
	if c == nil {
		return nil
	}
	out := make([]CalculatedTax, len(c.taxes))
	copy(out, c.taxes)
	return out
}

// Count returns the number of rate buckets.
func (c *CalculatedTaxCollection) Count() int {
	if c == nil {
		return 0
	}
	return len(c.taxes)
}
