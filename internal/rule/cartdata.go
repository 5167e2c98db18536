package rule

import (
	"fmt"
	"strings"

	"github.com/noah-isme/backend-cart/internal/cart"
	"github.com/noah-isme/backend-cart/internal/shop"
	"github.com/noah-isme/backend-cart/internal/structs"
)

// LineItemsInCart matches when any of the given line item identifiers is
// present in the calculated cart. Vouchers restricted to specific articles
// use this rule.
type LineItemsInCart struct {
	Identifiers []string
}

// NewLineItemsInCart builds the rule over the given identifiers.
func NewLineItemsInCart(identifiers ...string) *LineItemsInCart {
	return &LineItemsInCart{Identifiers: identifiers}
}

func (r *LineItemsInCart) Match(calculated *cart.Calculated, _ *shop.Context, _ *structs.Collection) Match {
	for _, id := range r.Identifiers {
		if calculated.LineItems().Exists(id) {
			return Matched()
		}
	}
	return NotMatched(fmt.Sprintf("none of line items %s in cart", strings.Join(r.Identifiers, ", ")))
}

// ProductOfManufacturer matches when the cart contains a product of one of
// the given manufacturers. The manufacturer ids of the cart's products are
// side-loaded by the product collector; absent data fails closed.
type ProductOfManufacturer struct {
	ManufacturerIDs []string
}

// NewProductOfManufacturer builds the rule over the given manufacturer ids.
func NewProductOfManufacturer(manufacturerIDs ...string) *ProductOfManufacturer {
	return &ProductOfManufacturer{ManufacturerIDs: manufacturerIDs}
}

func (r *ProductOfManufacturer) Match(_ *cart.Calculated, _ *shop.Context, data *structs.Collection) Match {
	value, ok := data.Get(DataKeyManufacturers).(ManufacturerData)
	if !ok {
		return NotMatched("product manufacturer data not loaded")
	}
	if value.HasAny(r.ManufacturerIDs) {
		return Matched()
	}
	return NotMatched("product manufacturer not matched")
}

// OrderCount compares the customer's number of previous orders against a
// fixed count. The count is side-loaded; absent data fails closed.
type OrderCount struct {
	Count    int
	Operator Operator
}

// NewOrderCount validates the operator at construction.
func NewOrderCount(count int, operator string) (*OrderCount, error) {
	op, err := ParseOperator(operator, "order count")
	if err != nil {
		return nil, err
	}
	return &OrderCount{Count: count, Operator: op}, nil
}

func (r *OrderCount) Match(_ *cart.Calculated, _ *shop.Context, data *structs.Collection) Match {
	value, ok := data.Get(DataKeyOrderCount).(OrderCountData)
	if !ok {
		return NotMatched("order count data not loaded")
	}
	if r.Operator.compareInt(int64(value.Count), int64(r.Count)) {
		return Matched()
	}
	return NotMatched(fmt.Sprintf("order count %d not %s %d", value.Count, r.Operator, r.Count))
}
