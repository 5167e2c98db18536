package lineitem

import (
	"time"

	"github.com/noah-isme/backend-cart/internal/price"
)

// CalculatedLineItem is the immutable, priced output of a processor. It
// mirrors the identifier of the requested line item it originates from.
type CalculatedLineItem interface {
	GetIdentifier() string
	GetLabel() string
	GetQuantity() int
	GetPrice() price.Price
	GetLineItem() *LineItem
	GetType() string
}

// DeliveryDate is an estimated delivery window.
type DeliveryDate struct {
	Earliest time.Time
	Latest   time.Time
}

// Goods marks calculated line items that are physical, shippable products.
// Discounts and vouchers are not goods and never contribute to goods totals.
type Goods interface {
	CalculatedLineItem
	Available() bool
	InStockDeliveryDate() DeliveryDate
	OutOfStockDeliveryDate() DeliveryDate
}

// EffectiveDeliveryDate returns the delivery window that applies to the
// item's current stock state.
func EffectiveDeliveryDate(g Goods) DeliveryDate {
	if g.Available() {
		return g.InStockDeliveryDate()
	}
	return g.OutOfStockDeliveryDate()
}

// CalculatedItem is the generic immutable calculated line item used for
// custom positions and embedded by specialised variants.
type CalculatedItem struct {
	Identifier string
	Label      string
	Quantity   int
	Price      price.Price
	LineItem   *LineItem
	Type       string
}

func (c CalculatedItem) GetIdentifier() string { return c.Identifier }
func (c CalculatedItem) GetLabel() string      { return c.Label }
func (c CalculatedItem) GetQuantity() int      { return c.Quantity }
func (c CalculatedItem) GetPrice() price.Price { return c.Price }
func (c CalculatedItem) GetLineItem() *LineItem {
	return c.LineItem
}
func (c CalculatedItem) GetType() string { return c.Type }
