package cart

import (
	"github.com/noah-isme/backend-cart/internal/lineitem"
	"github.com/noah-isme/backend-cart/internal/price"
)

// Calculated is the immutable, fully priced snapshot of a cart produced by
// one calculator run. It is never mutated after the run completes; every
// mutation of the container triggers a fresh calculation and a new snapshot.
//
// During a run the snapshot doubles as the in-progress accumulator:
// processors append their results so that later processors (vouchers) can
// read earlier ones (goods totals).
type Calculated struct {
	container  *Container
	lineItems  *lineitem.Calculated
	price      price.CartPrice
	deliveries []Delivery
}

// NewCalculated wraps a container snapshot with its calculated line items
// and aggregate price.
func NewCalculated(container *Container, items *lineitem.Calculated, cartPrice price.CartPrice) *Calculated {
	if items == nil {
		items = lineitem.NewCalculated()
	}
	return &Calculated{container: container, lineItems: items, price: cartPrice}
}

// Token returns the session token of the underlying container.
func (c *Calculated) Token() string {
	return c.container.Token
}

// Name returns the cart name of the underlying container.
func (c *Calculated) Name() string {
	return c.container.Name
}

// Container returns the originating container.
func (c *Calculated) Container() *Container {
	return c.container
}

// LineItems returns the calculated line item collection.
func (c *Calculated) LineItems() *lineitem.Calculated {
	return c.lineItems
}

// Price returns the aggregate cart price.
func (c *Calculated) Price() price.CartPrice {
	return c.price
}

// Deliveries returns the goods grouped by effective delivery window.
func (c *Calculated) Deliveries() []Delivery {
	return c.deliveries
}
