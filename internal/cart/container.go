package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-cart/internal/lineitem"
)

// Container is the mutable, session-scoped cart: a token identifying the
// session, a name for namespacing multiple carts per session and the
// requested line items. The token stays stable across recalculations until
// the cart is explicitly reset or ordered.
type Container struct {
	Token     string
	Name      string
	LineItems *lineitem.Collection
	CreatedAt time.Time
}

// NewContainer returns an empty container with a fresh token.
func NewContainer(name string) *Container {
	return &Container{
		Token:     uuid.NewString(),
		Name:      name,
		LineItems: lineitem.NewCollection(),
		CreatedAt: time.Now().UTC(),
	}
}

// Items returns the line item collection, never nil.
func (c *Container) Items() *lineitem.Collection {
	if c.LineItems == nil {
		c.LineItems = lineitem.NewCollection()
	}
	return c.LineItems
}
