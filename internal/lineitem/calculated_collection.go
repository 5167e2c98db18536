package lineitem

import (
	"github.com/noah-isme/backend-cart/internal/price"
)

// Calculated is the ordered, identifier-keyed collection of calculated line
// items. It shares the uniqueness and overwrite semantics of Collection.
type Calculated struct {
	order []string
	items map[string]CalculatedLineItem
}

// NewCalculated builds a calculated collection from the given items.
func NewCalculated(items ...CalculatedLineItem) *Calculated {
	c := &Calculated{items: map[string]CalculatedLineItem{}}
	for _, item := range items {
		c.Add(item)
	}
	return c
}

// Add inserts or replaces the item keyed by its identifier.
func (c *Calculated) Add(item CalculatedLineItem) {
	if item == nil {
		return
	}
	if c.items == nil {
		c.items = map[string]CalculatedLineItem{}
	}
	if _, ok := c.items[item.GetIdentifier()]; !ok {
		c.order = append(c.order, item.GetIdentifier())
	}
	c.items[item.GetIdentifier()] = item
}

// Get returns the item for the identifier, or nil.
func (c *Calculated) Get(identifier string) CalculatedLineItem {
	if c == nil || c.items == nil {
		return nil
	}
	return c.items[identifier]
}

// Exists reports whether the identifier is present.
func (c *Calculated) Exists(identifier string) bool {
	return c.Get(identifier) != nil
}

// Remove deletes the item for the identifier, if present.
func (c *Calculated) Remove(identifier string) {
	if c == nil || c.items == nil {
		return
	}
	if _, ok := c.items[identifier]; !ok {
		return
	}
	delete(c.items, identifier)
	for i, id := range c.order {
		if id == identifier {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// RemoveItem deletes the given item, matching by identifier.
func (c *Calculated) RemoveItem(item CalculatedLineItem) {
	if item == nil {
		return
	}
	c.Remove(item.GetIdentifier())
}

// Clear removes all items.
func (c *Calculated) Clear() {
	c.order = nil
	c.items = map[string]CalculatedLineItem{}
}

// Items returns all items in insertion order.
func (c *Calculated) Items() []CalculatedLineItem {
	if c == nil {
		return nil
	}
	out := make([]CalculatedLineItem, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

// FilterGoods returns only the items carrying the Goods capability.
func (c *Calculated) FilterGoods() []Goods {
	var out []Goods
	for _, item := range c.Items() {
		if goods, ok := item.(Goods); ok {
			out = append(out, goods)
		}
	}
	return out
}

// FilterType returns the items carrying the given type tag, in order.
func (c *Calculated) FilterType(itemType string) []CalculatedLineItem {
	var out []CalculatedLineItem
	for _, item := range c.Items() {
		if item.GetType() == itemType {
			out = append(out, item)
		}
	}
	return out
}

// Prices returns all item prices in insertion order.
func (c *Calculated) Prices() []price.Price {
	if c == nil {
		return nil
	}
	out := make([]price.Price, 0, len(c.order))
	for _, item := range c.Items() {
		out = append(out, item.GetPrice())
	}
	return out
}

// GoodsPrices returns the prices of goods items only.
func (c *Calculated) GoodsPrices() []price.Price {
	var out []price.Price
	for _, goods := range c.FilterGoods() {
		out = append(out, goods.GetPrice())
	}
	return out
}

// Identifiers returns the identifiers in insertion order.
func (c *Calculated) Identifiers() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Count returns the number of items.
func (c *Calculated) Count() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}
