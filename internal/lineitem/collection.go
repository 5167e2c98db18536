package lineitem

// Collection is the ordered, identifier-keyed set of requested line items of
// one cart. Insertion order is preserved and significant for deterministic
// calculation output. Adding an existing identifier replaces the earlier
// entry in place, last write wins.
type Collection struct {
	order []string
	items map[string]*LineItem
}

// NewCollection builds a collection from the given items.
func NewCollection(items ...*LineItem) *Collection {
	c := &Collection{items: map[string]*LineItem{}}
	for _, item := range items {
		c.Add(item)
	}
	return c
}

// Add inserts or replaces the item keyed by its identifier.
func (c *Collection) Add(item *LineItem) {
	if item == nil {
		return
	}
	if c.items == nil {
		c.items = map[string]*LineItem{}
	}
	if _, ok := c.items[item.Identifier]; !ok {
		c.order = append(c.order, item.Identifier)
	}
	c.items[item.Identifier] = item
}

// Fill adds all given items, keeping overwrite semantics.
func (c *Collection) Fill(items []*LineItem) {
	for _, item := range items {
		c.Add(item)
	}
}

// Get returns the item for the identifier, or nil.
func (c *Collection) Get(identifier string) *LineItem {
	if c == nil || c.items == nil {
		return nil
	}
	return c.items[identifier]
}

// Exists reports whether the identifier is present.
func (c *Collection) Exists(identifier string) bool {
	return c.Get(identifier) != nil
}

// Remove deletes the item. A missing identifier yields a NotFoundError.
func (c *Collection) Remove(identifier string) error {
	if !c.Exists(identifier) {
		return NotFoundError{Identifier: identifier}
	}
	delete(c.items, identifier)
	for i, id := range c.order {
		if id == identifier {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// FilterType returns the items carrying the given type tag, in order.
func (c *Collection) FilterType(itemType string) []*LineItem {
	var out []*LineItem
	for _, item := range c.Items() {
		if item.Type == itemType {
			out = append(out, item)
		}
	}
	return out
}

// Types returns the distinct type tags present, in first-seen order.
func (c *Collection) Types() []string {
	seen := map[string]bool{}
	var out []string
	for _, item := range c.Items() {
		if !seen[item.Type] {
			seen[item.Type] = true
			out = append(out, item.Type)
		}
	}
	return out
}

// Items returns all items in insertion order.
func (c *Collection) Items() []*LineItem {
	if c == nil {
		return nil
	}
	out := make([]*LineItem, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

// Identifiers returns the identifiers in insertion order.
func (c *Collection) Identifiers() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Count returns the number of items.
func (c *Collection) Count() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}
