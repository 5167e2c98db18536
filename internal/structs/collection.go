package structs

// Collection is an insertion-ordered, string-keyed container for side-loaded
// data. Gateways prefetch reference entities (products, vouchers, rule data)
// into a Collection before calculation so that the pricing core never touches
// a database itself.
type Collection struct {
	keys     []string
	elements map[string]any
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{elements: map[string]any{}}
}

// Add stores the value under key, overwriting an existing entry in place.
func (c *Collection) Add(key string, value any) {
	if c.elements == nil {
		c.elements = map[string]any{}
	}
	if _, ok := c.elements[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.elements[key] = value
}

// Get returns the value stored under key, or nil.
func (c *Collection) Get(key string) any {
	if c == nil || c.elements == nil {
		return nil
	}
	return c.elements[key]
}

// Has reports whether a value is stored under key.
func (c *Collection) Has(key string) bool {
	if c == nil || c.elements == nil {
		return false
	}
	_, ok := c.elements[key]
	return ok
}

// Remove deletes the entry stored under key.
func (c *Collection) Remove(key string) {
	if c == nil || c.elements == nil {
		return
	}
	if _, ok := c.elements[key]; !ok {
		return
	}
	delete(c.elements, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
}

// Count returns the number of stored entries.
func (c *Collection) Count() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Keys returns the stored keys in insertion order.
func (c *Collection) Keys() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}
