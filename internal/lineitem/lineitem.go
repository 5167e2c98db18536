package lineitem

import (
	"fmt"

	"github.com/noah-isme/backend-cart/internal/price"
)

// Line item type tags dispatched to processors.
const (
	TypeProduct = "product"
	TypeVoucher = "voucher"
	TypeCustom  = "custom"
)

// NotFoundError reports a quantity change or removal against an identifier
// that is not part of the cart. It is user-correctable, not fatal.
type NotFoundError struct {
	Identifier string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("line item %q not found", e.Identifier)
}

// LineItem is a requested, still unpriced cart entry. It is mutable and
// owned exclusively by its cart container. The payload carries opaque data
// consumed by the processor registered for the type tag, e.g. the referenced
// product id.
type LineItem struct {
	Identifier string
	Type       string
	Quantity   int
	Definition *price.Definition
	Payload    map[string]string
}

// New returns a requested line item.
func New(identifier, itemType string, quantity int) (*LineItem, error) {
	if identifier == "" {
		return nil, fmt.Errorf("line item identifier must not be empty")
	}
	if quantity < 1 {
		return nil, fmt.Errorf("line item %q quantity must be positive, got %d", identifier, quantity)
	}
	return &LineItem{
		Identifier: identifier,
		Type:       itemType,
		Quantity:   quantity,
		Payload:    map[string]string{},
	}, nil
}

// SetQuantity updates the requested quantity.
func (l *LineItem) SetQuantity(quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("line item %q quantity must be positive, got %d", l.Identifier, quantity)
	}
	l.Quantity = quantity
	return nil
}

// PayloadValue returns the payload entry for key, or the empty string.
func (l *LineItem) PayloadValue(key string) string {
	if l == nil || l.Payload == nil {
		return ""
	}
	return l.Payload[key]
}
