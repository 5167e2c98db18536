// Package discount prices custom line items: positions that carry their own
// explicit price definition, such as manual surcharges or ad-hoc discounts
// added by an agent.
package discount

import (
	"fmt"

	"github.com/noah-isme/backend-cart/internal/cart"
	"github.com/noah-isme/backend-cart/internal/lineitem"
	"github.com/noah-isme/backend-cart/internal/price"
	"github.com/noah-isme/backend-cart/internal/shop"
	"github.com/noah-isme/backend-cart/internal/structs"
)

// Processor prices custom line items from their explicit definitions. A
// custom line item without a definition is a configuration defect and fails
// the calculation.
type Processor struct {
	Calculator price.Calculator
}

// LineItemType implements cart.Processor.
func (Processor) LineItemType() string { return lineitem.TypeCustom }

// Process implements cart.Processor.
func (p Processor) Process(ctx *shop.Context, items []*lineitem.LineItem, calculated *cart.Calculated, _ *structs.Collection) error {
	for _, item := range items {
		if item.Definition == nil {
			return fmt.Errorf("custom line item %q has no price definition", item.Identifier)
		}
		def := item.Definition.WithQuantity(item.Quantity)
		itemPrice, err := p.Calculator.Calculate(def, ctx)
		if err != nil {
			return err
		}
		label := item.Identifier
		calculated.LineItems().Add(lineitem.CalculatedItem{
			Identifier: item.Identifier,
			Label:      label,
			Quantity:   item.Quantity,
			Price:      itemPrice,
			LineItem:   item,
			Type:       lineitem.TypeCustom,
		})
	}
	return nil
}
