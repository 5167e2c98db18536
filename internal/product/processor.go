package product

import (
	"time"

	"github.com/noah-isme/backend-cart/internal/cart"
	"github.com/noah-isme/backend-cart/internal/lineitem"
	"github.com/noah-isme/backend-cart/internal/price"
	"github.com/noah-isme/backend-cart/internal/shop"
	"github.com/noah-isme/backend-cart/internal/structs"
	"github.com/noah-isme/backend-cart/internal/tax"
)

// Calculated is a priced product line item. Products are goods: they ship
// and they count toward goods totals.
type Calculated struct {
	lineitem.CalculatedItem
	Product    Product
	InStock    lineitem.DeliveryDate
	OutOfStock lineitem.DeliveryDate
}

// Available implements lineitem.Goods.
func (c Calculated) Available() bool { return c.Product.InStock }

// InStockDeliveryDate implements lineitem.Goods.
func (c Calculated) InStockDeliveryDate() lineitem.DeliveryDate { return c.InStock }

// OutOfStockDeliveryDate implements lineitem.Goods.
func (c Calculated) OutOfStockDeliveryDate() lineitem.DeliveryDate { return c.OutOfStock }

// Processor prices product line items against prefetched catalog data. A
// line item whose referenced product is missing from the data collection is
// skipped, matching the presence-check behavior of the storefront: the item
// simply vanishes from the calculated cart.
type Processor struct {
	Calculator price.Calculator
}

// LineItemType implements cart.Processor.
func (Processor) LineItemType() string { return lineitem.TypeProduct }

// Process implements cart.Processor.
func (p Processor) Process(ctx *shop.Context, items []*lineitem.LineItem, calculated *cart.Calculated, data *structs.Collection) error {
	for _, item := range items {
		value := data.Get(dataKey(item.PayloadValue(PayloadKeyID)))
		catalogProduct, ok := value.(Product)
		if !ok {
			continue
		}

		def := p.definition(item, catalogProduct)
		// The requested quantity always wins over a stale definition.
		def = def.WithQuantity(item.Quantity)

		itemPrice, err := p.Calculator.Calculate(def, ctx)
		if err != nil {
			return err
		}

		calculated.LineItems().Add(Calculated{
			CalculatedItem: lineitem.CalculatedItem{
				Identifier: item.Identifier,
				Label:      catalogProduct.Label,
				Quantity:   item.Quantity,
				Price:      itemPrice,
				LineItem:   item,
				Type:       lineitem.TypeProduct,
			},
			Product:    catalogProduct,
			InStock:    inStockDeliveryDate(ctx.Now),
			OutOfStock: outOfStockDeliveryDate(ctx.Now),
		})
	}
	return nil
}

func (Processor) definition(item *lineitem.LineItem, catalogProduct Product) price.Definition {
	if item.Definition != nil {
		return *item.Definition
	}
	return price.NewDefinition(
		catalogProduct.Price,
		tax.NewRuleCollection(tax.NewRule(catalogProduct.TaxRate)),
		item.Quantity,
	)
}

func inStockDeliveryDate(now time.Time) lineitem.DeliveryDate {
	return lineitem.DeliveryDate{
		Earliest: now.AddDate(0, 0, 1),
		Latest:   now.AddDate(0, 0, 4),
	}
}

func outOfStockDeliveryDate(now time.Time) lineitem.DeliveryDate {
	return lineitem.DeliveryDate{
		Earliest: now.AddDate(0, 0, 11),
		Latest:   now.AddDate(0, 0, 14),
	}
}
