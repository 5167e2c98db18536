package product

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-cart/internal/cart"
	"github.com/noah-isme/backend-cart/internal/lineitem"
	"github.com/noah-isme/backend-cart/internal/rule"
	"github.com/noah-isme/backend-cart/internal/shop"
	"github.com/noah-isme/backend-cart/internal/structs"
)

// PayloadKeyID is the line item payload key holding the referenced product id.
const PayloadKeyID = "id"

// Product is the catalog reference data a product line item resolves
// against. It is prefetched by the collector; the processor never queries
// the catalog itself.
type Product struct {
	ID             string
	Label          string
	Price          decimal.Decimal
	TaxRate        decimal.Decimal
	ManufacturerID string
	InStock        bool
}

// Gateway loads catalog products by id.
type Gateway interface {
	Get(ctx context.Context, ids []string) (map[string]Product, error)
}

// Collector prefetches the products referenced by the cart's product line
// items into the shared data collection, keyed by product id. It also
// side-loads the manufacturer ids for the product-of-manufacturer rule.
type Collector struct {
	Gateway Gateway
}

// Prepare implements cart.Collector.
func (c Collector) Prepare(ctx context.Context, container *cart.Container, data *structs.Collection, _ *shop.Context) error {
	var ids []string
	for _, item := range container.Items().FilterType(lineitem.TypeProduct) {
		if id := item.PayloadValue(PayloadKeyID); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	products, err := c.Gateway.Get(ctx, ids)
	if err != nil {
		return err
	}

	manufacturers := rule.ManufacturerData{}
	for _, id := range ids {
		p, ok := products[id]
		if !ok {
			continue
		}
		data.Add(dataKey(id), p)
		if p.ManufacturerID != "" {
			manufacturers.IDs = append(manufacturers.IDs, p.ManufacturerID)
		}
	}
	data.Add(rule.DataKeyManufacturers, manufacturers)
	return nil
}

func dataKey(productID string) string {
	return "product." + productID
}
