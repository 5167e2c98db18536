package cart

import (
	"github.com/noah-isme/backend-cart/internal/lineitem"
	"github.com/noah-isme/backend-cart/internal/price"
)

// Delivery groups the cart's goods by their effective delivery window. The
// shipping costs start out as a zero position; a shipping processor can
// reprice them without touching the grouping.
type Delivery struct {
	Positions     []lineitem.Goods
	Date          lineitem.DeliveryDate
	ShippingCosts price.Price
}

// buildDeliveries partitions the goods of a calculated collection into
// deliveries, one per distinct delivery window, preserving the order in
// which the windows first appear.
func buildDeliveries(items *lineitem.Calculated) []Delivery {
	var deliveries []Delivery
	index := map[lineitem.DeliveryDate]int{}
	for _, goods := range items.FilterGoods() {
		date := lineitem.EffectiveDeliveryDate(goods)
		at, ok := index[date]
		if !ok {
			at = len(deliveries)
			index[date] = at
			deliveries = append(deliveries, Delivery{Date: date})
		}
		deliveries[at].Positions = append(deliveries[at].Positions, goods)
	}
	return deliveries
}
