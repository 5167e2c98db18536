package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-cart/internal/obs"
	"github.com/noah-isme/backend-cart/internal/price"
	"github.com/noah-isme/backend-cart/internal/shop"
	"github.com/noah-isme/backend-cart/internal/structs"
)

// Calculator runs the full pricing pipeline over a cart container. The
// processor order is fixed at construction: goods sit before discounts and
// vouchers so percentage discounts always see the final goods total.
//
// Every call recomputes the whole cart from scratch. The same container and
// context therefore always produce an identical snapshot, at the cost of
// O(n) reprocessing per mutation.
type Calculator struct {
	processors []Processor
	collectors []Collector
	amount     price.AmountCalculator
	strict     bool
	logger     zerolog.Logger
}

// NewCalculator wires the pipeline. Processors run in the given order. When
// strict is set, a line item whose type has no registered processor fails
// the calculation instead of being skipped.
func NewCalculator(processors []Processor, collectors []Collector, strict bool, logger zerolog.Logger) *Calculator {
	return &Calculator{
		processors: processors,
		collectors: collectors,
		strict:     strict,
		logger:     logger,
	}
}

// Calculate produces a fresh immutable snapshot for the container. An empty
// container yields a zero-priced snapshot, not an error. A processor or
// collector error aborts the run with no partial result.
func (c *Calculator) Calculate(ctx context.Context, container *Container, shopCtx *shop.Context) (*Calculated, error) {
	started := time.Now()
	calculated, err := c.calculate(ctx, container, shopCtx)
	if obs.CartCalculationDuration != nil {
		obs.CartCalculationDuration.Observe(float64(time.Since(started).Milliseconds()))
	}
	if obs.CartCalculationsTotal != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		obs.CartCalculationsTotal.WithLabelValues(result).Inc()
	}
	if err == nil && obs.CartLineItems != nil {
		obs.CartLineItems.Observe(float64(container.Items().Count()))
	}
	return calculated, err
}

func (c *Calculator) calculate(ctx context.Context, container *Container, shopCtx *shop.Context) (*Calculated, error) {
	data := structs.NewCollection()
	for _, collector := range c.collectors {
		if err := collector.Prepare(ctx, container, data, shopCtx); err != nil {
			return nil, fmt.Errorf("prepare cart data: %w", err)
		}
	}

	if c.strict {
		if err := c.checkTypes(container); err != nil {
			return nil, err
		}
	}

	calculated := NewCalculated(container, nil, price.CartPrice{TaxState: shopCtx.TaxState})
	handled := map[string]bool{}
	for _, processor := range c.processors {
		itemType := processor.LineItemType()
		handled[itemType] = true
		items := container.Items().FilterType(itemType)
		if err := processor.Process(shopCtx, items, calculated, data); err != nil {
			return nil, fmt.Errorf("process %s line items: %w", itemType, err)
		}
		// The in-progress aggregate lets later processors read the
		// running total (percentage vouchers).
		calculated.price = c.amount.Calculate(calculated.lineItems.Prices(), shopCtx)
	}

	for _, itemType := range container.Items().Types() {
		if !handled[itemType] {
			c.logger.Warn().
				Str("token", container.Token).
				Str("line_item_type", itemType).
				Msg("no processor registered for line item type, skipping")
		}
	}

	calculated.price = c.amount.Calculate(calculated.lineItems.Prices(), shopCtx)
	calculated.deliveries = buildDeliveries(calculated.lineItems)
	return calculated, nil
}

func (c *Calculator) checkTypes(container *Container) error {
	registered := map[string]bool{}
	for _, processor := range c.processors {
		registered[processor.LineItemType()] = true
	}
	for _, itemType := range container.Items().Types() {
		if !registered[itemType] {
			return fmt.Errorf("no processor registered for line item type %q", itemType)
		}
	}
	return nil
}
