package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-cart/internal/cart"
	"github.com/noah-isme/backend-cart/internal/shop"
)

// OrderPersister turns a calculated cart into an order. The order and its
// line items are written in one transaction; the caller resets the cart
// afterwards.
type OrderPersister struct {
	Pool *pgxpool.Pool
}

const insertOrderSQL = `
INSERT INTO "order" (id, cart_token, cart_name, customer_id, currency, tax_state, net_total, grand_total, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())`

const insertOrderItemSQL = `
INSERT INTO order_line_item (id, order_id, identifier, label, type, quantity, unit_price, total_price)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// Create writes the order and returns its id.
func (p *OrderPersister) Create(ctx context.Context, calculated *cart.Calculated, shopCtx *shop.Context) (string, error) {
	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin order tx: %w", err)
	}
	defer tx.Rollback(ctx)

	orderID := uuid.NewString()
	var customerID *string
	if shopCtx.Customer != nil {
		id := shopCtx.Customer.ID
		customerID = &id
	}
	cartPrice := calculated.Price()
	_, err = tx.Exec(ctx, insertOrderSQL,
		orderID,
		calculated.Token(),
		calculated.Name(),
		customerID,
		shopCtx.Currency.ISOCode,
		string(cartPrice.TaxState),
		cartPrice.Net,
		cartPrice.Total,
	)
	if err != nil {
		return "", fmt.Errorf("insert order: %w", err)
	}

	for _, item := range calculated.LineItems().Items() {
		_, err = tx.Exec(ctx, insertOrderItemSQL,
			uuid.NewString(),
			orderID,
			item.GetIdentifier(),
			item.GetLabel(),
			item.GetType(),
			item.GetQuantity(),
			item.GetPrice().Unit,
			item.GetPrice().Total,
		)
		if err != nil {
			return "", fmt.Errorf("insert order line item %s: %w", item.GetIdentifier(), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit order tx: %w", err)
	}
	return orderID, nil
}
