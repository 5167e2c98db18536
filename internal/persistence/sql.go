package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noah-isme/backend-cart/internal/cart"
	"github.com/noah-isme/backend-cart/internal/shop"
)

// DB is the subset of pgxpool.Pool the persisters need.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SQLPersister stores cart containers in Postgres, one row per (token, name)
// pair. Each row carries the container blob, a write-only calculated
// snapshot and denormalized session columns for reporting queries.
type SQLPersister struct {
	DB DB
}

const loadCartSQL = `SELECT container FROM cart WHERE token = $1 AND name = $2`

const saveCartSQL = `
INSERT INTO cart (token, name, container, calculated, item_count, grand_total, net_total,
	currency, shop_id, customer_id, shipping_method_id, payment_method_id, country_id, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
ON CONFLICT (token, name) DO UPDATE SET
	container = EXCLUDED.container,
	calculated = EXCLUDED.calculated,
	item_count = EXCLUDED.item_count,
	grand_total = EXCLUDED.grand_total,
	net_total = EXCLUDED.net_total,
	currency = EXCLUDED.currency,
	shop_id = EXCLUDED.shop_id,
	customer_id = EXCLUDED.customer_id,
	shipping_method_id = EXCLUDED.shipping_method_id,
	payment_method_id = EXCLUDED.payment_method_id,
	country_id = EXCLUDED.country_id,
	updated_at = now()`

const deleteCartSQL = `DELETE FROM cart WHERE token = $1 AND name = $2`

const deleteTokenSQL = `DELETE FROM cart WHERE token = $1`

// Load restores the container stored for the token under the cart name.
// Only the container is restored; the cart is recalculated from it on every
// request.
func (p *SQLPersister) Load(ctx context.Context, token, name string) (*cart.Container, error) {
	var raw []byte
	err := p.DB.QueryRow(ctx, loadCartSQL, token, name).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("load cart %s: %w", token, cart.ErrTokenNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", token, err)
	}
	return decodeContainer(raw)
}

// Save upserts the container, its calculated snapshot and the denormalized
// session columns. Saving a cart without line items deletes the row instead:
// an empty cart is indistinguishable from no cart.
func (p *SQLPersister) Save(ctx context.Context, calculated *cart.Calculated, shopCtx *shop.Context) error {
	container := calculated.Container()
	if container.Items().Count() == 0 {
		return p.Delete(ctx, container.Token, container.Name)
	}

	containerJSON, err := encodeContainer(container)
	if err != nil {
		return fmt.Errorf("save cart %s: %w", container.Token, err)
	}
	calculatedJSON, err := encodeCalculated(calculated)
	if err != nil {
		return fmt.Errorf("save cart %s: %w", container.Token, err)
	}

	var (
		currency         string
		shopID           int64
		customerID       *string
		shippingMethodID int64
		paymentMethodID  int64
		countryID        int64
	)
	if shopCtx != nil {
		currency = shopCtx.Currency.ISOCode
		shopID = shopCtx.Shop.ID
		shippingMethodID = shopCtx.ShippingMethodID
		paymentMethodID = shopCtx.PaymentMethodID
		countryID = shopCtx.CountryID
		if shopCtx.Customer != nil {
			customerID = &shopCtx.Customer.ID
		}
	}

	cartPrice := calculated.Price()
	_, err = p.DB.Exec(ctx, saveCartSQL,
		container.Token,
		container.Name,
		containerJSON,
		calculatedJSON,
		container.Items().Count(),
		cartPrice.Total,
		cartPrice.Net,
		currency,
		shopID,
		customerID,
		shippingMethodID,
		paymentMethodID,
		countryID,
	)
	if err != nil {
		return fmt.Errorf("save cart %s: %w", container.Token, err)
	}
	return nil
}

// Delete removes the cart row for the token and name. An empty name removes
// every cart of the token. Deleting an unknown token is a no-op.
func (p *SQLPersister) Delete(ctx context.Context, token, name string) error {
	var err error
	if name == "" {
		_, err = p.DB.Exec(ctx, deleteTokenSQL, token)
	} else {
		_, err = p.DB.Exec(ctx, deleteCartSQL, token, name)
	}
	if err != nil {
		return fmt.Errorf("delete cart %s: %w", token, err)
	}
	return nil
}

// PurgeExpired removes carts untouched for longer than the retention
// window and returns how many rows went away.
func (p *SQLPersister) PurgeExpired(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := p.DB.Exec(ctx,
		`DELETE FROM cart WHERE updated_at < now() - make_interval(secs => $1)`,
		retention.Seconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("purge expired carts: %w", err)
	}
	return tag.RowsAffected(), nil
}
