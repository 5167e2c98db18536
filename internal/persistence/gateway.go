package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-cart/internal/product"
	"github.com/noah-isme/backend-cart/internal/voucher"
)

// ProductGateway loads catalog products from Postgres for the product
// collector.
type ProductGateway struct {
	DB DB
}

const productsByIDSQL = `
SELECT id, label, price, tax_rate, COALESCE(manufacturer_id, ''), in_stock
FROM product
WHERE id = ANY($1)`

// Get implements product.Gateway. Unknown ids stay absent from the result.
func (g *ProductGateway) Get(ctx context.Context, ids []string) (map[string]product.Product, error) {
	rows, err := g.DB.Query(ctx, productsByIDSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	defer rows.Close()

	out := map[string]product.Product{}
	for rows.Next() {
		var p product.Product
		if err := rows.Scan(&p.ID, &p.Label, &p.Price, &p.TaxRate, &p.ManufacturerID, &p.InStock); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	return out, nil
}

// VoucherGateway loads voucher configurations from Postgres for the voucher
// collector.
type VoucherGateway struct {
	DB DB
}

const vouchersByCodeSQL = `
SELECT code, percentage, absolute_value, customer_group_id, valid_from, valid_to,
       shop_id, manufacturer_id, minimum_goods_amount, restricted_line_items
FROM voucher
WHERE code = ANY($1)`

// Get implements voucher.Gateway. Unknown codes stay absent from the result.
func (g *VoucherGateway) Get(ctx context.Context, codes []string) (map[string]voucher.Config, error) {
	rows, err := g.DB.Query(ctx, vouchersByCodeSQL, codes)
	if err != nil {
		return nil, fmt.Errorf("load vouchers: %w", err)
	}
	defer rows.Close()

	out := map[string]voucher.Config{}
	for rows.Next() {
		var (
			cfg        voucher.Config
			percentage decimal.NullDecimal
			absolute   decimal.NullDecimal
			minimum    decimal.NullDecimal
			groupID    *int64
			shopID     *int64
			maker      *string
			validFrom  *time.Time
			validTo    *time.Time
			restricted []string
		)
		err := rows.Scan(&cfg.Code, &percentage, &absolute, &groupID, &validFrom, &validTo,
			&shopID, &maker, &minimum, &restricted)
		if err != nil {
			return nil, fmt.Errorf("scan voucher: %w", err)
		}
		if percentage.Valid {
			cfg.Percentage = &percentage.Decimal
		}
		if absolute.Valid {
			cfg.AbsoluteValue = &absolute.Decimal
		}
		if minimum.Valid {
			cfg.MinimumGoodsAmount = &minimum.Decimal
		}
		cfg.CustomerGroupID = groupID
		cfg.ShopID = shopID
		cfg.ManufacturerID = maker
		cfg.ValidFrom = validFrom
		cfg.ValidTo = validTo
		cfg.RestrictedLineItems = restricted
		out[cfg.Code] = cfg
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load vouchers: %w", err)
	}
	return out, nil
}
