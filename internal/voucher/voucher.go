package voucher

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-cart/internal/cart"
	"github.com/noah-isme/backend-cart/internal/lineitem"
	"github.com/noah-isme/backend-cart/internal/price"
	"github.com/noah-isme/backend-cart/internal/rule"
	"github.com/noah-isme/backend-cart/internal/shop"
	"github.com/noah-isme/backend-cart/internal/structs"
	"github.com/noah-isme/backend-cart/internal/tax"
)

// PayloadKeyCode is the line item payload key holding the voucher code.
const PayloadKeyCode = "code"

// Data is a resolved voucher definition: its code, the eligibility rule
// assembled from its configuration and either a percentage or a fixed
// discount definition.
type Data struct {
	Code       string
	Rule       rule.Rule
	Percentage *decimal.Decimal
	Definition *price.Definition
}

// Config is the stored configuration of a voucher. Every constraint is
// optional; only configured constraints become part of the eligibility rule.
type Config struct {
	Code                string
	Percentage          *decimal.Decimal
	AbsoluteValue       *decimal.Decimal
	CustomerGroupID     *int64
	ValidFrom           *time.Time
	ValidTo             *time.Time
	ShopID              *int64
	ManufacturerID      *string
	MinimumGoodsAmount  *decimal.Decimal
	RestrictedLineItems []string
}

// Resolve assembles the eligibility rule and discount data for the config.
func Resolve(cfg Config) (Data, error) {
	and := rule.NewAnd()

	if cfg.CustomerGroupID != nil {
		and.AddRule(rule.NewCustomerGroup(*cfg.CustomerGroupID))
	}
	if cfg.ValidFrom != nil || cfg.ValidTo != nil {
		and.AddRule(rule.NewDateRange(cfg.ValidFrom, cfg.ValidTo))
	}
	if cfg.ShopID != nil {
		shopRule, err := rule.NewShop([]int64{*cfg.ShopID}, string(rule.OperatorEQ))
		if err != nil {
			return Data{}, err
		}
		and.AddRule(shopRule)
	}
	if cfg.ManufacturerID != nil {
		and.AddRule(rule.NewProductOfManufacturer(*cfg.ManufacturerID))
	}
	if cfg.MinimumGoodsAmount != nil {
		goodsRule, err := rule.NewGoodsPrice(*cfg.MinimumGoodsAmount, string(rule.OperatorGTE))
		if err != nil {
			return Data{}, err
		}
		and.AddRule(goodsRule)
	}
	if len(cfg.RestrictedLineItems) > 0 {
		and.AddRule(rule.NewLineItemsInCart(cfg.RestrictedLineItems...))
	}

	data := Data{Code: cfg.Code, Rule: and}
	if cfg.Percentage != nil {
		percentage := *cfg.Percentage
		data.Percentage = &percentage
		return data, nil
	}
	value := decimal.Zero
	if cfg.AbsoluteValue != nil {
		value = *cfg.AbsoluteValue
	}
	def := price.NewDefinition(value.Neg(), tax.NewRuleCollection(), 1)
	data.Definition = &def
	return data, nil
}

// Gateway loads voucher configurations by code.
type Gateway interface {
	Get(ctx context.Context, codes []string) (map[string]Config, error)
}

// Collector prefetches the vouchers referenced by the cart into the shared
// data collection, keyed by code. Unknown codes stay absent, which makes
// the processor drop the line item.
type Collector struct {
	Gateway Gateway
}

// Prepare implements cart.Collector.
func (c Collector) Prepare(ctx context.Context, container *cart.Container, data *structs.Collection, _ *shop.Context) error {
	var codes []string
	for _, item := range container.Items().FilterType(lineitem.TypeVoucher) {
		if code := item.PayloadValue(PayloadKeyCode); code != "" {
			codes = append(codes, code)
		}
	}
	if len(codes) == 0 {
		return nil
	}

	configs, err := c.Gateway.Get(ctx, codes)
	if err != nil {
		return err
	}
	for _, code := range codes {
		cfg, ok := configs[code]
		if !ok {
			continue
		}
		resolved, err := Resolve(cfg)
		if err != nil {
			return err
		}
		data.Add(dataKey(code), resolved)
	}
	return nil
}

func dataKey(code string) string {
	return "voucher." + code
}
