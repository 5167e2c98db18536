package voucher

import (
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-cart/internal/cart"
	"github.com/noah-isme/backend-cart/internal/lineitem"
	"github.com/noah-isme/backend-cart/internal/obs"
	"github.com/noah-isme/backend-cart/internal/price"
	"github.com/noah-isme/backend-cart/internal/shop"
	"github.com/noah-isme/backend-cart/internal/structs"
)

// Calculated is a priced voucher line item. Vouchers are not goods and
// never contribute to goods totals.
type Calculated struct {
	lineitem.CalculatedItem
	Code string
}

// Processor turns voucher line items into discount positions. It runs after
// the goods processors so percentage vouchers see the final goods total. A
// voucher whose eligibility rule does not match produces no line item at
// all; the reasons are logged for diagnostics but are not an error.
type Processor struct {
	Calculator           price.Calculator
	PercentageCalculator price.PercentageCalculator
	Logger               zerolog.Logger
}

// LineItemType implements cart.Processor.
func (Processor) LineItemType() string { return lineitem.TypeVoucher }

// Process implements cart.Processor.
func (p Processor) Process(ctx *shop.Context, items []*lineitem.LineItem, calculated *cart.Calculated, data *structs.Collection) error {
	for _, item := range items {
		code := item.PayloadValue(PayloadKeyCode)
		value, ok := data.Get(dataKey(code)).(Data)
		if !ok {
			continue
		}

		goods := calculated.LineItems().GoodsPrices()
		if len(goods) == 0 {
			continue
		}

		if match := value.Rule.Match(calculated, ctx, data); !match.Matched {
			if obs.VouchersRejectedTotal != nil {
				obs.VouchersRejectedTotal.Inc()
			}
			p.Logger.Debug().
				Str("code", code).
				Strs("reasons", match.Reasons).
				Msg("voucher not eligible")
			continue
		}

		discount, err := p.discountPrice(ctx, value, goods)
		if err != nil {
			return err
		}

		calculated.LineItems().Add(Calculated{
			CalculatedItem: lineitem.CalculatedItem{
				Identifier: item.Identifier,
				Label:      code,
				Quantity:   1,
				Price:      discount,
				LineItem:   item,
				Type:       lineitem.TypeVoucher,
			},
			Code: code,
		})
	}
	return nil
}

func (p Processor) discountPrice(ctx *shop.Context, value Data, goods []price.Price) (price.Price, error) {
	if value.Percentage != nil {
		return p.PercentageCalculator.Calculate(value.Percentage.Neg(), goods, ctx), nil
	}
	return p.Calculator.Calculate(*value.Definition, ctx)
}
