package rule

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-cart/internal/cart"
	"github.com/noah-isme/backend-cart/internal/price"
	"github.com/noah-isme/backend-cart/internal/shop"
	"github.com/noah-isme/backend-cart/internal/structs"
)

// OrderAmount compares the cart total against a fixed amount.
type OrderAmount struct {
	Amount   decimal.Decimal
	Operator Operator
}

// NewOrderAmount validates the operator at construction.
func NewOrderAmount(amount decimal.Decimal, operator string) (*OrderAmount, error) {
	op, err := ParseOperator(operator, "order amount")
	if err != nil {
		return nil, err
	}
	return &OrderAmount{Amount: amount, Operator: op}, nil
}

func (r *OrderAmount) Match(calculated *cart.Calculated, _ *shop.Context, _ *structs.Collection) Match {
	total := calculated.Price().Total
	if r.Operator.compareDecimal(total, r.Amount) {
		return Matched()
	}
	return NotMatched(fmt.Sprintf("order amount %s not %s %s", total, r.Operator, r.Amount))
}

// GoodsPrice compares the goods total (shippable items only, discounts and
// vouchers excluded) against a fixed amount. Minimum order amount
// constraints on vouchers use this rule.
type GoodsPrice struct {
	Amount   decimal.Decimal
	Operator Operator
}

// NewGoodsPrice validates the operator at construction.
func NewGoodsPrice(amount decimal.Decimal, operator string) (*GoodsPrice, error) {
	op, err := ParseOperator(operator, "goods price")
	if err != nil {
		return nil, err
	}
	return &GoodsPrice{Amount: amount, Operator: op}, nil
}

func (r *GoodsPrice) Match(calculated *cart.Calculated, ctx *shop.Context, _ *structs.Collection) Match {
	goods := price.AmountCalculator{}.Calculate(calculated.LineItems().GoodsPrices(), ctx)
	if r.Operator.compareDecimal(goods.Total, r.Amount) {
		return Matched()
	}
	return NotMatched(fmt.Sprintf("goods price %s not %s %s", goods.Total, r.Operator, r.Amount))
}
