package rule

import (
	"fmt"
	"time"

	"github.com/noah-isme/backend-cart/internal/cart"
	"github.com/noah-isme/backend-cart/internal/shop"
	"github.com/noah-isme/backend-cart/internal/structs"
)

// CustomerGroup matches when the session customer belongs to one of the
// given groups. Guests never match.
type CustomerGroup struct {
	GroupIDs []int64
}

// NewCustomerGroup builds the rule over the given group ids.
func NewCustomerGroup(groupIDs ...int64) *CustomerGroup {
	return &CustomerGroup{GroupIDs: groupIDs}
}

func (r *CustomerGroup) Match(_ *cart.Calculated, ctx *shop.Context, _ *structs.Collection) Match {
	if ctx.Customer == nil {
		return NotMatched("no customer logged in")
	}
	for _, id := range r.GroupIDs {
		if ctx.Customer.GroupID == id {
			return Matched()
		}
	}
	return NotMatched(fmt.Sprintf("customer group %d not matched", ctx.Customer.GroupID))
}

// DateRange matches when the context instant falls inside the optional
// from/to bounds.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// NewDateRange builds the rule; nil bounds are open.
func NewDateRange(from, to *time.Time) *DateRange {
	return &DateRange{From: from, To: to}
}

func (r *DateRange) Match(_ *cart.Calculated, ctx *shop.Context, _ *structs.Collection) Match {
	now := ctx.Now
	if r.From != nil && now.Before(*r.From) {
		return NotMatched(fmt.Sprintf("not valid before %s", r.From.Format(time.RFC3339)))
	}
	if r.To != nil && now.After(*r.To) {
		return NotMatched(fmt.Sprintf("not valid after %s", r.To.Format(time.RFC3339)))
	}
	return Matched()
}

// Shop matches the sales channel of the context. Only equality operators
// are meaningful for identity checks.
type Shop struct {
	ShopIDs  []int64
	Operator Operator
}

// NewShop validates the operator; only EQ and NEQ are supported.
func NewShop(shopIDs []int64, operator string) (*Shop, error) {
	op, err := ParseOperator(operator, "shop")
	if err != nil {
		return nil, err
	}
	if op != OperatorEQ && op != OperatorNEQ {
		return nil, UnsupportedOperatorError{Operator: operator, Rule: "shop"}
	}
	return &Shop{ShopIDs: shopIDs, Operator: op}, nil
}

func (r *Shop) Match(_ *cart.Calculated, ctx *shop.Context, _ *structs.Collection) Match {
	contained := false
	for _, id := range r.ShopIDs {
		if ctx.Shop.ID == id {
			contained = true
			break
		}
	}
	if (r.Operator == OperatorEQ) == contained {
		return Matched()
	}
	return NotMatched(fmt.Sprintf("shop %d not matched", ctx.Shop.ID))
}
