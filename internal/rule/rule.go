// Package rule implements the composable boolean rule tree evaluated
// against a calculated cart. Rules decide discount and voucher eligibility;
// they are immutable after construction and evaluation is deterministic.
package rule

import (
	"fmt"

	"github.com/noah-isme/backend-cart/internal/cart"
	"github.com/noah-isme/backend-cart/internal/shop"
	"github.com/noah-isme/backend-cart/internal/structs"
)

// Match is the outcome of a rule evaluation: whether the rule matched and,
// when it did not, human-readable reasons for diagnostics. Reasons never
// surface to end users.
type Match struct {
	Matched bool
	Reasons []string
}

// Matched returns a positive match.
func Matched() Match {
	return Match{Matched: true}
}

// NotMatched returns a negative match with the given reasons.
func NotMatched(reasons ...string) Match {
	return Match{Matched: false, Reasons: reasons}
}

// Rule is a node of the eligibility tree. Leaf rules that need side-loaded
// data read it from the data collection by a fixed key per rule kind; absent
// data fails closed as a non-match, never as an error.
type Rule interface {
	Match(calculated *cart.Calculated, ctx *shop.Context, data *structs.Collection) Match
}

// Data collection keys for leaf rules that depend on side-loaded data.
const (
	DataKeyManufacturers = "rule.product_of_manufacturer"
	DataKeyOrderCount    = "rule.order_count"
)

// ManufacturerData lists the manufacturer ids of the products in the cart,
// prefetched by the product collector.
type ManufacturerData struct {
	IDs []string
}

// HasAny reports whether any of the given ids is present.
func (d ManufacturerData) HasAny(ids []string) bool {
	for _, want := range ids {
		for _, have := range d.IDs {
			if want == have {
				return true
			}
		}
	}
	return false
}

// OrderCountData carries the number of previous orders of the customer.
type OrderCountData struct {
	Count int
}

// UnsupportedOperatorError reports a comparison rule constructed with an
// operator outside the closed set. It indicates a configuration defect and
// is raised at construction time, before any match attempt.
type UnsupportedOperatorError struct {
	Operator string
	Rule     string
}

func (e UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("unsupported operator %q for rule %s", e.Operator, e.Rule)
}
