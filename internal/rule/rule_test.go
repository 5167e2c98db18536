package rule_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-cart/internal/cart"
	"github.com/noah-isme/backend-cart/internal/lineitem"
	"github.com/noah-isme/backend-cart/internal/price"
	"github.com/noah-isme/backend-cart/internal/rule"
	"github.com/noah-isme/backend-cart/internal/shop"
	"github.com/noah-isme/backend-cart/internal/structs"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func cartWithTotal(total string) *cart.Calculated {
	return cart.NewCalculated(
		cart.NewContainer("test"),
		lineitem.NewCalculated(),
		price.CartPrice{Total: d(total), TaxState: shop.TaxStateGross},
	)
}

func testContext() *shop.Context {
	return &shop.Context{
		Shop:     shop.Shop{ID: 1},
		TaxState: shop.TaxStateGross,
		Now:      time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestOrderAmountGte(t *testing.T) {
	r, err := rule.NewOrderAmount(d("100"), ">=")
	require.NoError(t, err)

	require.True(t, r.Match(cartWithTotal("100"), testContext(), structs.NewCollection()).Matched)
	require.True(t, r.Match(cartWithTotal("200"), testContext(), structs.NewCollection()).Matched)
	require.False(t, r.Match(cartWithTotal("50"), testContext(), structs.NewCollection()).Matched)
}

func TestOrderAmountLte(t *testing.T) {
	r, err := rule.NewOrderAmount(d("100"), "<=")
	require.NoError(t, err)

	require.True(t, r.Match(cartWithTotal("100"), testContext(), structs.NewCollection()).Matched)
	require.True(t, r.Match(cartWithTotal("50"), testContext(), structs.NewCollection()).Matched)
	require.False(t, r.Match(cartWithTotal("150"), testContext(), structs.NewCollection()).Matched)
}

func TestOrderAmountUnsupportedOperator(t *testing.T) {
	for _, operator := range []string{"BOGUS", "", "=>", "gte"} {
		_, err := rule.NewOrderAmount(d("100"), operator)

		var unsupported rule.UnsupportedOperatorError
		require.ErrorAs(t, err, &unsupported, "operator %q", operator)
		require.Equal(t, operator, unsupported.Operator)
	}
}

func TestAndShortCircuitsWithFailingChildReason(t *testing.T) {
	amount, err := rule.NewOrderAmount(d("100"), ">=")
	require.NoError(t, err)
	shopRule, err := rule.NewShop([]int64{1}, "=")
	require.NoError(t, err)
	and := rule.NewAnd(amount, shopRule)

	match := and.Match(cartWithTotal("150"), testContext(), structs.NewCollection())
	require.True(t, match.Matched)

	match = and.Match(cartWithTotal("50"), testContext(), structs.NewCollection())
	require.False(t, match.Matched)
	require.Len(t, match.Reasons, 1)
	require.Contains(t, match.Reasons[0], "order amount")
}

func TestOrMatchesAnyChild(t *testing.T) {
	low, err := rule.NewOrderAmount(d("1000"), ">=")
	require.NoError(t, err)
	high, err := rule.NewOrderAmount(d("100"), ">=")
	require.NoError(t, err)
	or := rule.NewOr(low, high)

	require.True(t, or.Match(cartWithTotal("150"), testContext(), structs.NewCollection()).Matched)
	require.False(t, or.Match(cartWithTotal("50"), testContext(), structs.NewCollection()).Matched)
}

func TestNotInvertsAndKeepsReasons(t *testing.T) {
	amount, err := rule.NewOrderAmount(d("100"), ">=")
	require.NoError(t, err)
	not := rule.NewNot(amount)

	match := not.Match(cartWithTotal("50"), testContext(), structs.NewCollection())
	require.True(t, match.Matched)
	require.NotEmpty(t, match.Reasons)

	require.False(t, not.Match(cartWithTotal("150"), testContext(), structs.NewCollection()).Matched)
}

func TestShopRule(t *testing.T) {
	eq, err := rule.NewShop([]int64{1, 2}, "=")
	require.NoError(t, err)
	require.True(t, eq.Match(cartWithTotal("0"), testContext(), structs.NewCollection()).Matched)

	neq, err := rule.NewShop([]int64{1}, "!=")
	require.NoError(t, err)
	require.False(t, neq.Match(cartWithTotal("0"), testContext(), structs.NewCollection()).Matched)

	_, err = rule.NewShop([]int64{1}, ">=")
	var unsupported rule.UnsupportedOperatorError
	require.ErrorAs(t, err, &unsupported)
}

func TestCustomerGroupRule(t *testing.T) {
	r := rule.NewCustomerGroup(5)

	guest := testContext()
	match := r.Match(cartWithTotal("0"), guest, structs.NewCollection())
	require.False(t, match.Matched)
	require.Contains(t, match.Reasons[0], "no customer")

	member := testContext()
	member.Customer = &shop.Customer{ID: "c-1", GroupID: 5}
	require.True(t, r.Match(cartWithTotal("0"), member, structs.NewCollection()).Matched)

	other := testContext()
	other.Customer = &shop.Customer{ID: "c-2", GroupID: 9}
	require.False(t, r.Match(cartWithTotal("0"), other, structs.NewCollection()).Matched)
}

func TestDateRangeRule(t *testing.T) {
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	r := rule.NewDateRange(&from, &to)

	require.True(t, r.Match(cartWithTotal("0"), testContext(), structs.NewCollection()).Matched)

	late := testContext()
	late.Now = time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	require.False(t, r.Match(cartWithTotal("0"), late, structs.NewCollection()).Matched)

	early := testContext()
	early.Now = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	require.False(t, r.Match(cartWithTotal("0"), early, structs.NewCollection()).Matched)
}

func TestProductOfManufacturerFailsClosedWithoutData(t *testing.T) {
	r := rule.NewProductOfManufacturer("m-1")

	match := r.Match(cartWithTotal("0"), testContext(), structs.NewCollection())

	require.False(t, match.Matched)
	require.Contains(t, match.Reasons[0], "not loaded")
}

func TestProductOfManufacturerMatchesLoadedData(t *testing.T) {
	r := rule.NewProductOfManufacturer("m-1")
	data := structs.NewCollection()
	data.Add(rule.DataKeyManufacturers, rule.ManufacturerData{IDs: []string{"m-1", "m-2"}})

	require.True(t, r.Match(cartWithTotal("0"), testContext(), data).Matched)

	data = structs.NewCollection()
	data.Add(rule.DataKeyManufacturers, rule.ManufacturerData{IDs: []string{"m-3"}})
	require.False(t, r.Match(cartWithTotal("0"), testContext(), data).Matched)
}

func TestOrderCountRule(t *testing.T) {
	r, err := rule.NewOrderCount(2, ">=")
	require.NoError(t, err)

	require.False(t, r.Match(cartWithTotal("0"), testContext(), structs.NewCollection()).Matched)

	data := structs.NewCollection()
	data.Add(rule.DataKeyOrderCount, rule.OrderCountData{Count: 3})
	require.True(t, r.Match(cartWithTotal("0"), testContext(), data).Matched)

	data = structs.NewCollection()
	data.Add(rule.DataKeyOrderCount, rule.OrderCountData{Count: 1})
	require.False(t, r.Match(cartWithTotal("0"), testContext(), data).Matched)
}

func TestOrderCountRuleOperators(t *testing.T) {
	data := structs.NewCollection()
	data.Add(rule.DataKeyOrderCount, rule.OrderCountData{Count: 2})

	equal, err := rule.NewOrderCount(2, "=")
	require.NoError(t, err)
	require.True(t, equal.Match(cartWithTotal("0"), testContext(), data).Matched)

	below, err := rule.NewOrderCount(2, "<")
	require.NoError(t, err)
	require.False(t, below.Match(cartWithTotal("0"), testContext(), data).Matched)

	_, err = rule.NewOrderCount(2, "~")
	require.Error(t, err)
	var unsupported rule.UnsupportedOperatorError
	require.ErrorAs(t, err, &unsupported)
}

func TestLineItemsInCartRule(t *testing.T) {
	items := lineitem.NewCalculated(
		lineitem.CalculatedItem{Identifier: "A", Quantity: 1, Type: lineitem.TypeProduct},
	)
	calculated := cart.NewCalculated(cart.NewContainer("test"), items, price.CartPrice{})

	require.True(t, rule.NewLineItemsInCart("A", "B").Match(calculated, testContext(), structs.NewCollection()).Matched)
	require.False(t, rule.NewLineItemsInCart("X").Match(calculated, testContext(), structs.NewCollection()).Matched)
}
