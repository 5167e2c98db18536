package cart_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-cart/internal/cart"
	"github.com/noah-isme/backend-cart/internal/discount"
	"github.com/noah-isme/backend-cart/internal/lineitem"
	"github.com/noah-isme/backend-cart/internal/product"
	"github.com/noah-isme/backend-cart/internal/shop"
	"github.com/noah-isme/backend-cart/internal/voucher"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

type stubProductGateway struct {
	products map[string]product.Product
}

func (s stubProductGateway) Get(_ context.Context, ids []string) (map[string]product.Product, error) {
	out := map[string]product.Product{}
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type stubVoucherGateway struct {
	vouchers map[string]voucher.Config
}

func (s stubVoucherGateway) Get(_ context.Context, codes []string) (map[string]voucher.Config, error) {
	out := map[string]voucher.Config{}
	for _, code := range codes {
		if v, ok := s.vouchers[code]; ok {
			out[code] = v
		}
	}
	return out, nil
}

func testContext() *shop.Context {
	return &shop.Context{
		Shop:     shop.Shop{ID: 1},
		Currency: shop.Currency{ISOCode: "EUR", Precision: 2},
		TaxState: shop.TaxStateGross,
		Now:      time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newCalculator(t *testing.T, products map[string]product.Product, vouchers map[string]voucher.Config, strict bool) *cart.Calculator {
	t.Helper()
	return cart.NewCalculator(
		[]cart.Processor{
			product.Processor{},
			discount.Processor{},
			voucher.Processor{Logger: zerolog.Nop()},
		},
		[]cart.Collector{
			product.Collector{Gateway: stubProductGateway{products: products}},
			voucher.Collector{Gateway: stubVoucherGateway{vouchers: vouchers}},
		},
		strict,
		zerolog.Nop(),
	)
}

func productItem(t *testing.T, id, productID string, qty int) *lineitem.LineItem {
	t.Helper()
	item, err := lineitem.New(id, lineitem.TypeProduct, qty)
	require.NoError(t, err)
	item.Payload[product.PayloadKeyID] = productID
	return item
}

func voucherItem(t *testing.T, id, code string) *lineitem.LineItem {
	t.Helper()
	item, err := lineitem.New(id, lineitem.TypeVoucher, 1)
	require.NoError(t, err)
	item.Payload[voucher.PayloadKeyCode] = code
	return item
}

func TestCalculateEmptyCart(t *testing.T) {
	calc := newCalculator(t, nil, nil, false)
	container := cart.NewContainer("shop")

	calculated, err := calc.Calculate(context.Background(), container, testContext())

	require.NoError(t, err)
	require.Equal(t, 0, calculated.LineItems().Count())
	require.True(t, calculated.Price().Total.IsZero())
	require.Equal(t, 0, calculated.Price().Taxes().Count())
	require.Equal(t, container.Token, calculated.Token())
}

func TestCalculateProducts(t *testing.T) {
	products := map[string]product.Product{
		"p-1": {ID: "p-1", Label: "Mug", Price: d("11.90"), TaxRate: d("19"), InStock: true},
	}
	calc := newCalculator(t, products, nil, false)
	container := cart.NewContainer("shop")
	container.Items().Add(productItem(t, "A", "p-1", 2))

	calculated, err := calc.Calculate(context.Background(), container, testContext())

	require.NoError(t, err)
	require.Equal(t, 1, calculated.LineItems().Count())
	item := calculated.LineItems().Get("A")
	require.Equal(t, "Mug", item.GetLabel())
	require.True(t, item.GetPrice().Total.Equal(d("23.80")), "got %s", item.GetPrice().Total)
	require.True(t, calculated.Price().Total.Equal(d("23.80")))
}

func TestCalculateMergesTaxRatesAcrossLineItems(t *testing.T) {
	products := map[string]product.Product{
		"p-1": {ID: "p-1", Label: "A", Price: d("10.00"), TaxRate: d("19")},
		"p-2": {ID: "p-2", Label: "B", Price: d("20.00"), TaxRate: d("19")},
	}
	calc := newCalculator(t, products, nil, false)
	container := cart.NewContainer("shop")
	container.Items().Add(productItem(t, "A", "p-1", 1))
	container.Items().Add(productItem(t, "B", "p-2", 1))

	calculated, err := calc.Calculate(context.Background(), container, testContext())

	require.NoError(t, err)
	require.Equal(t, 1, calculated.Price().Taxes().Count())
	bucket, ok := calculated.Price().Taxes().Get(d("19"))
	require.True(t, ok)
	require.True(t, bucket.Price.Equal(d("30.00")), "got %s", bucket.Price)
}

func TestCalculateIsIdempotent(t *testing.T) {
	products := map[string]product.Product{
		"p-1": {ID: "p-1", Label: "A", Price: d("10.00"), TaxRate: d("19")},
		"p-2": {ID: "p-2", Label: "B", Price: d("5.50"), TaxRate: d("7")},
	}
	calc := newCalculator(t, products, nil, false)
	container := cart.NewContainer("shop")
	container.Items().Add(productItem(t, "A", "p-1", 2))
	container.Items().Add(productItem(t, "B", "p-2", 3))

	first, err := calc.Calculate(context.Background(), container, testContext())
	require.NoError(t, err)
	second, err := calc.Calculate(context.Background(), container, testContext())
	require.NoError(t, err)

	require.Equal(t, first.LineItems().Identifiers(), second.LineItems().Identifiers())
	require.True(t, first.Price().Total.Equal(second.Price().Total))
	require.Equal(t, first.Price().Taxes().Taxes(), second.Price().Taxes().Taxes())
}

func TestCalculateSkipsMissingProducts(t *testing.T) {
	calc := newCalculator(t, map[string]product.Product{}, nil, false)
	container := cart.NewContainer("shop")
	container.Items().Add(productItem(t, "A", "gone", 1))

	calculated, err := calc.Calculate(context.Background(), container, testContext())

	require.NoError(t, err)
	require.Equal(t, 0, calculated.LineItems().Count())
}

func TestCalculateSkipsUnregisteredType(t *testing.T) {
	calc := newCalculator(t, nil, nil, false)
	container := cart.NewContainer("shop")
	item, err := lineitem.New("X", "subscription", 1)
	require.NoError(t, err)
	container.Items().Add(item)

	calculated, err := calc.Calculate(context.Background(), container, testContext())

	require.NoError(t, err)
	require.Equal(t, 0, calculated.LineItems().Count())
}

func TestCalculateStrictModeRejectsUnregisteredType(t *testing.T) {
	calc := newCalculator(t, nil, nil, true)
	container := cart.NewContainer("shop")
	item, err := lineitem.New("X", "subscription", 1)
	require.NoError(t, err)
	container.Items().Add(item)

	_, err = calc.Calculate(context.Background(), container, testContext())

	require.Error(t, err)
	require.Contains(t, err.Error(), "subscription")
}

func TestCalculateProcessorErrorAborts(t *testing.T) {
	calc := newCalculator(t, nil, nil, false)
	container := cart.NewContainer("shop")
	item, err := lineitem.New("C", lineitem.TypeCustom, 1)
	require.NoError(t, err)
	// No price definition: the discount processor must fail the run.
	container.Items().Add(item)

	calculated, err := calc.Calculate(context.Background(), container, testContext())

	require.Error(t, err)
	require.Nil(t, calculated)
}

func TestCalculateVoucherBelowMinimumIsExcluded(t *testing.T) {
	minimum := d("100.00")
	products := map[string]product.Product{
		"p-1": {ID: "p-1", Label: "A", Price: d("50.00"), TaxRate: d("19")},
	}
	vouchers := map[string]voucher.Config{
		"SAVE": {Code: "SAVE", AbsoluteValue: decimalPtr(d("5.00")), MinimumGoodsAmount: &minimum},
	}
	calc := newCalculator(t, products, vouchers, false)
	container := cart.NewContainer("shop")
	container.Items().Add(productItem(t, "A", "p-1", 1))
	container.Items().Add(voucherItem(t, "V", "SAVE"))

	calculated, err := calc.Calculate(context.Background(), container, testContext())

	require.NoError(t, err)
	require.Nil(t, calculated.LineItems().Get("V"))
	require.True(t, calculated.Price().Total.Equal(d("50.00")), "got %s", calculated.Price().Total)
}

func TestCalculatePercentageVoucher(t *testing.T) {
	products := map[string]product.Product{
		"p-1": {ID: "p-1", Label: "A", Price: d("200.00"), TaxRate: d("19")},
	}
	percentage := d("10")
	vouchers := map[string]voucher.Config{
		"TEN": {Code: "TEN", Percentage: &percentage},
	}
	calc := newCalculator(t, products, vouchers, false)
	container := cart.NewContainer("shop")
	container.Items().Add(productItem(t, "A", "p-1", 1))
	container.Items().Add(voucherItem(t, "V", "TEN"))

	calculated, err := calc.Calculate(context.Background(), container, testContext())

	require.NoError(t, err)
	discountItem := calculated.LineItems().Get("V")
	require.NotNil(t, discountItem)
	require.True(t, discountItem.GetPrice().Total.Equal(d("-20.00")), "got %s", discountItem.GetPrice().Total)
	require.True(t, calculated.Price().Total.Equal(d("180.00")), "got %s", calculated.Price().Total)
}

func TestCalculateAbsoluteVoucher(t *testing.T) {
	products := map[string]product.Product{
		"p-1": {ID: "p-1", Label: "A", Price: d("150.00"), TaxRate: d("19")},
	}
	minimum := d("100.00")
	vouchers := map[string]voucher.Config{
		"SAVE": {Code: "SAVE", AbsoluteValue: decimalPtr(d("5.00")), MinimumGoodsAmount: &minimum},
	}
	calc := newCalculator(t, products, vouchers, false)
	container := cart.NewContainer("shop")
	container.Items().Add(productItem(t, "A", "p-1", 1))
	container.Items().Add(voucherItem(t, "V", "SAVE"))

	calculated, err := calc.Calculate(context.Background(), container, testContext())

	require.NoError(t, err)
	require.NotNil(t, calculated.LineItems().Get("V"))
	require.True(t, calculated.Price().Total.Equal(d("145.00")), "got %s", calculated.Price().Total)
}

func decimalPtr(v decimal.Decimal) *decimal.Decimal {
	return &v
}

func TestCalculateGroupsDeliveriesByAvailability(t *testing.T) {
	products := map[string]product.Product{
		"p-1": {ID: "p-1", Label: "Mug", Price: d("11.90"), TaxRate: d("19"), InStock: true},
		"p-2": {ID: "p-2", Label: "Pot", Price: d("24.00"), TaxRate: d("19"), InStock: true},
		"p-3": {ID: "p-3", Label: "Pan", Price: d("39.00"), TaxRate: d("19"), InStock: false},
	}
	calc := newCalculator(t, products, nil, false)
	container := cart.NewContainer("shop")
	container.Items().Add(productItem(t, "A", "p-1", 1))
	container.Items().Add(productItem(t, "B", "p-2", 2))
	container.Items().Add(productItem(t, "C", "p-3", 1))

	ctx := testContext()
	calculated, err := calc.Calculate(context.Background(), container, ctx)

	require.NoError(t, err)
	deliveries := calculated.Deliveries()
	require.Len(t, deliveries, 2)

	inStock := deliveries[0]
	require.Len(t, inStock.Positions, 2)
	require.Equal(t, "A", inStock.Positions[0].GetIdentifier())
	require.Equal(t, "B", inStock.Positions[1].GetIdentifier())
	require.Equal(t, ctx.Now.AddDate(0, 0, 1), inStock.Date.Earliest)
	require.Equal(t, ctx.Now.AddDate(0, 0, 4), inStock.Date.Latest)
	require.True(t, inStock.ShippingCosts.Total.IsZero())

	backorder := deliveries[1]
	require.Len(t, backorder.Positions, 1)
	require.Equal(t, "C", backorder.Positions[0].GetIdentifier())
	require.Equal(t, ctx.Now.AddDate(0, 0, 11), backorder.Date.Earliest)
	require.Equal(t, ctx.Now.AddDate(0, 0, 14), backorder.Date.Latest)
}

func TestCalculateEmptyCartHasNoDeliveries(t *testing.T) {
	calc := newCalculator(t, nil, nil, false)
	container := cart.NewContainer("shop")

	calculated, err := calc.Calculate(context.Background(), container, testContext())

	require.NoError(t, err)
	require.Empty(t, calculated.Deliveries())
}
