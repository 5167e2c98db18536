package product_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-cart/internal/cart"
	"github.com/noah-isme/backend-cart/internal/lineitem"
	"github.com/noah-isme/backend-cart/internal/price"
	"github.com/noah-isme/backend-cart/internal/product"
	"github.com/noah-isme/backend-cart/internal/rule"
	"github.com/noah-isme/backend-cart/internal/shop"
	"github.com/noah-isme/backend-cart/internal/structs"
	"github.com/noah-isme/backend-cart/internal/tax"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

type stubGateway struct {
	products map[string]product.Product
	err      error
}

func (s stubGateway) Get(_ context.Context, ids []string) (map[string]product.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := map[string]product.Product{}
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func testContext() *shop.Context {
	return &shop.Context{
		Currency: shop.Currency{Precision: 2},
		TaxState: shop.TaxStateGross,
		Now:      time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func item(t *testing.T, identifier, productID string, qty int) *lineitem.LineItem {
	t.Helper()
	li, err := lineitem.New(identifier, lineitem.TypeProduct, qty)
	require.NoError(t, err)
	li.Payload[product.PayloadKeyID] = productID
	return li
}

func preparedData(t *testing.T, products map[string]product.Product, items ...*lineitem.LineItem) *structs.Collection {
	t.Helper()
	container := cart.NewContainer("test")
	container.Items().Fill(items)
	data := structs.NewCollection()
	err := product.Collector{Gateway: stubGateway{products: products}}.Prepare(context.Background(), container, data, testContext())
	require.NoError(t, err)
	return data
}

func TestProcessPricesFromCatalog(t *testing.T) {
	catalog := map[string]product.Product{
		"p-1": {ID: "p-1", Label: "Mug", Price: d("11.90"), TaxRate: d("19"), InStock: true},
	}
	li := item(t, "A", "p-1", 2)
	data := preparedData(t, catalog, li)
	calculated := cart.NewCalculated(cart.NewContainer("test"), nil, price.CartPrice{})

	err := product.Processor{}.Process(testContext(), []*lineitem.LineItem{li}, calculated, data)

	require.NoError(t, err)
	got := calculated.LineItems().Get("A")
	require.NotNil(t, got)
	require.Equal(t, "Mug", got.GetLabel())
	require.Equal(t, 2, got.GetQuantity())
	require.True(t, got.GetPrice().Total.Equal(d("23.80")), "got %s", got.GetPrice().Total)
}

func TestProcessExplicitDefinitionWins(t *testing.T) {
	catalog := map[string]product.Product{
		"p-1": {ID: "p-1", Label: "Mug", Price: d("11.90"), TaxRate: d("19")},
	}
	li := item(t, "A", "p-1", 1)
	def := price.NewDefinition(d("5.00"), tax.NewRuleCollection(tax.NewRule(d("7"))), 1)
	li.Definition = &def
	data := preparedData(t, catalog, li)
	calculated := cart.NewCalculated(cart.NewContainer("test"), nil, price.CartPrice{})

	err := product.Processor{}.Process(testContext(), []*lineitem.LineItem{li}, calculated, data)

	require.NoError(t, err)
	got := calculated.LineItems().Get("A")
	require.True(t, got.GetPrice().Total.Equal(d("5.00")), "got %s", got.GetPrice().Total)
	bucket, ok := got.GetPrice().Taxes().Get(d("7"))
	require.True(t, ok)
	require.False(t, bucket.Tax.IsZero())
}

func TestProcessSkipsUnknownProduct(t *testing.T) {
	li := item(t, "A", "missing", 1)
	data := preparedData(t, nil, li)
	calculated := cart.NewCalculated(cart.NewContainer("test"), nil, price.CartPrice{})

	err := product.Processor{}.Process(testContext(), []*lineitem.LineItem{li}, calculated, data)

	require.NoError(t, err)
	require.Equal(t, 0, calculated.LineItems().Count())
}

func TestProcessDeliveryDates(t *testing.T) {
	catalog := map[string]product.Product{
		"p-1": {ID: "p-1", Label: "Mug", Price: d("10.00"), TaxRate: d("19")},
	}
	li := item(t, "A", "p-1", 1)
	data := preparedData(t, catalog, li)
	calculated := cart.NewCalculated(cart.NewContainer("test"), nil, price.CartPrice{})
	ctx := testContext()

	err := product.Processor{}.Process(ctx, []*lineitem.LineItem{li}, calculated, data)

	require.NoError(t, err)
	goods := calculated.LineItems().FilterGoods()
	require.Len(t, goods, 1)
	require.Equal(t, ctx.Now.AddDate(0, 0, 1), goods[0].InStockDeliveryDate().Earliest)
	require.Equal(t, ctx.Now.AddDate(0, 0, 4), goods[0].InStockDeliveryDate().Latest)
	require.Equal(t, ctx.Now.AddDate(0, 0, 11), goods[0].OutOfStockDeliveryDate().Earliest)
	require.Equal(t, ctx.Now.AddDate(0, 0, 14), goods[0].OutOfStockDeliveryDate().Latest)
}

func TestCollectorSideLoadsManufacturers(t *testing.T) {
	catalog := map[string]product.Product{
		"p-1": {ID: "p-1", Label: "A", Price: d("1.00"), TaxRate: d("19"), ManufacturerID: "m-1"},
		"p-2": {ID: "p-2", Label: "B", Price: d("2.00"), TaxRate: d("19"), ManufacturerID: "m-2"},
	}
	data := preparedData(t, catalog, item(t, "A", "p-1", 1), item(t, "B", "p-2", 1))

	manufacturers, ok := data.Get(rule.DataKeyManufacturers).(rule.ManufacturerData)
	require.True(t, ok)
	require.ElementsMatch(t, []string{"m-1", "m-2"}, manufacturers.IDs)
}

func TestCollectorGatewayError(t *testing.T) {
	wantErr := errors.New("catalog unavailable")
	container := cart.NewContainer("test")
	container.Items().Add(item(t, "A", "p-1", 1))

	err := product.Collector{Gateway: stubGateway{err: wantErr}}.Prepare(context.Background(), container, structs.NewCollection(), testContext())

	require.ErrorIs(t, err, wantErr)
}
