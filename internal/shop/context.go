package shop

import (
	"time"
)

// TaxState controls whether prices are treated as tax inclusive or exclusive.
type TaxState string

const (
	// TaxStateGross marks prices that already include tax.
	TaxStateGross TaxState = "gross"
	// TaxStateNet marks prices that exclude tax.
	TaxStateNet TaxState = "net"
)

// Shop identifies the sales channel a cart belongs to.
type Shop struct {
	ID   int64
	Name string
}

// Currency carries the display currency and its minor unit precision.
type Currency struct {
	ID        int64
	ISOCode   string
	Precision int32
}

// Customer is the optional authenticated customer of the session.
type Customer struct {
	ID      string
	GroupID int64
}

// Context is an immutable per-request snapshot of everything the pricing
// pipeline needs to know about the shop, customer and tax handling. A single
// calculation always runs against one Context.
type Context struct {
	Shop             Shop
	Currency         Currency
	Customer         *Customer
	TaxState         TaxState
	ShippingMethodID int64
	PaymentMethodID  int64
	CountryID        int64
	Now              time.Time
}

// Precision returns the currency's minor unit precision, defaulting to two
// decimals when unset.
func (c *Context) Precision() int32 {
	if c == nil || c.Currency.Precision <= 0 {
		return 2
	}
	return c.Currency.Precision
}

// Factory builds calculation contexts from configured defaults.
type Factory struct {
	Shop             Shop
	Currency         Currency
	TaxState         TaxState
	ShippingMethodID int64
	PaymentMethodID  int64
	CountryID        int64
	Clock            func() time.Time
}

// Create returns a fresh Context for the provided customer (nil for guests).
func (f Factory) Create(customer *Customer) *Context {
	now := time.Now()
	if f.Clock != nil {
		now = f.Clock()
	}
	state := f.TaxState
	if state == "" {
		state = TaxStateGross
	}
	return &Context{
		Shop:             f.Shop,
		Currency:         f.Currency,
		Customer:         customer,
		TaxState:         state,
		ShippingMethodID: f.ShippingMethodID,
		PaymentMethodID:  f.PaymentMethodID,
		CountryID:        f.CountryID,
		Now:              now,
	}
}
