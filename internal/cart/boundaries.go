package cart

import (
	"context"
	"errors"

	"github.com/noah-isme/backend-cart/internal/lineitem"
	"github.com/noah-isme/backend-cart/internal/shop"
	"github.com/noah-isme/backend-cart/internal/structs"
)

// ErrTokenNotFound is returned by persisters when no cart is stored for a
// token. Callers recover by starting a fresh container; it never reaches the
// end user as an error.
var ErrTokenNotFound = errors.New("cart token not found")

// Processor converts requested line items of one type tag into calculated
// line items. Processors append into the in-progress calculated cart, so a
// processor running later in the pipeline can read the results of earlier
// ones.
type Processor interface {
	// LineItemType returns the type tag this processor handles.
	LineItemType() string
	// Process prices the given requested items and appends the results to
	// calculated. A returned error aborts the whole calculation.
	Process(ctx *shop.Context, items []*lineitem.LineItem, calculated *Calculated, data *structs.Collection) error
}

// Collector prefetches the reference data a processor needs into the shared
// data collection before any processor runs. Collectors are the only place
// the pipeline touches I/O besides the persister.
type Collector interface {
	Prepare(ctx context.Context, container *Container, data *structs.Collection, shopCtx *shop.Context) error
}

// Persister stores and restores carts keyed by session token and cart name,
// so one session can hold several named carts side by side. Saving an empty
// calculated cart deletes the stored row instead. Save receives the shop
// context so stores can denormalize session facts next to the cart blob.
// Delete with an empty name clears every cart of the token.
type Persister interface {
	Load(ctx context.Context, token, name string) (*Container, error)
	Save(ctx context.Context, calculated *Calculated, shopCtx *shop.Context) error
	Delete(ctx context.Context, token, name string) error
}
