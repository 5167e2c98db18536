// Package storefront exposes the session-scoped cart workflow: one cart per
// browser session, addressed by a token cookie, recalculated and persisted
// on every mutation.
package storefront

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-cart/internal/cart"
	"github.com/noah-isme/backend-cart/internal/events"
	"github.com/noah-isme/backend-cart/internal/lineitem"
	"github.com/noah-isme/backend-cart/internal/shop"
)

type orderCreatedPayload struct {
	Token      string          `json:"token"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
	ItemCount  int             `json:"itemCount"`
}

// ErrEmptyOrder is returned when ordering a cart without line items.
var ErrEmptyOrder = errors.New("cannot order an empty cart")

// OrderCreator turns a calculated cart into a durable order.
type OrderCreator interface {
	Create(ctx context.Context, calculated *cart.Calculated, shopCtx *shop.Context) (string, error)
}

// Service runs the session cart workflow. Every mutation follows the same
// shape: load or create the container, mutate it, recalculate the whole
// cart and persist the result. The calculated snapshot returned to the
// caller is always consistent with what was stored.
type Service struct {
	Persister  cart.Persister
	Calculator *cart.Calculator
	Orders     OrderCreator
	Events     *events.Bus
	CartName   string
}

func (s *Service) name() string {
	if s.CartName == "" {
		return "shop"
	}
	return s.CartName
}

// getOrCreate loads the container for the token, falling back to a fresh
// container with a new token when the token is unknown or empty.
func (s *Service) getOrCreate(ctx context.Context, token string) (*cart.Container, error) {
	if token == "" {
		return cart.NewContainer(s.name()), nil
	}
	container, err := s.Persister.Load(ctx, token, s.name())
	if errors.Is(err, cart.ErrTokenNotFound) {
		return cart.NewContainer(s.name()), nil
	}
	if err != nil {
		return nil, err
	}
	return container, nil
}

func (s *Service) recalculateAndSave(ctx context.Context, container *cart.Container, shopCtx *shop.Context) (*cart.Calculated, error) {
	calculated, err := s.Calculator.Calculate(ctx, container, shopCtx)
	if err != nil {
		return nil, err
	}
	if err := s.Persister.Save(ctx, calculated, shopCtx); err != nil {
		return nil, err
	}
	return calculated, nil
}

// View returns the calculated cart for the token. An unknown token yields a
// fresh empty cart under a new token.
func (s *Service) View(ctx context.Context, token string, shopCtx *shop.Context) (*cart.Calculated, error) {
	container, err := s.getOrCreate(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.Calculator.Calculate(ctx, container, shopCtx)
}

// CreateNew discards the cart behind the token and starts an empty one
// under a fresh token.
func (s *Service) CreateNew(ctx context.Context, token string, shopCtx *shop.Context) (*cart.Calculated, error) {
	if token != "" {
		if err := s.Persister.Delete(ctx, token, s.name()); err != nil {
			return nil, err
		}
	}
	return s.Calculator.Calculate(ctx, cart.NewContainer(s.name()), shopCtx)
}

// Add puts the line items into the cart. An item whose identifier is
// already present replaces the existing one, last write wins. The cart is
// recalculated and persisted afterwards.
func (s *Service) Add(ctx context.Context, token string, shopCtx *shop.Context, items ...*lineitem.LineItem) (*cart.Calculated, error) {
	container, err := s.getOrCreate(ctx, token)
	if err != nil {
		return nil, err
	}
	container.Items().Fill(items)
	return s.recalculateAndSave(ctx, container, shopCtx)
}

// ChangeQuantity updates the requested quantity of an existing line item.
func (s *Service) ChangeQuantity(ctx context.Context, token string, shopCtx *shop.Context, identifier string, quantity int) (*cart.Calculated, error) {
	container, err := s.getOrCreate(ctx, token)
	if err != nil {
		return nil, err
	}
	item := container.Items().Get(identifier)
	if item == nil {
		return nil, lineitem.NotFoundError{Identifier: identifier}
	}
	if err := item.SetQuantity(quantity); err != nil {
		return nil, err
	}
	return s.recalculateAndSave(ctx, container, shopCtx)
}

// Remove deletes a line item from the cart.
func (s *Service) Remove(ctx context.Context, token string, shopCtx *shop.Context, identifier string) (*cart.Calculated, error) {
	container, err := s.getOrCreate(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := container.Items().Remove(identifier); err != nil {
		return nil, err
	}
	return s.recalculateAndSave(ctx, container, shopCtx)
}

// Order turns the cart into an order and resets the session to a fresh
// empty cart under a new token. The order id and the fresh cart are
// returned together so the handler can rotate the token cookie.
func (s *Service) Order(ctx context.Context, token string, shopCtx *shop.Context) (string, *cart.Calculated, error) {
	container, err := s.Persister.Load(ctx, token, s.name())
	if err != nil {
		return "", nil, err
	}
	calculated, err := s.Calculator.Calculate(ctx, container, shopCtx)
	if err != nil {
		return "", nil, err
	}
	if calculated.LineItems().Count() == 0 {
		return "", nil, ErrEmptyOrder
	}

	orderID, err := s.Orders.Create(ctx, calculated, shopCtx)
	if err != nil {
		return "", nil, fmt.Errorf("create order: %w", err)
	}
	// The token is retired with the order, so all of its named carts go.
	if err := s.Persister.Delete(ctx, container.Token, ""); err != nil {
		return "", nil, err
	}
	if err := s.Events.Emit(ctx, events.TopicOrderCreated, orderID, orderCreatedPayload{
		Token:      container.Token,
		GrandTotal: calculated.Price().Total,
		ItemCount:  calculated.LineItems().Count(),
	}); err != nil {
		return "", nil, err
	}

	fresh, err := s.Calculator.Calculate(ctx, cart.NewContainer(s.name()), shopCtx)
	if err != nil {
		return "", nil, err
	}
	return orderID, fresh, nil
}
