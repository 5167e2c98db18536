package storefront

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-cart/internal/cart"
	"github.com/noah-isme/backend-cart/internal/common"
	"github.com/noah-isme/backend-cart/internal/lineitem"
	"github.com/noah-isme/backend-cart/internal/price"
	"github.com/noah-isme/backend-cart/internal/product"
	"github.com/noah-isme/backend-cart/internal/shop"
	"github.com/noah-isme/backend-cart/internal/tax"
	"github.com/noah-isme/backend-cart/internal/voucher"
)

// TokenCookie names the session cookie carrying the cart token.
const TokenCookie = "cart_token"

// Handler wires the cart service to HTTP. The cart token travels in a
// cookie; every response that may have rotated the token refreshes it.
type Handler struct {
	Svc       *Service
	Contexts  shop.Factory
	Validate  *validator.Validate
	CookieTTL time.Duration
}

// Routes mounts the cart endpoints on a chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Get)
	r.Post("/", h.Create)
	r.Post("/items", h.AddItems)
	r.Patch("/items/{identifier}", h.ChangeQuantity)
	r.Delete("/items/{identifier}", h.RemoveItem)
	r.Post("/order", h.Order)
	return r
}

func (h *Handler) token(r *http.Request) string {
	cookie, err := r.Cookie(TokenCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (h *Handler) setToken(w http.ResponseWriter, token string) {
	ttl := h.CookieTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) shopContext(r *http.Request) *shop.Context {
	var customer *shop.Customer
	if id, ok := common.UserID(r.Context()); ok && id != "" {
		customer = &shop.Customer{ID: id}
	}
	return h.Contexts.Create(customer)
}

// Get returns the calculated cart for the session.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	calculated, err := h.Svc.View(r.Context(), h.token(r), h.shopContext(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.setToken(w, calculated.Token())
	common.JSON(w, http.StatusOK, map[string]any{"data": cartResponse(calculated)})
}

// Create discards the session cart and starts a fresh one.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	calculated, err := h.Svc.CreateNew(r.Context(), h.token(r), h.shopContext(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.setToken(w, calculated.Token())
	common.JSON(w, http.StatusCreated, map[string]any{"data": cartResponse(calculated)})
}

type addItemPayload struct {
	Identifier string            `json:"identifier" validate:"required"`
	Type       string            `json:"type" validate:"required"`
	Quantity   int               `json:"quantity" validate:"required,gt=0"`
	Payload    map[string]string `json:"payload"`
	Price      *pricePayload     `json:"price"`
}

type pricePayload struct {
	Unit    string `json:"unit" validate:"required"`
	TaxRate string `json:"taxRate" validate:"required"`
}

type addItemsRequest struct {
	Items []addItemPayload `json:"items" validate:"required,min=1,dive"`
}

// AddItems adds one or more line items to the cart.
func (h *Handler) AddItems(w http.ResponseWriter, r *http.Request) {
	var payload addItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", err.Error())
		return
	}

	items := make([]*lineitem.LineItem, 0, len(payload.Items))
	for _, entry := range payload.Items {
		item, err := h.buildItem(entry)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
		items = append(items, item)
	}

	calculated, err := h.Svc.Add(r.Context(), h.token(r), h.shopContext(r), items...)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.setToken(w, calculated.Token())
	common.JSON(w, http.StatusOK, map[string]any{"data": cartResponse(calculated)})
}

func (h *Handler) buildItem(entry addItemPayload) (*lineitem.LineItem, error) {
	item, err := lineitem.New(entry.Identifier, entry.Type, entry.Quantity)
	if err != nil {
		return nil, err
	}
	for k, v := range entry.Payload {
		item.Payload[k] = v
	}
	switch entry.Type {
	case lineitem.TypeProduct:
		if item.PayloadValue(product.PayloadKeyID) == "" {
			item.Payload[product.PayloadKeyID] = entry.Identifier
		}
	case lineitem.TypeVoucher:
		if item.PayloadValue(voucher.PayloadKeyCode) == "" {
			item.Payload[voucher.PayloadKeyCode] = entry.Identifier
		}
	}
	if entry.Price != nil {
		unit, err := decimal.NewFromString(entry.Price.Unit)
		if err != nil {
			return nil, err
		}
		rate, err := decimal.NewFromString(entry.Price.TaxRate)
		if err != nil {
			return nil, err
		}
		def := price.NewDefinition(unit, tax.NewRuleCollection(tax.NewRule(rate)), entry.Quantity)
		item.Definition = &def
	}
	return item, nil
}

type changeQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// ChangeQuantity updates the quantity of a line item.
func (h *Handler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	var payload changeQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", err.Error())
		return
	}
	calculated, err := h.Svc.ChangeQuantity(r.Context(), h.token(r), h.shopContext(r), identifier, payload.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.setToken(w, calculated.Token())
	common.JSON(w, http.StatusOK, map[string]any{"data": cartResponse(calculated)})
}

// RemoveItem deletes a line item from the cart.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	calculated, err := h.Svc.Remove(r.Context(), h.token(r), h.shopContext(r), identifier)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.setToken(w, calculated.Token())
	common.JSON(w, http.StatusOK, map[string]any{"data": cartResponse(calculated)})
}

// Order turns the cart into an order and rotates the session token.
func (h *Handler) Order(w http.ResponseWriter, r *http.Request) {
	orderID, fresh, err := h.Svc.Order(r.Context(), h.token(r), h.shopContext(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.setToken(w, fresh.Token())
	common.JSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{
			"orderId": orderID,
			"cart":    cartResponse(fresh),
		},
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var notFound lineitem.NotFoundError
	switch {
	case errors.As(err, &notFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", notFound.Error(), nil)
	case errors.Is(err, cart.ErrTokenNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
	case errors.Is(err, ErrEmptyOrder):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to process cart", nil)
	}
}

func cartResponse(calculated *cart.Calculated) map[string]any {
	cartPrice := calculated.Price()
	items := make([]map[string]any, 0, calculated.LineItems().Count())
	for _, item := range calculated.LineItems().Items() {
		items = append(items, map[string]any{
			"identifier": item.GetIdentifier(),
			"label":      item.GetLabel(),
			"type":       item.GetType(),
			"quantity":   item.GetQuantity(),
			"unitPrice":  item.GetPrice().Unit,
			"totalPrice": item.GetPrice().Total,
		})
	}
	taxes := make([]map[string]any, 0, cartPrice.Taxes().Count())
	for _, t := range cartPrice.Taxes().Taxes() {
		taxes = append(taxes, map[string]any{
			"rate":  t.Rate,
			"tax":   t.Tax,
			"price": t.Price,
		})
	}
	return map[string]any{
		"token":    calculated.Token(),
		"name":     calculated.Name(),
		"items":    items,
		"taxState": cartPrice.TaxState,
		"price": map[string]any{
			"net":      cartPrice.Net,
			"total":    cartPrice.Total,
			"position": cartPrice.Position,
			"taxes":    taxes,
		},
	}
}
