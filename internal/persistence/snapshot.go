// Package persistence stores cart containers between requests and turns
// completed carts into orders. The container is the source of truth; the
// calculated snapshot is only written alongside it for auditing and is never
// read back.
package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-cart/internal/cart"
	"github.com/noah-isme/backend-cart/internal/lineitem"
	"github.com/noah-isme/backend-cart/internal/price"
	"github.com/noah-isme/backend-cart/internal/tax"
)

type taxRuleSnapshot struct {
	Rate       decimal.Decimal `json:"rate"`
	Percentage decimal.Decimal `json:"percentage"`
	Name       string          `json:"name,omitempty"`
}

type definitionSnapshot struct {
	Unit     decimal.Decimal   `json:"unit"`
	Quantity int               `json:"quantity"`
	TaxRules []taxRuleSnapshot `json:"taxRules"`
}

type lineItemSnapshot struct {
	Identifier string              `json:"identifier"`
	Type       string              `json:"type"`
	Quantity   int                 `json:"quantity"`
	Payload    map[string]string   `json:"payload,omitempty"`
	Definition *definitionSnapshot `json:"definition,omitempty"`
}

type containerSnapshot struct {
	Token     string             `json:"token"`
	Name      string             `json:"name"`
	CreatedAt time.Time          `json:"createdAt"`
	LineItems []lineItemSnapshot `json:"lineItems"`
}

func encodeContainer(c *cart.Container) ([]byte, error) {
	snapshot := containerSnapshot{
		Token:     c.Token,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
	}
	for _, item := range c.Items().Items() {
		entry := lineItemSnapshot{
			Identifier: item.Identifier,
			Type:       item.Type,
			Quantity:   item.Quantity,
			Payload:    item.Payload,
		}
		if item.Definition != nil {
			def := definitionSnapshot{
				Unit:     item.Definition.Unit,
				Quantity: item.Definition.Quantity,
			}
			if item.Definition.TaxRules != nil {
				for _, r := range item.Definition.TaxRules.Rules() {
					def.TaxRules = append(def.TaxRules, taxRuleSnapshot{
						Rate:       r.Rate,
						Percentage: r.Percentage,
						Name:       r.Name,
					})
				}
			}
			entry.Definition = &def
		}
		snapshot.LineItems = append(snapshot.LineItems, entry)
	}
	return json.Marshal(snapshot)
}

func decodeContainer(raw []byte) (*cart.Container, error) {
	var snapshot containerSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("decode cart container: %w", err)
	}
	container := &cart.Container{
		Token:     snapshot.Token,
		Name:      snapshot.Name,
		LineItems: lineitem.NewCollection(),
		CreatedAt: snapshot.CreatedAt,
	}
	for _, entry := range snapshot.LineItems {
		item, err := lineitem.New(entry.Identifier, entry.Type, entry.Quantity)
		if err != nil {
			return nil, fmt.Errorf("decode cart container: %w", err)
		}
		if len(entry.Payload) > 0 {
			item.Payload = entry.Payload
		}
		if entry.Definition != nil {
			rules := tax.NewRuleCollection()
			for _, r := range entry.Definition.TaxRules {
				rules.Add(tax.Rule{Rate: r.Rate, Percentage: r.Percentage, Name: r.Name})
			}
			def := price.NewDefinition(entry.Definition.Unit, rules, entry.Definition.Quantity)
			item.Definition = &def
		}
		container.Items().Add(item)
	}
	return container, nil
}

type calculatedItemSnapshot struct {
	Identifier string          `json:"identifier"`
	Label      string          `json:"label"`
	Type       string          `json:"type"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type calculatedTaxSnapshot struct {
	Rate  decimal.Decimal `json:"rate"`
	Tax   decimal.Decimal `json:"tax"`
	Price decimal.Decimal `json:"price"`
}

type calculatedSnapshot struct {
	Token     string                   `json:"token"`
	Name      string                   `json:"name"`
	TaxState  string                   `json:"taxState"`
	Net       decimal.Decimal          `json:"net"`
	Total     decimal.Decimal          `json:"total"`
	Position  decimal.Decimal          `json:"position"`
	Taxes     []calculatedTaxSnapshot  `json:"taxes"`
	LineItems []calculatedItemSnapshot `json:"lineItems"`
}

func encodeCalculated(c *cart.Calculated) ([]byte, error) {
	cartPrice := c.Price()
	snapshot := calculatedSnapshot{
		Token:    c.Token(),
		Name:     c.Name(),
		TaxState: string(cartPrice.TaxState),
		Net:      cartPrice.Net,
		Total:    cartPrice.Total,
		Position: cartPrice.Position,
	}
	for _, t := range cartPrice.Taxes().Taxes() {
		snapshot.Taxes = append(snapshot.Taxes, calculatedTaxSnapshot{
			Rate:  t.Rate,
			Tax:   t.Tax,
			Price: t.Price,
		})
	}
	for _, item := range c.LineItems().Items() {
		snapshot.LineItems = append(snapshot.LineItems, calculatedItemSnapshot{
			Identifier: item.GetIdentifier(),
			Label:      item.GetLabel(),
			Type:       item.GetType(),
			Quantity:   item.GetQuantity(),
			UnitPrice:  item.GetPrice().Unit,
			TotalPrice: item.GetPrice().Total,
		})
	}
	return json.Marshal(snapshot)
}
