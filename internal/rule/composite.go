package rule

import (
	"github.com/noah-isme/backend-cart/internal/cart"
	"github.com/noah-isme/backend-cart/internal/shop"
	"github.com/noah-isme/backend-cart/internal/structs"
)

// And matches when every child matches. Evaluation short-circuits on the
// first failing child and reports only that child's reasons.
type And struct {
	Rules []Rule
}

// NewAnd builds an And node over the given children.
func NewAnd(rules ...Rule) *And {
	return &And{Rules: rules}
}

// AddRule appends a child rule.
func (a *And) AddRule(r Rule) {
	a.Rules = append(a.Rules, r)
}

func (a *And) Match(calculated *cart.Calculated, ctx *shop.Context, data *structs.Collection) Match {
	for _, child := range a.Rules {
		if m := child.Match(calculated, ctx, data); !m.Matched {
			return m
		}
	}
	return Matched()
}

// Or matches when any child matches, short-circuiting on the first match.
// On failure the reasons of all children are collected.
type Or struct {
	Rules []Rule
}

// NewOr builds an Or node over the given children.
func NewOr(rules ...Rule) *Or {
	return &Or{Rules: rules}
}

func (o *Or) Match(calculated *cart.Calculated, ctx *shop.Context, data *structs.Collection) Match {
	var reasons []string
	for _, child := range o.Rules {
		m := child.Match(calculated, ctx, data)
		if m.Matched {
			return Matched()
		}
		reasons = append(reasons, m.Reasons...)
	}
	return NotMatched(reasons...)
}

// Not inverts its child's outcome; reasons pass through unchanged.
type Not struct {
	Rule Rule
}

// NewNot builds a Not node over the given child.
func NewNot(r Rule) *Not {
	return &Not{Rule: r}
}

func (n *Not) Match(calculated *cart.Calculated, ctx *shop.Context, data *structs.Collection) Match {
	m := n.Rule.Match(calculated, ctx, data)
	return Match{Matched: !m.Matched, Reasons: m.Reasons}
}
