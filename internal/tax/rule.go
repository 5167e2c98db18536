package tax

import (
	"github.com/shopspring/decimal"
)

// Rule describes a single tax rate applied to a share of an amount. The
// percentage is the share of the amount the rate covers and defaults to the
// full amount.
type Rule struct {
	Rate       decimal.Decimal
	Percentage decimal.Decimal
	Name       string
}

// NewRule returns a rule covering the full amount with the given rate.
func NewRule(rate decimal.Decimal) Rule {
	return Rule{Rate: rate, Percentage: decimal.NewFromInt(100)}
}

// NewPercentageRule returns a rule covering only a share of the amount.
func NewPercentageRule(rate, percentage decimal.Decimal) Rule {
	return Rule{Rate: rate, Percentage: percentage}
}

// RuleCollection holds tax rules unique by rate in insertion order. Adding a
// rule with an existing rate overwrites the earlier entry in place.
type RuleCollection struct {
	rules []Rule
}

// NewRuleCollection builds a collection from the given rules.
func NewRuleCollection(rules ...Rule) *RuleCollection {
	c := &RuleCollection{}
	for _, r := range rules {
		c.Add(r)
	}
	return c
}

// Add inserts the rule, replacing any rule with the same rate.
func (c *RuleCollection) Add(rule Rule) {
	for i, existing := range c.rules {
		if existing.Rate.Equal(rule.Rate) {
			c.rules[i] = rule
			return
		}
	}
	c.rules = append(c.rules, rule)
}

// Exists reports whether a rule with the given rate is present.
func (c *RuleCollection) Exists(rate decimal.Decimal) bool {
	if c == nil {
		return false
	}
	for _, r := range c.rules {
		if r.Rate.Equal(rate) {
			return true
		}
	}
	return false
}

// Rules returns the rules in insertion order.
func (c *RuleCollection) Rules() []Rule {
	if c == nil {
		return nil
	}
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Count returns the number of rules.
func (c *RuleCollection) Count() int {
	if c == nil {
		return 0
	}
	return len(c.rules)
}

// Merge returns a new collection containing the rules of both collections.
func (c *RuleCollection) Merge(other *RuleCollection) *RuleCollection {
	merged := NewRuleCollection(c.Rules()...)
	if other != nil {
		for _, r := range other.rules {
			if !merged.Exists(r.Rate) {
				merged.Add(r)
			}
		}
	}
	return merged
}
