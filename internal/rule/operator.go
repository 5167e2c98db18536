package rule

import (
	"github.com/shopspring/decimal"
)

// Operator is the closed comparison operator set for amount and count rules.
type Operator string

const (
	OperatorEQ  Operator = "="
	OperatorNEQ Operator = "!="
	OperatorGT  Operator = ">"
	OperatorGTE Operator = ">="
	OperatorLT  Operator = "<"
	OperatorLTE Operator = "<="
)

// ParseOperator validates the operator against the closed set. Rule
// constructors fail fast on anything else.
func ParseOperator(value string, ruleName string) (Operator, error) {
	switch Operator(value) {
	case OperatorEQ, OperatorNEQ, OperatorGT, OperatorGTE, OperatorLT, OperatorLTE:
		return Operator(value), nil
	default:
		return "", UnsupportedOperatorError{Operator: value, Rule: ruleName}
	}
}

func (o Operator) compareDecimal(left, right decimal.Decimal) bool {
	switch o {
	case OperatorEQ:
		return left.Equal(right)
	case OperatorNEQ:
		return !left.Equal(right)
	case OperatorGT:
		return left.GreaterThan(right)
	case OperatorGTE:
		return left.GreaterThanOrEqual(right)
	case OperatorLT:
		return left.LessThan(right)
	case OperatorLTE:
		return left.LessThanOrEqual(right)
	default:
		return false
	}
}

func (o Operator) compareInt(left, right int64) bool {
	return o.compareDecimal(decimal.NewFromInt(left), decimal.NewFromInt(right))
}
