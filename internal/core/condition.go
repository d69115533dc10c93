package core

import (
	"fmt"
	"regexp"
	"strings"
)

type ConditionResult struct {
	Matched bool `json:"matched"`

	// Connector is how this result was folded into the previous ones ("" for the first).
	Connector Connector `json:"connector,omitempty"`

	Expression string `json:"expression"` // e.g. "price greater_than 1000"
	Reason     string `json:"reason,omitempty"`
}

// Operator defines how to compare values.
type Operator string

const (
	OpEqual            Operator = "equals"
	OpNotEqual         Operator = "not_equals"
	OpGreaterThan      Operator = "greater_than"
	OpLessThan         Operator = "less_than"
	OpGreaterThanEqual Operator = "greater_than_equal"
	OpLessThanEqual    Operator = "less_than_equal"
	// OpIn means the payload value is one of the condition values.
	// e.g. category IN ['Electronics', 'Luxury']
	OpIn    Operator = "in"
	OpNotIn Operator = "not_in"
	// OpLike is a case-insensitive substring match.
	// e.g. "Smart Watch" like "watch"
	OpLike  Operator = "like"
	OpRegex Operator = "regex"
)

func (op Operator) IsValid() bool {
	switch op {
	case OpEqual, OpNotEqual, OpGreaterThan, OpLessThan, OpGreaterThanEqual, OpLessThanEqual,
		OpIn, OpNotIn, OpLike, OpRegex:
		return true
	default:
		return false
	}
}

// IsOrdering reports whether the operator needs an ordered (number/date) attribute.
func (op Operator) IsOrdering() bool {
	switch op {
	case OpGreaterThan, OpLessThan, OpGreaterThanEqual, OpLessThanEqual:
		return true
	default:
		return false
	}
}

// IsMultiValue reports whether the operator accepts more than one comparison value.
func (op Operator) IsMultiValue() bool {
	return op == OpIn || op == OpNotIn
}

// IsNegated reports whether a missing payload attribute satisfies the operator.
func (op Operator) IsNegated() bool {
	return op == OpNotEqual || op == OpNotIn
}

// Connector joins a condition to the result of all conditions before it.
type Connector string

const (
	ConnAnd Connector = "AND"
	ConnOr  Connector = "OR"
)

func (c Connector) Normalize() Connector {
	return Connector(strings.ToUpper(strings.TrimSpace(string(c))))
}

func (c Connector) IsValid() bool {
	return c == ConnAnd || c == ConnOr
}

// Condition is one predicate of a rule.
// Conditions are folded left to right: ((c1) OP2 c2) OP3 c3 ...
type Condition struct {
	// Attribute is the ID of the attribute to check.
	Attribute string `yaml:"attribute" json:"attribute"`

	Operator Operator `yaml:"operator" json:"operator"`

	// Values are the comparison values in their textual form.
	// More than one value is only allowed for in / not_in.
	Values []string `yaml:"values" json:"values"`

	// Connector joins this condition to the previous one. The first condition has none.
	Connector Connector `yaml:"connector,omitempty" json:"connector,omitempty"`

	// populated by validation against the attribute catalog
	Type     AttributeType  `yaml:"-" json:"-"`
	Compiled []Value        `yaml:"-" json:"-"`
	Pattern  *regexp.Regexp `yaml:"-" json:"-"`
}

// IsCompiled reports whether the condition has been validated and compiled.
func (c *Condition) IsCompiled() bool {
	return c.Type != "" && len(c.Compiled) == len(c.Values)
}

func (c Condition) String() string {
	if c.Operator.IsMultiValue() {
		return fmt.Sprintf("%s %s [%s]", c.Attribute, c.Operator, strings.Join(c.Values, ", "))
	}
	return fmt.Sprintf("%s %s %s", c.Attribute, c.Operator, strings.Join(c.Values, ", "))
}

func (c *Condition) UnmarshalYAML(unmarshal func(any) error) error {
	// besides the explicit form
	//   { attribute: price, operator: greater_than, values: ["1000"] }
	// a single value may be given as
	//   { attribute: price, operator: greater_than, value: 1000 }
	type plain struct {
		Attribute string    `yaml:"attribute"`
		Operator  Operator  `yaml:"operator"`
		Values    []any     `yaml:"values"`
		Value     any       `yaml:"value"`
		Connector Connector `yaml:"connector"`
	}
	var p plain
	if err := unmarshal(&p); err != nil {
		return err
	}

	c.Attribute = p.Attribute
	c.Operator = p.Operator
	c.Connector = p.Connector
	c.Values = nil

	// implicit equals operator if missing
	if c.Operator == "" {
		c.Operator = OpEqual
	}

	for _, v := range p.Values {
		c.Values = append(c.Values, scalarString(v))
	}
	if p.Value != nil {
		if list, ok := p.Value.([]any); ok {
			for _, v := range list {
				c.Values = append(c.Values, scalarString(v))
			}
		} else {
			c.Values = append(c.Values, scalarString(p.Value))
		}
	}
	return nil
}

func scalarString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (c Condition) Clone() Condition {
	out := c
	out.Values = append([]string(nil), c.Values...)
	out.Compiled = append([]Value(nil), c.Compiled...)
	return out
}
