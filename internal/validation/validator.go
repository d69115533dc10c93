package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

// ValidateAttribute checks an attribute definition and returns it with its type normalized.
func ValidateAttribute(attr core.Attribute) (core.Attribute, error) {
	subject := fmt.Sprintf("attribute '%s'", attr.ID)
	invalid := func(field, format string, args ...any) error {
		return &core.ValidationError{Subject: subject, Field: field, Message: fmt.Sprintf(format, args...)}
	}

	if strings.TrimSpace(attr.ID) == "" {
		return attr, &core.ValidationError{Subject: "attribute", Field: "id", Message: "id is required"}
	}
	if strings.TrimSpace(attr.Name) == "" {
		return attr, invalid("name", "name is required")
	}

	attr.Type = attr.Type.Normalize()
	if !attr.Type.IsValid() {
		return attr, invalid("type", "unknown type '%s'", attr.Type)
	}

	if attr.Type.IsChoice() {
		if len(attr.Options) == 0 {
			return attr, invalid("options", "%s attributes need at least one option", attr.Type)
		}
		seen := make(map[string]struct{}, len(attr.Options))
		for _, opt := range attr.Options {
			if strings.TrimSpace(opt) == "" {
				return attr, invalid("options", "options cannot be empty")
			}
			if _, dup := seen[opt]; dup {
				return attr, invalid("options", "option '%s' is listed twice", opt)
			}
			seen[opt] = struct{}{}
		}
	} else if len(attr.Options) > 0 {
		return attr, invalid("options", "options are only allowed for single_choice and multi_choice attributes")
	}

	if attr.Default != nil {
		def, ok := attr.Default.Coerce(attr.Type)
		if !ok {
			return attr, invalid("default", "default '%s' is not a valid %s", attr.Default, attr.Type)
		}
		if attr.Type.IsChoice() {
			for _, item := range texts(def) {
				if !attr.HasOption(item) {
					return attr, invalid("default", "default '%s' is not one of %v", item, attr.Options)
				}
			}
		}
		attr.Default = &def
	}

	return attr, nil
}

// CompileCondition validates a condition against the referenced attribute and
// returns a copy carrying the parsed comparison values.
func CompileCondition(attr core.Attribute, cond core.Condition, subject string) (core.Condition, error) {
	invalid := func(format string, args ...any) error {
		return &core.ValidationError{
			Subject: subject,
			Field:   "condition on '" + cond.Attribute + "'",
			Message: fmt.Sprintf(format, args...),
		}
	}

	if !cond.Operator.IsValid() {
		return cond, invalid("invalid operator '%s'", cond.Operator)
	}
	if !operatorSupports(attr.Type, cond.Operator) {
		return cond, &core.TypeMismatchError{Attribute: attr.ID, Type: attr.Type, Operator: cond.Operator}
	}
	if len(cond.Values) == 0 {
		return cond, invalid("at least one value is required")
	}
	if len(cond.Values) > 1 && !cond.Operator.IsMultiValue() {
		return cond, invalid("operator '%s' takes exactly one value, got %d", cond.Operator, len(cond.Values))
	}

	out := cond.Clone()
	out.Type = attr.Type
	out.Compiled = make([]core.Value, 0, len(cond.Values))
	out.Pattern = nil

	switch cond.Operator {
	case core.OpRegex:
		re, err := regexp.Compile(cond.Values[0])
		if err != nil {
			return cond, invalid("invalid regular expression '%s': %v", cond.Values[0], err)
		}
		out.Pattern = re
		out.Compiled = append(out.Compiled, core.Text(cond.Values[0]))
		return out, nil
	case core.OpLike:
		out.Compiled = append(out.Compiled, core.Text(cond.Values[0]))
		return out, nil
	}

	for _, raw := range cond.Values {
		if attr.Type.IsChoice() {
			if !attr.HasOption(raw) {
				return cond, invalid("value '%s' is not one of %v", raw, attr.Options)
			}
			out.Compiled = append(out.Compiled, core.Text(raw))
			continue
		}
		v, err := core.ParseValue(attr.Type, raw)
		if err != nil {
			return cond, invalid("%v", err)
		}
		out.Compiled = append(out.Compiled, v)
	}
	return out, nil
}

// operatorSupports reports whether the operator can compare values of the attribute type.
func operatorSupports(t core.AttributeType, op core.Operator) bool {
	switch {
	case op.IsOrdering():
		return t.IsOrdered()
	case op == core.OpLike || op == core.OpRegex:
		return t == core.AttrText || t.IsChoice()
	default:
		return true
	}
}

// ValidateRule checks a rule against the attribute catalog and compiles its conditions and expression.
// entityTypes may be nil, in which case every entity type is accepted.
func ValidateRule(rule core.Rule, attributes map[string]core.Attribute, entityTypes map[string]struct{}) (core.Rule, error) {
	subject := fmt.Sprintf("rule '%s'", rule.ID)
	invalid := func(field, format string, args ...any) error {
		return &core.ValidationError{Subject: subject, Field: field, Message: fmt.Sprintf(format, args...)}
	}

	if strings.TrimSpace(rule.ID) == "" {
		return rule, &core.ValidationError{Subject: "rule", Field: "id", Message: "id is required"}
	}
	if strings.TrimSpace(rule.Name) == "" {
		return rule, invalid("name", "rule name is required")
	}
	if strings.TrimSpace(rule.EntityType) == "" {
		return rule, invalid("entity_type", "entity type is required")
	}
	if entityTypes != nil {
		if _, known := entityTypes[rule.EntityType]; !known {
			return rule, invalid("entity_type", "unknown entity type '%s'", rule.EntityType)
		}
	}

	if rule.Quorum == "" {
		rule.Quorum = core.QuorumAnyOne
	}
	if !rule.Quorum.IsValid() {
		return rule, invalid("quorum", "unknown quorum policy '%s'", rule.Quorum)
	}
	// a rule that nobody can check is invalid
	if rule.Active && !rule.HasChecker() {
		return rule, invalid("checkers", "at least one checker role or checker user is required")
	}
	for _, list := range [][]string{rule.CheckerRoles, rule.CheckerUsers, rule.MakerRoles} {
		for _, item := range list {
			if strings.TrimSpace(item) == "" {
				return rule, invalid("checkers", "role and user names cannot be empty")
			}
		}
	}

	out := rule.Clone()
	for i, cond := range rule.Conditions {
		connector := cond.Connector.Normalize()
		if i == 0 {
			if connector != "" {
				return rule, invalid("conditions", "the first condition cannot have a connector (got '%s')", cond.Connector)
			}
		} else {
			// implicit AND if connector missing
			if connector == "" {
				connector = core.ConnAnd
			}
			if !connector.IsValid() {
				return rule, invalid("conditions", "condition #%d has invalid connector '%s'", i+1, cond.Connector)
			}
		}
		cond.Connector = connector

		attr, known := attributes[cond.Attribute]
		if !known {
			return rule, invalid("conditions", "condition #%d references unknown attribute '%s'", i+1, cond.Attribute)
		}
		compiled, err := CompileCondition(attr, cond, subject)
		if err != nil {
			return rule, err
		}
		out.Conditions[i] = compiled
	}

	out.CompiledExpr = nil
	if strings.TrimSpace(rule.Expr) != "" {
		program, err := expr.Compile(rule.Expr, expr.AsBool())
		if err != nil {
			return rule, invalid("expr", "compiling expression: %v", err)
		}
		out.CompiledExpr = program
	}

	out.Stale = false
	out.StaleReason = ""
	return out, nil
}

// ValidateRules validates a list of rules, e.g. from a configuration file, and checks that IDs are unique.
func ValidateRules(rules []core.Rule, attributes map[string]core.Attribute, entityTypes map[string]struct{}) ([]core.Rule, error) {
	seenIDs := make(map[string]struct{})
	var validRules []core.Rule

	for i, rule := range rules {
		if rule.ID == "" {
			return nil, &core.ValidationError{Subject: fmt.Sprintf("rule #%d", i), Field: "id", Message: "id is required"}
		}
		if _, exists := seenIDs[rule.ID]; exists {
			return nil, &core.ValidationError{Subject: fmt.Sprintf("rule '%s'", rule.ID), Field: "id", Message: "id is not unique"}
		}
		seenIDs[rule.ID] = struct{}{}

		valid, err := ValidateRule(rule, attributes, entityTypes)
		if err != nil {
			return nil, err
		}
		validRules = append(validRules, valid)
	}

	return validRules, nil
}

func texts(v core.Value) []string {
	if v.Kind == core.KindSet {
		return v.Set
	}
	return []string{v.String()}
}
