package engine

import (
	"fmt"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

// EvaluateCondition evaluates a single validated condition against a change payload.
// It has no side effects and never panics; problems are reported as a false result with a reason.
func EvaluateCondition(cond core.Condition, payload core.Payload) core.ConditionResult {
	createResult := func(passed bool, reason string) core.ConditionResult {
		return core.ConditionResult{
			Matched:    passed,
			Connector:  cond.Connector,
			Expression: cond.String(),
			Reason:     reason,
		}
	}

	raw, exists := payload[cond.Attribute]
	if !exists {
		// absence counts as "not equal to anything"
		if cond.Operator.IsNegated() {
			return createResult(true, fmt.Sprintf("attribute '%s' missing", cond.Attribute))
		}
		return createResult(false, fmt.Sprintf("attribute '%s' missing", cond.Attribute))
	}

	if !cond.IsCompiled() {
		return createResult(false, "condition has not been validated against the attribute catalog")
	}

	val, ok := raw.Coerce(cond.Type)
	if !ok {
		return createResult(cond.Operator.IsNegated(),
			fmt.Sprintf("value '%s' is not a valid %s", raw, cond.Type))
	}

	switch cond.Operator {
	case core.OpEqual:
		if !equalValues(val, cond.Compiled[0]) {
			return createResult(false, fmt.Sprintf("expected '%s' to equal '%s'", val, cond.Compiled[0]))
		}
		return createResult(true, "")

	case core.OpNotEqual:
		if equalValues(val, cond.Compiled[0]) {
			return createResult(false, fmt.Sprintf("expected '%s' to not equal '%s'", val, cond.Compiled[0]))
		}
		return createResult(true, "")

	case core.OpGreaterThan, core.OpLessThan, core.OpGreaterThanEqual, core.OpLessThanEqual:
		if !cond.Type.IsOrdered() {
			err := &core.TypeMismatchError{Attribute: cond.Attribute, Type: cond.Type, Operator: cond.Operator}
			return createResult(false, err.Error())
		}
		cmp, ok := compareOrdered(val, cond.Compiled[0])
		if !ok {
			return createResult(false, fmt.Sprintf("cannot order '%s' and '%s'", val, cond.Compiled[0]))
		}
		if !orderingHolds(cond.Operator, cmp) {
			return createResult(false, fmt.Sprintf("'%s' is not %s '%s'", val, cond.Operator, cond.Compiled[0]))
		}
		return createResult(true, "")

	case core.OpIn:
		// check if the payload value is inside the configured list
		if !containsAny(val, cond.Compiled) {
			return createResult(false, fmt.Sprintf("value '%s' not in '%v'", val, cond.Values))
		}
		return createResult(true, fmt.Sprintf("value '%s' found in '%v'", val, cond.Values))

	case core.OpNotIn:
		if containsAny(val, cond.Compiled) {
			return createResult(false, fmt.Sprintf("value '%s' found in '%v'", val, cond.Values))
		}
		return createResult(true, "")

	case core.OpLike:
		if !like(val, cond.Values[0]) {
			return createResult(false, fmt.Sprintf("value '%s' does not contain '%s'", val, cond.Values[0]))
		}
		return createResult(true, fmt.Sprintf("value '%s' contains '%s'", val, cond.Values[0]))

	case core.OpRegex:
		if cond.Pattern == nil {
			return createResult(false, "regular expression has not been compiled")
		}
		for _, s := range texts(val) {
			if cond.Pattern.MatchString(s) {
				return createResult(true, "")
			}
		}
		return createResult(false, fmt.Sprintf("value '%s' does not match /%s/", val, cond.Pattern))
	}

	return createResult(false, fmt.Sprintf("unknown operator '%s' in condition", cond.Operator))
}
