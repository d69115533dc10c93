package engine

import (
	"errors"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/rs/zerolog/log"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

var ErrNoRuleMatch = errors.New("no matching rule found for this change")

// Engine is an immutable snapshot of the rule catalog, in store order.
type Engine struct {
	rules []core.Rule
}

// New creates a new Engine with the given rules.
// The rules are copied, later changes to the slice do not affect the engine.
func New(rules []core.Rule) *Engine {
	cp := make([]core.Rule, len(rules))
	for i, r := range rules {
		cp[i] = r.Clone()
	}
	return &Engine{
		rules: cp,
	}
}

// Match returns the first candidate rule (in store order) whose conditions hold for the change.
// Multiple matching rules are never merged: the earliest registered active rule wins.
func (e *Engine) Match(in core.MatchInput) (*core.Rule, error) {
	for _, rule := range e.rules {
		if skip := skipReason(rule, in.EntityType); skip != "" {
			if rule.Stale && rule.EntityType == in.EntityType {
				log.Warn().Str("rule", rule.ID).Str("reason", rule.StaleReason).Msg("skipping stale rule")
			}
			continue
		}
		if result := checkRule(rule, in); result.Matched {
			matched := rule.Clone()
			return &matched, nil
		}
	}
	return nil, ErrNoRuleMatch
}

// Trace evaluates every rule and reports why each one matched, failed or was skipped.
func (e *Engine) Trace(in core.MatchInput) core.EvaluationTrace {
	trace := core.EvaluationTrace{
		EntityType: in.EntityType,
		Action:     in.Action,
	}
	for _, rule := range e.rules {
		var result core.RuleResult
		if skip := skipReason(rule, in.EntityType); skip != "" {
			result = core.RuleResult{Skipped: skip}
		} else {
			result = checkRule(rule, in)
		}
		result.RuleID = rule.ID
		result.RuleName = rule.Name
		result.Description = rule.Description

		if result.Matched && !trace.Matched {
			trace.Matched = true
			trace.MatchedRule = rule.ID
		}
		trace.RuleResults = append(trace.RuleResults, result)
	}
	return trace
}

// skipReason returns why a rule is not a candidate for the entity type, or "" if it is.
func skipReason(rule core.Rule, entityType string) string {
	switch {
	case !rule.Active:
		return "rule is inactive"
	case rule.EntityType != entityType:
		return fmt.Sprintf("rule governs '%s', not '%s'", rule.EntityType, entityType)
	case rule.Stale:
		return "rule is stale: " + rule.StaleReason
	default:
		return ""
	}
}

// checkRule folds the conditions of a single candidate rule and applies its expression guard.
func checkRule(rule core.Rule, in core.MatchInput) core.RuleResult {
	matched, conditions := foldConditions(rule.Conditions, in.Payload)
	result := core.RuleResult{
		Matched:          matched,
		ConditionResults: conditions,
	}

	if rule.CompiledExpr != nil {
		addResult := func(passed bool, reason string) {
			result.ConditionResults = append(result.ConditionResults, core.ConditionResult{
				Matched:    passed,
				Connector:  core.ConnAnd,
				Expression: rule.Expr,
				Reason:     reason,
			})
			if !passed {
				result.Matched = false
			}
		}

		ok, err := expr.Run(rule.CompiledExpr, exprEnv(in))
		if err != nil {
			log.Warn().Err(err).Msgf("error evaluating rule expression for rule '%s'", rule.ID)
			addResult(false, fmt.Sprintf("error evaluating expression: %v", err))
		} else if b, bOk := ok.(bool); !bOk || !b {
			addResult(false, "expression evaluated to false")
		} else {
			addResult(true, "")
		}
	}

	return result
}

// foldConditions evaluates the conditions left to right as ((c1) OP2 c2) OP3 c3 ...
// Every condition is evaluated, even when the result is already decided.
func foldConditions(conditions []core.Condition, payload core.Payload) (bool, []core.ConditionResult) {
	if len(conditions) == 0 {
		return true, nil
	}

	results := make([]core.ConditionResult, 0, len(conditions))
	var acc bool
	for i, cond := range conditions {
		cr := EvaluateCondition(cond, payload)
		if i == 0 {
			cr.Connector = ""
			acc = cr.Matched
		} else if cond.Connector.Normalize() == core.ConnOr {
			cr.Connector = core.ConnOr
			acc = acc || cr.Matched
		} else {
			cr.Connector = core.ConnAnd
			acc = acc && cr.Matched
		}
		results = append(results, cr)
	}
	return acc, results
}

func exprEnv(in core.MatchInput) map[string]any {
	return map[string]any{
		"payload":     in.Payload.Plain(),
		"entity_type": in.EntityType,
		"action":      string(in.Action),
		"maker": map[string]any{
			"id":   in.Maker.ID,
			"role": in.Maker.Role,
		},
	}
}
