package core

// EvaluationTrace captures the detailed trace of a rule matching run.
type EvaluationTrace struct {
	// CorrelationID is the unique identifier for the evaluation request.
	CorrelationID string `yaml:"correlation_id" json:"correlation_id"`

	EntityType string `yaml:"entity_type" json:"entity_type"`
	Action     Action `yaml:"action,omitempty" json:"action,omitempty"`

	// RuleResults contains the result of every rule evaluated, in store order.
	RuleResults []RuleResult `yaml:"rule_results" json:"rule_results"`

	// Matched indicates whether any rule governs the change.
	Matched bool `yaml:"matched" json:"matched"`

	// MatchedRule is the ID of the first matching rule, if any.
	MatchedRule string `yaml:"matched_rule,omitempty" json:"matched_rule,omitempty"`
}

// RuleResult captures why a specific rule matched or failed.
type RuleResult struct {
	RuleID      string `yaml:"rule_id" json:"rule_id"`
	RuleName    string `yaml:"rule_name" json:"rule_name"`
	Description string `yaml:"description" json:"description"`
	Matched     bool   `yaml:"matched" json:"matched"`

	// Skipped explains why the rule was not a candidate (inactive, stale, other entity type).
	Skipped string `yaml:"skipped,omitempty" json:"skipped,omitempty"`

	ConditionResults []ConditionResult `yaml:"condition_results,omitempty" json:"condition_results,omitempty"`
}
