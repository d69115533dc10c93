package core

import (
	"encoding/json"
	"time"

	"github.com/expr-lang/expr/vm"
)

// Actor is the authenticated caller, supplied by the surrounding application.
type Actor struct {
	// ID is the unique identity of the actor (e.g. a user id or email).
	ID string `yaml:"id" json:"id"`
	// Role is the single role the actor currently acts in.
	Role string `yaml:"role" json:"role"`
}

// QuorumPolicy decides how many checker approvals finalize a request.
type QuorumPolicy string

const (
	// QuorumAnyOne approves a request with the first eligible approval.
	QuorumAnyOne QuorumPolicy = "any_one_checker"
	// QuorumAll approves a request once every assigned checker identity approved it.
	QuorumAll QuorumPolicy = "all_assigned_checkers"
)

func (q QuorumPolicy) IsValid() bool {
	return q == QuorumAnyOne || q == QuorumAll
}

// Rule decides which changes need approval and who may approve them.
type Rule struct {
	// ID is the unique, stable identifier of the rule.
	ID string `yaml:"id" json:"id"`

	// Name is a human-readable identifier for logs/debugging.
	Name string `yaml:"name" json:"name"`

	// Description explains the intent of the rule.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// EntityType is the category of entity the rule governs (e.g. "Category").
	EntityType string `yaml:"entity_type" json:"entity_type"`

	// Conditions are folded left to right. No conditions means the rule always matches.
	Conditions []Condition `yaml:"conditions,omitempty" json:"conditions,omitempty"`

	// Expr is an optional boolean expression AND-ed after the conditions.
	Expr string `yaml:"expr,omitempty" json:"expr,omitempty"`

	// CompiledExpr holds the pre-compiled form of Expr for efficient evaluation.
	CompiledExpr *vm.Program `yaml:"-" json:"-"`

	// CheckerRoles and CheckerUsers together form the set of eligible checkers.
	CheckerRoles []string `yaml:"checker_roles,omitempty" json:"checker_roles,omitempty"`
	CheckerUsers []string `yaml:"checker_users,omitempty" json:"checker_users,omitempty"`

	// MakerRoles restricts which roles may submit changes governed by this rule.
	// Leaving this empty allows every role.
	MakerRoles []string `yaml:"maker_roles,omitempty" json:"maker_roles,omitempty"`

	Quorum QuorumPolicy `yaml:"quorum" json:"quorum"`

	Active bool `yaml:"active" json:"active"`

	// Stale is set when an attribute referenced by the rule changed in a way
	// that makes the rule invalid. Stale rules are skipped by the matcher.
	Stale       bool   `yaml:"-" json:"stale,omitempty"`
	StaleReason string `yaml:"-" json:"stale_reason,omitempty"`

	CreatedAt time.Time `yaml:"-" json:"created_at"`
	UpdatedAt time.Time `yaml:"-" json:"updated_at"`
}

func (r *Rule) UnmarshalYAML(unmarshal func(any) error) error {
	type plain Rule // prevents recursion
	p := plain{
		Active: true, // rules from config are active unless disabled explicitly
		Quorum: QuorumAnyOne,
	}
	if err := unmarshal(&p); err != nil {
		return err
	}
	*r = Rule(p)
	return nil
}

// UnmarshalJSON applies the same defaults as UnmarshalYAML, so rules created
// through the API are active unless disabled explicitly.
func (r *Rule) UnmarshalJSON(data []byte) error {
	type plain Rule
	p := plain{
		Active: true,
		Quorum: QuorumAnyOne,
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Rule(p)
	return nil
}

// HasChecker reports whether the rule names at least one checker role or user.
func (r *Rule) HasChecker() bool {
	return len(r.CheckerRoles) > 0 || len(r.CheckerUsers) > 0
}

// AllowsMaker reports whether the given role may submit changes under this rule.
func (r *Rule) AllowsMaker(role string) bool {
	if len(r.MakerRoles) == 0 {
		return true
	}
	return contains(r.MakerRoles, role)
}

// References returns the IDs of all attributes used by the rule's conditions.
func (r *Rule) References() []string {
	seen := make(map[string]struct{}, len(r.Conditions))
	var refs []string
	for _, c := range r.Conditions {
		if _, ok := seen[c.Attribute]; ok {
			continue
		}
		seen[c.Attribute] = struct{}{}
		refs = append(refs, c.Attribute)
	}
	return refs
}

func (r Rule) Clone() Rule {
	out := r
	out.Conditions = make([]Condition, len(r.Conditions))
	for i, c := range r.Conditions {
		out.Conditions[i] = c.Clone()
	}
	out.CheckerRoles = append([]string(nil), r.CheckerRoles...)
	out.CheckerUsers = append([]string(nil), r.CheckerUsers...)
	out.MakerRoles = append([]string(nil), r.MakerRoles...)
	return out
}

// MatchInput is a proposed change as seen by the rule matcher.
type MatchInput struct {
	EntityType string
	Action     Action
	Payload    Payload
	Maker      Actor
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
