package core

import (
	"encoding/json"
	"testing"

	"github.com/goccy/go-yaml"
)

func TestCondition_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Condition
	}{
		{
			name: "Explicit Syntax",
			input: `attribute: brand
operator: in
values: [Apple, Samsung]`,
			want: Condition{Attribute: "brand", Operator: OpIn, Values: []string{"Apple", "Samsung"}},
		},
		{
			name: "Single Value Shorthand",
			input: `attribute: price
operator: greater_than
value: 1000`,
			want: Condition{Attribute: "price", Operator: OpGreaterThan, Values: []string{"1000"}},
		},
		{
			name: "Implicit Equals",
			input: `attribute: category
value: Electronics`,
			want: Condition{Attribute: "category", Operator: OpEqual, Values: []string{"Electronics"}},
		},
		{
			name: "Connector Preserved",
			input: `attribute: in_stock
operator: equals
value: true
connector: or`,
			want: Condition{Attribute: "in_stock", Operator: OpEqual, Values: []string{"true"}, Connector: "or"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Condition
			if err := yaml.Unmarshal([]byte(tt.input), &got); err != nil {
				t.Fatalf("UnmarshalYAML() error = %v", err)
			}
			if !compareCondition(got, tt.want) {
				t.Errorf("Unmarshal mismatch.\nGot:  %+v\nWant: %+v", got, tt.want)
			}
		})
	}
}

func compareCondition(a, b Condition) bool {
	if a.Attribute != b.Attribute || a.Operator != b.Operator || a.Connector != b.Connector {
		return false
	}
	if len(a.Values) != len(b.Values) {
		return false
	}
	for i := range a.Values {
		if a.Values[i] != b.Values[i] {
			return false
		}
	}
	return true
}

func TestRule_UnmarshalYAMLDefaults(t *testing.T) {
	input := `
- id: r1
  name: Category Management Rule
  entity_type: Category
  checker_roles: [checker]
- id: r2
  name: Disabled
  entity_type: Category
  checker_roles: [checker]
  quorum: all_assigned_checkers
  active: false
`
	var rules []Rule
	if err := yaml.Unmarshal([]byte(input), &rules); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(rules))
	}
	if !rules[0].Active || rules[0].Quorum != QuorumAnyOne {
		t.Errorf("rule r1 defaults: active=%v quorum=%s", rules[0].Active, rules[0].Quorum)
	}
	if rules[1].Active || rules[1].Quorum != QuorumAll {
		t.Errorf("rule r2: active=%v quorum=%s", rules[1].Active, rules[1].Quorum)
	}
}

func TestRule_UnmarshalJSONDefaults(t *testing.T) {
	input := `[
		{"id": "r1", "name": "Category Management Rule", "entity_type": "Category", "checker_roles": ["checker"]},
		{"id": "r2", "name": "Disabled", "entity_type": "Category", "checker_roles": ["checker"],
		 "quorum": "all_assigned_checkers", "active": false}
	]`
	var rules []Rule
	if err := json.Unmarshal([]byte(input), &rules); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(rules))
	}
	if !rules[0].Active || rules[0].Quorum != QuorumAnyOne {
		t.Errorf("rule r1 defaults: active=%v quorum=%s", rules[0].Active, rules[0].Quorum)
	}
	if rules[1].Active || rules[1].Quorum != QuorumAll {
		t.Errorf("rule r2: active=%v quorum=%s", rules[1].Active, rules[1].Quorum)
	}
	if rules[0].CheckerRoles[0] != "checker" {
		t.Errorf("rule r1 checker roles = %v", rules[0].CheckerRoles)
	}
}

func TestAttributeType_Normalize(t *testing.T) {
	tests := map[AttributeType]AttributeType{
		"string":        AttrText,
		"Dropdown":      AttrSingleChoice,
		"multiselect":   AttrMultiChoice,
		"number":        AttrNumber,
		" date ":        AttrDate,
		"single_choice": AttrSingleChoice,
	}
	for in, want := range tests {
		if got := in.Normalize(); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
