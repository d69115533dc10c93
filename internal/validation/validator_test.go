package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

var catalog = map[string]core.Attribute{
	"price":    {ID: "price", Name: "Price", Type: core.AttrNumber},
	"brand":    {ID: "brand", Name: "Brand", Type: core.AttrSingleChoice, Options: []string{"Apple", "Samsung"}},
	"name":     {ID: "name", Name: "Name", Type: core.AttrText},
	"featured": {ID: "featured", Name: "Featured", Type: core.AttrBoolean},
}

func validRule() core.Rule {
	return core.Rule{
		ID:           "r1",
		Name:         "Rule 1",
		EntityType:   "Category",
		Active:       true,
		CheckerRoles: []string{"Category Manager"},
		Conditions: []core.Condition{
			{Attribute: "price", Operator: core.OpGreaterThan, Values: []string{"1000"}},
			{Attribute: "brand", Operator: core.OpIn, Values: []string{"Apple", "Samsung"}, Connector: "or"},
			{Attribute: "name", Operator: core.OpLike, Values: []string{"phone"}},
		},
	}
}

func TestValidateRule_CompilesConditions(t *testing.T) {
	rule, err := ValidateRule(validRule(), catalog, nil)
	require.NoError(t, err)

	assert.Equal(t, core.QuorumAnyOne, rule.Quorum)
	require.Len(t, rule.Conditions, 3)
	for _, c := range rule.Conditions {
		assert.True(t, c.IsCompiled(), "condition %s not compiled", c)
	}
	assert.Equal(t, core.Number(1000), rule.Conditions[0].Compiled[0])
	assert.Equal(t, core.Connector(""), rule.Conditions[0].Connector)
	assert.Equal(t, core.ConnOr, rule.Conditions[1].Connector)
	// implicit AND
	assert.Equal(t, core.ConnAnd, rule.Conditions[2].Connector)
}

func TestValidateRule_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *core.Rule)
		wantErr error
	}{
		{"missing name", func(r *core.Rule) { r.Name = " " }, core.ErrValidation},
		{"missing entity type", func(r *core.Rule) { r.EntityType = "" }, core.ErrValidation},
		{"no checkers", func(r *core.Rule) { r.CheckerRoles = nil }, core.ErrValidation},
		{"bad quorum", func(r *core.Rule) { r.Quorum = "majority" }, core.ErrValidation},
		{"first condition with connector", func(r *core.Rule) { r.Conditions[0].Connector = core.ConnAnd }, core.ErrValidation},
		{"invalid connector", func(r *core.Rule) { r.Conditions[1].Connector = "XOR" }, core.ErrValidation},
		{"unknown attribute", func(r *core.Rule) { r.Conditions[0].Attribute = "weight" }, core.ErrValidation},
		{"unknown operator", func(r *core.Rule) { r.Conditions[0].Operator = "between" }, core.ErrValidation},
		{"value not an option", func(r *core.Rule) { r.Conditions[1].Values = []string{"Nokia"} }, core.ErrValidation},
		{"value not a number", func(r *core.Rule) { r.Conditions[0].Values = []string{"lots"} }, core.ErrValidation},
		{"two values for equals", func(r *core.Rule) {
			r.Conditions[0].Operator = core.OpEqual
			r.Conditions[0].Values = []string{"1", "2"}
		}, core.ErrValidation},
		{"no values", func(r *core.Rule) { r.Conditions[0].Values = nil }, core.ErrValidation},
		{"ordering on text", func(r *core.Rule) {
			r.Conditions[2].Operator = core.OpGreaterThan
		}, core.ErrTypeMismatch},
		{"like on number", func(r *core.Rule) { r.Conditions[0].Operator = core.OpLike }, core.ErrTypeMismatch},
		{"ordering on boolean", func(r *core.Rule) {
			r.Conditions[0] = core.Condition{Attribute: "featured", Operator: core.OpLessThan, Values: []string{"true"}}
		}, core.ErrTypeMismatch},
		{"invalid regex", func(r *core.Rule) {
			r.Conditions[2] = core.Condition{Attribute: "name", Operator: core.OpRegex, Values: []string{"(["}}
		}, core.ErrValidation},
		{"invalid expression", func(r *core.Rule) { r.Expr = "payload.price >" }, core.ErrValidation},
		{"non boolean expression", func(r *core.Rule) { r.Expr = `"yes"` }, core.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := validRule()
			tt.mutate(&rule)
			_, err := ValidateRule(rule, catalog, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestValidateRule_InactiveRuleWithoutCheckers(t *testing.T) {
	rule := validRule()
	rule.Active = false
	rule.CheckerRoles = nil

	_, err := ValidateRule(rule, catalog, nil)
	assert.NoError(t, err)
}

func TestValidateRule_EntityTypeCatalog(t *testing.T) {
	types := map[string]struct{}{"Product": {}}

	_, err := ValidateRule(validRule(), catalog, types)
	assert.ErrorIs(t, err, core.ErrValidation)

	types["Category"] = struct{}{}
	_, err = ValidateRule(validRule(), catalog, types)
	assert.NoError(t, err)
}

func TestValidateRule_ClearsStaleFlag(t *testing.T) {
	rule := validRule()
	rule.Stale = true
	rule.StaleReason = "old"

	out, err := ValidateRule(rule, catalog, nil)
	require.NoError(t, err)
	assert.False(t, out.Stale)
	assert.Empty(t, out.StaleReason)
}

func TestValidateRule_CompilesExpression(t *testing.T) {
	rule := validRule()
	rule.Expr = `payload.price > 10 && maker.role != "Intern"`

	out, err := ValidateRule(rule, catalog, nil)
	require.NoError(t, err)
	assert.NotNil(t, out.CompiledExpr)
}

func TestValidateRules_DuplicateIDs(t *testing.T) {
	_, err := ValidateRules([]core.Rule{validRule(), validRule()}, catalog, nil)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestValidateAttribute(t *testing.T) {
	def := core.Text("Apple")
	badDef := core.Text("Nokia")
	numDef := core.Text("12.5")

	tests := []struct {
		name    string
		attr    core.Attribute
		wantErr bool
		check   func(t *testing.T, a core.Attribute)
	}{
		{
			name: "dropdown alias",
			attr: core.Attribute{ID: "brand", Name: "Brand", Type: "dropdown", Options: []string{"Apple", "Samsung"}, Default: &def},
			check: func(t *testing.T, a core.Attribute) {
				assert.Equal(t, core.AttrSingleChoice, a.Type)
				assert.Equal(t, []string{"Apple", "Samsung"}, a.Options)
			},
		},
		{
			name: "number default is parsed",
			attr: core.Attribute{ID: "price", Name: "Price", Type: core.AttrNumber, Default: &numDef},
			check: func(t *testing.T, a core.Attribute) {
				assert.Equal(t, core.Number(12.5), *a.Default)
			},
		},
		{name: "missing id", attr: core.Attribute{Name: "X", Type: core.AttrText}, wantErr: true},
		{name: "missing name", attr: core.Attribute{ID: "x", Type: core.AttrText}, wantErr: true},
		{name: "unknown type", attr: core.Attribute{ID: "x", Name: "X", Type: "blob"}, wantErr: true},
		{name: "choice without options", attr: core.Attribute{ID: "x", Name: "X", Type: core.AttrSingleChoice}, wantErr: true},
		{name: "duplicate option", attr: core.Attribute{ID: "x", Name: "X", Type: core.AttrMultiChoice, Options: []string{"a", "a"}}, wantErr: true},
		{name: "options on text", attr: core.Attribute{ID: "x", Name: "X", Type: core.AttrText, Options: []string{"a"}}, wantErr: true},
		{name: "default not an option", attr: core.Attribute{ID: "x", Name: "X", Type: core.AttrSingleChoice, Options: []string{"Apple"}, Default: &badDef}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateAttribute(tt.attr)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrValidation)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, got)
			}
		})
	}
}
