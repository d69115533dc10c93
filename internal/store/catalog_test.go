package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/audit"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/engine"
)

type refsFunc func(kind core.RefKind, id string) bool

func (f refsFunc) IsReferenced(_ context.Context, kind core.RefKind, id string) (bool, error) {
	return f(kind, id), nil
}

func newCatalog(t *testing.T, opts ...Option) (*Catalog, *engine.Manager) {
	t.Helper()
	m := engine.NewManager(nil)
	c := NewCatalog(m, opts...)

	ctx := context.Background()
	for _, attr := range []core.Attribute{
		{ID: "price", Name: "Price", Type: core.AttrNumber},
		{ID: "brand", Name: "Brand", Type: "dropdown", Options: []string{"Apple", "Samsung"}},
		{ID: "name", Name: "Name", Type: core.AttrText},
	} {
		_, err := c.CreateAttribute(ctx, attr)
		require.NoError(t, err)
	}
	return c, m
}

func brandRule(id string, values ...string) core.Rule {
	return core.Rule{
		ID:           id,
		Name:         "Brand rule " + id,
		EntityType:   "Product",
		Active:       true,
		CheckerRoles: []string{"checker"},
		Conditions: []core.Condition{
			{Attribute: "brand", Operator: core.OpIn, Values: values},
		},
	}
}

func TestCatalog_DropdownOptionsRoundTrip(t *testing.T) {
	c, _ := newCatalog(t)
	ctx := context.Background()

	_, err := c.CreateRule(ctx, brandRule("inside", "Apple", "Samsung"))
	assert.NoError(t, err)

	_, err = c.CreateRule(ctx, brandRule("outside", "Nokia"))
	var vErr *core.ValidationError
	assert.True(t, errors.As(err, &vErr), "expected ValidationError, got %v", err)

	_, err = c.GetRule("outside")
	assert.ErrorIs(t, err, core.ErrNotFound, "invalid rules must never be stored")
}

func TestCatalog_CreateRulePublishesSnapshot(t *testing.T) {
	c, m := newCatalog(t)
	ctx := context.Background()

	in := core.MatchInput{EntityType: "Product", Payload: core.Payload{"brand": core.Text("Apple")}}
	_, err := m.Engine().Match(in)
	require.ErrorIs(t, err, engine.ErrNoRuleMatch)

	created, err := c.CreateRule(ctx, brandRule("", "Apple"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID, "id should be generated")
	assert.False(t, created.CreatedAt.IsZero())

	rule, err := m.Engine().Match(in)
	require.NoError(t, err)
	assert.Equal(t, created.ID, rule.ID)
}

func TestCatalog_CreateRuleDuplicateID(t *testing.T) {
	c, _ := newCatalog(t)
	ctx := context.Background()

	_, err := c.CreateRule(ctx, brandRule("r1", "Apple"))
	require.NoError(t, err)
	_, err = c.CreateRule(ctx, brandRule("r1", "Samsung"))
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestCatalog_UpdateAndDeleteRule(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c, m := newCatalog(t, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	created, err := c.CreateRule(ctx, brandRule("r1", "Apple"))
	require.NoError(t, err)
	assert.Equal(t, now, created.CreatedAt)

	now = now.Add(time.Hour)
	updated := brandRule("r1", "Samsung")
	saved, err := c.UpdateRule(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, saved.CreatedAt)
	assert.Equal(t, now, saved.UpdatedAt)

	_, err = m.Engine().Match(core.MatchInput{EntityType: "Product", Payload: core.Payload{"brand": core.Text("Apple")}})
	assert.ErrorIs(t, err, engine.ErrNoRuleMatch)

	assert.Equal(t, []string{"r1"}, c.RulesReferencing("brand"))

	require.NoError(t, c.DeleteRule(ctx, "r1"))
	assert.Empty(t, c.RulesReferencing("brand"))
	assert.ErrorIs(t, c.DeleteRule(ctx, "r1"), core.ErrNotFound)

	_, err = c.UpdateRule(ctx, updated)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCatalog_MoveRuleChangesMatch(t *testing.T) {
	c, m := newCatalog(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := c.CreateRule(ctx, brandRule(id, "Apple"))
		require.NoError(t, err)
	}
	in := core.MatchInput{EntityType: "Product", Payload: core.Payload{"brand": core.Text("Apple")}}

	rule, err := m.Engine().Match(in)
	require.NoError(t, err)
	assert.Equal(t, "a", rule.ID)

	require.NoError(t, c.MoveRule(ctx, "c", 0))
	rule, err = m.Engine().Match(in)
	require.NoError(t, err)
	assert.Equal(t, "c", rule.ID)

	ids := func() []string {
		var out []string
		for _, r := range c.ListRules("") {
			out = append(out, r.ID)
		}
		return out
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids())

	require.NoError(t, c.MoveRule(ctx, "c", 99))
	assert.Equal(t, []string{"a", "b", "c"}, ids())
}

func TestCatalog_UpdateAttributeFlagsStaleRules(t *testing.T) {
	c, m := newCatalog(t)
	ctx := context.Background()

	_, err := c.CreateRule(ctx, brandRule("apple", "Apple"))
	require.NoError(t, err)
	_, err = c.CreateRule(ctx, brandRule("samsung", "Samsung"))
	require.NoError(t, err)

	// Apple is no longer an option
	_, stale, err := c.UpdateAttribute(ctx, core.Attribute{
		ID: "brand", Name: "Brand", Type: core.AttrSingleChoice, Options: []string{"Samsung", "Google"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"apple"}, stale)
	assert.Equal(t, []string{"apple"}, c.Stale())

	rule, err := c.GetRule("apple")
	require.NoError(t, err)
	assert.True(t, rule.Stale)
	assert.NotEmpty(t, rule.StaleReason)

	// stale rules are skipped
	_, err = m.Engine().Match(core.MatchInput{EntityType: "Product", Payload: core.Payload{"brand": core.Text("Apple")}})
	assert.ErrorIs(t, err, engine.ErrNoRuleMatch)

	// saving the rule again clears the flag
	fixed := brandRule("apple", "Google")
	_, err = c.UpdateRule(ctx, fixed)
	require.NoError(t, err)
	assert.Empty(t, c.Stale())
}

func TestCatalog_UpdateAttributeTypeChange(t *testing.T) {
	c, _ := newCatalog(t)
	ctx := context.Background()

	_, err := c.CreateRule(ctx, core.Rule{
		ID: "big", Name: "Big", EntityType: "Product", Active: true, CheckerRoles: []string{"checker"},
		Conditions: []core.Condition{{Attribute: "price", Operator: core.OpGreaterThan, Values: []string{"1000"}}},
	})
	require.NoError(t, err)

	_, stale, err := c.UpdateAttribute(ctx, core.Attribute{ID: "price", Name: "Price", Type: core.AttrText})
	require.NoError(t, err)
	assert.Equal(t, []string{"big"}, stale)
}

func TestCatalog_DeleteAttributeIntegrity(t *testing.T) {
	auditor := audit.NewInMemoryAuditor()
	c, _ := newCatalog(t, WithAuditor(auditor))
	ctx := context.Background()

	_, err := c.CreateRule(ctx, brandRule("r1", "Apple"))
	require.NoError(t, err)

	err = c.DeleteAttribute(ctx, "brand")
	var riErr *core.ReferentialIntegrityError
	require.True(t, errors.As(err, &riErr), "expected ReferentialIntegrityError, got %v", err)
	assert.Equal(t, []string{"r1"}, riErr.ReferencedBy)

	_, err = c.GetAttribute("brand")
	assert.NoError(t, err, "attribute must survive a blocked delete")

	// deactivating the rule unblocks the delete and flags the rule stale
	inactive := brandRule("r1", "Apple")
	inactive.Active = false
	_, err = c.UpdateRule(ctx, inactive)
	require.NoError(t, err)

	require.NoError(t, c.DeleteAttribute(ctx, "brand"))
	assert.Equal(t, []string{"r1"}, c.Stale())

	entries, _ := auditor.Find(func(e core.AuditEntry) bool { return e.Action == core.AuditAttributeDelete }, 10)
	require.Len(t, entries, 2)
	assert.False(t, entries[0].Success)
	assert.True(t, entries[1].Success)
}

func TestCatalog_ExternalReferences(t *testing.T) {
	refs := refsFunc(func(kind core.RefKind, id string) bool {
		return (kind == core.RefAttribute && id == "name") || (kind == core.RefRule && id == "r1")
	})
	c, _ := newCatalog(t, WithReferenceChecker(refs))
	ctx := context.Background()

	assert.ErrorIs(t, c.DeleteAttribute(ctx, "name"), core.ErrReferentialIntegrity)
	assert.NoError(t, c.DeleteAttribute(ctx, "price"))

	_, err := c.CreateRule(ctx, brandRule("r1", "Apple"))
	require.NoError(t, err)
	assert.ErrorIs(t, c.DeleteRule(ctx, "r1"), core.ErrReferentialIntegrity)
}

func TestCatalog_EntityTypes(t *testing.T) {
	c, _ := newCatalog(t, WithEntityTypes("Category", "Category", "User"))
	ctx := context.Background()

	assert.Equal(t, []string{"Category", "User"}, c.EntityTypes())

	_, err := c.CreateRule(ctx, brandRule("r1", "Apple"))
	assert.ErrorIs(t, err, core.ErrValidation, "Product is not a configured entity type")
}

func TestCatalog_ListAttributesInCreationOrder(t *testing.T) {
	c, _ := newCatalog(t)

	var ids []string
	for _, a := range c.ListAttributes() {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"price", "brand", "name"}, ids)

	brand, err := c.GetAttribute("brand")
	require.NoError(t, err)
	assert.Equal(t, core.AttrSingleChoice, brand.Type)
}
