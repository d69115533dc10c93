package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/approval"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/audit"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

const sample = `
entity_types: [Category, Product]

attributes:
  - id: price
    name: Price
    type: number
  - id: category
    name: Category
    type: dropdown
    options: [Electronics, Luxury, Apparel]

users:
  - id: jane
    role: maker
  - id: bob
    role: checker

rules:
  - id: high-value
    name: High value categories
    entity_type: Category
    checker_roles: [checker]
    conditions:
      - attribute: price
        operator: greater_than
        value: 1000
      - attribute: category
        operator: in
        value: [Electronics, Luxury]
        connector: AND

policy:
  request_ttl: 72h

audit:
  enabled: true
  type: memory
  limit: 100
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, []string{"Category", "Product"}, cfg.EntityTypes)
	require.Len(t, cfg.Attributes, 2)
	assert.Equal(t, core.AttrSingleChoice, cfg.Attributes[1].Type)

	require.Len(t, cfg.Rules, 1)
	rule := cfg.Rules[0]
	assert.True(t, rule.Active, "rules are active unless disabled")
	assert.Equal(t, core.QuorumAnyOne, rule.Quorum)
	assert.Equal(t, []string{"1000"}, rule.Conditions[0].Values)
	assert.Equal(t, []string{"Electronics", "Luxury"}, rule.Conditions[1].Values)

	assert.Equal(t, 72*time.Hour, cfg.Policy.RequestTTL)
	assert.Equal(t, "memory", cfg.Audit.Type)
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown attribute in rule": `
rules:
  - id: r1
    name: R1
    entity_type: X
    checker_roles: [c]
    conditions:
      - attribute: missing
        value: 1
`,
		"unknown entity type": `
entity_types: [Category]
rules:
  - id: r1
    name: R1
    entity_type: Product
    checker_roles: [c]
`,
		"rule without checkers": `
rules:
  - id: r1
    name: R1
    entity_type: Product
`,
		"dropdown without options": `
attributes:
  - id: brand
    name: Brand
    type: dropdown
`,
		"duplicate user": `
users:
  - id: a
    role: x
  - id: a
    role: y
`,
		"fallback without checkers": `
policy:
  require_approval: true
`,
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLoadAndBuild(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	var committed []string
	rt, err := cfg.Build(context.Background(), BuildOptions{
		Committer: core.CommitFunc(func(_ context.Context, req *core.ApprovalRequest) error {
			committed = append(committed, req.ID)
			return nil
		}),
	})
	require.NoError(t, err)

	assert.Len(t, rt.Catalog.ListRules(""), 1)
	assert.Equal(t, []string{"Category", "Product"}, rt.Catalog.EntityTypes())

	ctx := context.Background()
	res, err := rt.Approvals.Submit(ctx, approval.Submission{
		EntityType: "Category",
		Action:     core.ActionCreate,
		Payload:    core.Payload{"price": core.Number(1500), "category": core.Text("Electronics")},
		Maker:      core.Actor{ID: "jane", Role: "maker"},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Request)
	assert.Equal(t, []string{"bob"}, res.Request.Checkers.Members)
	require.NotNil(t, res.Request.ExpiresAt)

	_, err = rt.Approvals.Decide(ctx, res.Request.ID, core.Actor{ID: "bob", Role: "checker"}, core.DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, []string{res.Request.ID}, committed)

	mem, ok := rt.Auditor.(*audit.InMemoryAuditor)
	require.True(t, ok)
	entries, err := mem.Find(audit.ForRule("high-value"), 0)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
	assert.Equal(t, core.AuditRuleCreate, entries[0].Action)
	assert.Equal(t, core.SystemActor.ID, entries[0].Actor.ID)
}

func TestBuild_FallbackPolicy(t *testing.T) {
	cfg, err := Parse([]byte(`
users:
  - id: jane
    role: maker
  - id: admin
    role: admin
policy:
  require_approval: true
  fallback:
    checker_roles: [admin]
`))
	require.NoError(t, err)

	rt, err := cfg.Build(context.Background(), BuildOptions{})
	require.NoError(t, err)

	res, err := rt.Approvals.Submit(context.Background(), approval.Submission{
		EntityType: "User",
		Action:     core.ActionCreate,
		Payload:    core.Payload{"name": core.Text("x")},
		Maker:      core.Actor{ID: "jane", Role: "maker"},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Request)
	assert.Equal(t, "fallback", res.Request.RuleID)
}
