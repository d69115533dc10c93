package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/api"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/config"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/tasks"
)

const testConfig = `
attributes:
  - id: amount
    name: Amount
    type: number
users:
  - id: jane
    role: maker
  - id: bob
    role: checker
  - id: root
    role: admin
rules:
  - id: large-orders
    name: Large orders
    entity_type: Order
    checker_roles: [checker]
    conditions:
      - attribute: amount
        operator: greater_than_equal
        value: 100
audit:
  enabled: true
`

func newTestServer(t *testing.T) string {
	t.Helper()

	cfg, err := config.Parse([]byte(testConfig))
	require.NoError(t, err)
	rt, err := cfg.Build(context.Background(), config.BuildOptions{})
	require.NoError(t, err)

	tm := tasks.NewManager(context.Background())
	tm.Register(tasks.StaleRules(rt.Catalog, 0))

	srv := httptest.NewServer(api.NewServer(rt.Catalog, rt.Engines, rt.Approvals, rt.Auditor, tm, "admin").Routes())
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestClient_RequestLifecycle(t *testing.T) {
	addr := newTestServer(t)
	ctx := context.Background()

	maker := New(addr, WithActor(core.Actor{ID: "jane", Role: "maker"}))
	checker := New(addr, WithActor(core.Actor{ID: "bob", Role: "checker"}))

	res, correlation, err := maker.Submit(ctx, api.SubmitPayload{
		EntityType: "Order",
		Action:     core.ActionCreate,
		Payload:    core.Payload{"amount": core.Number(250)},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, correlation)
	require.NotNil(t, res.Request)
	assert.Equal(t, "large-orders", res.Request.RuleID)

	pending, _, err := checker.ListRequests(ctx, ListRequestsOpts{Awaiting: true})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, res.Request.ID, pending[0].ID)

	_, _, err = maker.Decide(ctx, res.Request.ID, core.DecisionApprove, "")
	var apiErr APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)

	view, _, err := checker.Decide(ctx, res.Request.ID, core.DecisionApprove, "looks good")
	require.NoError(t, err)
	assert.Equal(t, core.StatusApproved, view.Status)

	got, _, err := maker.GetRequest(ctx, res.Request.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusApproved, got.Status)

	stats, _, err := maker.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Approved)
}

func TestClient_Withdraw(t *testing.T) {
	addr := newTestServer(t)
	ctx := context.Background()
	maker := New(addr, WithActor(core.Actor{ID: "jane", Role: "maker"}))

	res, _, err := maker.Submit(ctx, api.SubmitPayload{
		EntityType: "Order",
		Action:     core.ActionCreate,
		Payload:    core.Payload{"amount": core.Number(100)},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Request)

	view, _, err := maker.Withdraw(ctx, res.Request.ID, "")
	require.NoError(t, err)
	assert.Equal(t, core.StatusWithdrawn, view.Status)

	// below the threshold nothing needs approval
	res, _, err = maker.Submit(ctx, api.SubmitPayload{
		EntityType: "Order",
		Action:     core.ActionCreate,
		Payload:    core.Payload{"amount": core.Number(99)},
	})
	require.NoError(t, err)
	assert.True(t, res.AutoCommit)
}

func TestClient_Admin(t *testing.T) {
	addr := newTestServer(t)
	ctx := context.Background()
	admin := New(addr, WithActor(core.Actor{ID: "root", Role: "admin"}))

	info, _, err := admin.Info(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, info.Version)

	rules, _, err := admin.ListRules(ctx, "Order")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "large-orders", rules[0].ID)

	attrs, _, err := admin.ListAttributes(ctx)
	require.NoError(t, err)
	require.Len(t, attrs, 1)

	trace, correlation, err := admin.ExplainTrace(ctx, api.ExplainPayload{
		EntityType: "Order",
		Payload:    core.Payload{"amount": core.Number(10)},
	})
	require.NoError(t, err)
	assert.Equal(t, correlation, trace.CorrelationID)
	assert.False(t, trace.Matched)

	entries, _, err := admin.ListAudits(ctx, ListAuditsOpts{RuleID: "large-orders", Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, core.AuditRuleCreate, entries[0].Action)

	list, _, err := admin.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, tasks.StaleRulesTask, list[0].Name)

	_, err = admin.TriggerTask(ctx, "missing")
	var apiErr APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)

	// the maker is not an admin
	_, _, err = New(addr, WithActor(core.Actor{ID: "jane", Role: "maker"})).ListRules(ctx, "")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}
