package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

func TestNew_DecodesOptions(t *testing.T) {
	auditor, err := New(TypeMemory, map[string]any{"limit": "2"})
	require.NoError(t, err)
	mem, ok := auditor.(*InMemoryAuditor)
	require.True(t, ok)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, mem.Log(core.AuditEntry{RequestID: id}))
	}
	recent, err := mem.GetRecent(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].RequestID)
	assert.Equal(t, "c", recent[1].RequestID)

	_, err = New("kafka", nil)
	assert.Error(t, err)

	_, err = New(TypeFile, map[string]any{})
	assert.Error(t, err, "file auditor without path")
}

func TestFileAuditor_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	auditor, err := New(TypeFile, map[string]any{"path": path, "sync": true})
	require.NoError(t, err)

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, auditor.Log(core.AuditEntry{
		Time: now, Action: core.AuditRequestSubmit, RequestID: "req-1",
		Actor: &core.Actor{ID: "jane", Role: "maker"}, Success: true,
	}))
	require.NoError(t, auditor.Log(core.AuditEntry{
		Time: now, Action: core.AuditRequestDecide, RequestID: "req-1",
		Actor: &core.Actor{ID: "bob", Role: "checker"}, Decision: core.DecisionApprove, Status: core.StatusApproved, Success: true,
	}))
	require.NoError(t, auditor.Log(core.AuditEntry{Time: now, Action: core.AuditRuleCreate, RuleID: "r1"}))

	reader, ok := auditor.(Reader)
	require.True(t, ok)
	recent, err := reader.Find(nil, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, core.AuditRuleCreate, recent[0].Action)

	require.NoError(t, auditor.Close())

	entries, err := ReadFile(path, ForRequest("req-1"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, core.StatusApproved, entries[1].Status)

	entries, err = ReadFile(path, All(ForRequest("req-1"), ForActor("bob")))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, core.DecisionApprove, entries[0].Decision)

	entries, err = ReadFile(path, ForRule("r1"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestInMemoryAuditor_Find(t *testing.T) {
	mem := NewInMemoryAuditor()
	for i := 0; i < 5; i++ {
		_ = mem.Log(core.AuditEntry{RuleID: "r1", Metadata: map[string]any{"i": i}})
	}
	_ = mem.Log(core.AuditEntry{RuleID: "r2"})

	found, err := mem.Find(ForRule("r1"), 2)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, 4, found[1].Metadata["i"])

	all, err := mem.Find(nil, 0)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}
