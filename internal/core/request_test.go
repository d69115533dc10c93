package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApprovalRequest_Outstanding(t *testing.T) {
	req := &ApprovalRequest{
		Checkers: CheckerSet{Members: []string{"bob", "carol"}, Quorum: QuorumAll},
		Decisions: []DecisionEntry{
			{Actor: Actor{ID: "bob"}, Decision: DecisionComment, Comment: "looking"},
			{Actor: Actor{ID: "bob"}, Decision: DecisionApprove},
		},
	}
	assert.Equal(t, []string{"bob"}, req.ApprovedBy())
	assert.Equal(t, []string{"carol"}, req.Outstanding())

	req.Checkers.Quorum = QuorumAnyOne
	assert.Empty(t, req.Outstanding())
}

func TestApprovalRequest_Changes(t *testing.T) {
	req := &ApprovalRequest{
		Previous: Payload{"price": Number(900), "name": Text("Watch"), "old": Text("x")},
		Payload:  Payload{"price": Number(1500), "name": Text("Watch"), "new": Bool(true)},
	}
	changes := req.Changes()
	if assert.Len(t, changes, 3) {
		assert.Equal(t, "new", changes[0].Attribute)
		assert.Nil(t, changes[0].From)
		assert.Equal(t, "old", changes[1].Attribute)
		assert.Nil(t, changes[1].To)
		assert.Equal(t, "price", changes[2].Attribute)
		assert.Equal(t, 900.0, changes[2].From.Number)
		assert.Equal(t, 1500.0, changes[2].To.Number)
	}
}

func TestApprovalRequest_CloneIsDeep(t *testing.T) {
	req := &ApprovalRequest{
		Payload:   Payload{"tags": Set("a")},
		Checkers:  CheckerSet{Members: []string{"bob"}},
		Decisions: []DecisionEntry{{Decision: DecisionComment}},
	}
	cp := req.Clone()
	cp.Payload["tags"].Set[0] = "changed"
	cp.Checkers.Members[0] = "eve"
	cp.Decisions[0].Comment = "changed"

	assert.Equal(t, "a", req.Payload["tags"].Set[0])
	assert.Equal(t, "bob", req.Checkers.Members[0])
	assert.Empty(t, req.Decisions[0].Comment)
}

func TestCheckerSet_Eligible(t *testing.T) {
	set := CheckerSet{Roles: []string{"checker"}, Users: []string{"dave"}, Members: []string{"bob"}}
	assert.True(t, set.Eligible(Actor{ID: "anyone", Role: "checker"}))
	assert.True(t, set.Eligible(Actor{ID: "dave", Role: "viewer"}))
	assert.True(t, set.Eligible(Actor{ID: "bob", Role: "viewer"}))
	assert.False(t, set.Eligible(Actor{ID: "eve", Role: "maker"}))
}
