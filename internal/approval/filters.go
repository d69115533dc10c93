package approval

import "github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"

func WithStatus(status core.Status) core.RequestFilter {
	return func(r *core.ApprovalRequest) bool {
		return r.Status == status
	}
}

func WithEntityType(entityType string) core.RequestFilter {
	return func(r *core.ApprovalRequest) bool {
		return r.EntityType == entityType
	}
}

func WithMaker(makerID string) core.RequestFilter {
	return func(r *core.ApprovalRequest) bool {
		return r.Maker.ID == makerID
	}
}

func WithRule(ruleID string) core.RequestFilter {
	return func(r *core.ApprovalRequest) bool {
		return r.RuleID == ruleID
	}
}

// AwaitingDecisionBy selects pending requests the actor may still approve.
func AwaitingDecisionBy(actor core.Actor) core.RequestFilter {
	return func(r *core.ApprovalRequest) bool {
		return r.Status == core.StatusPending &&
			r.Maker.ID != actor.ID &&
			r.Checkers.Eligible(actor) &&
			!r.HasDecision(actor.ID, core.DecisionApprove)
	}
}
