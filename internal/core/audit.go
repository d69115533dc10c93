package core

import "time"

// audit actions
const (
	AuditRequestSubmit   = "request.submit"
	AuditRequestAuto     = "request.auto_commit"
	AuditRequestDecide   = "request.decide"
	AuditRequestWithdraw = "request.withdraw"
	AuditRequestExpire   = "request.expire"
	AuditRequestCommit   = "request.commit"
	AuditRuleCreate      = "rule.create"
	AuditRuleUpdate      = "rule.update"
	AuditRuleDelete      = "rule.delete"
	AuditRuleStale       = "rule.stale"
	AuditAttributeCreate = "attribute.create"
	AuditAttributeUpdate = "attribute.update"
	AuditAttributeDelete = "attribute.delete"
)

type AuditEntry struct {
	// ID is the correlation ID of the call that caused the entry (X-Correlation-ID)
	ID string `json:"id"`

	// Time is the timestamp of the event
	Time time.Time `json:"time"`

	// Action describing what happened (e.g. "request.decide", "rule.update")
	Action string `json:"action"`

	// Actor identifies who made the call
	Actor *Actor `json:"actor,omitempty"`

	RequestID  string `json:"request_id,omitempty"`
	RuleID     string `json:"rule_id,omitempty"`
	EntityType string `json:"entity_type,omitempty"`

	// Decision details
	Decision Decision `json:"decision,omitempty"`
	Status   Status   `json:"status,omitempty"`
	Success  bool     `json:"success"`
	Error    string   `json:"error,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

type Auditor interface {
	Log(entry AuditEntry) error
	Close() error
}
