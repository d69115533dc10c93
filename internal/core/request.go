package core

import (
	"sort"
	"time"
)

// Action is the kind of change proposed for an entity.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

func (a Action) IsValid() bool {
	return a == ActionCreate || a == ActionUpdate || a == ActionDelete
}

// Status is the lifecycle state of an ApprovalRequest.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
)

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusWithdrawn
}

// Decision is the kind of a decision log entry.
type Decision string

const (
	DecisionApprove  Decision = "approve"
	DecisionReject   Decision = "reject"
	DecisionComment  Decision = "comment"
	DecisionWithdraw Decision = "withdraw"
)

func (d Decision) IsValid() bool {
	return d == DecisionApprove || d == DecisionReject || d == DecisionComment
}

// SystemActor is recorded for transitions not caused by a person (e.g. expiry).
var SystemActor = Actor{ID: "system", Role: "system"}

// DecisionEntry is one entry of a request's decision log.
type DecisionEntry struct {
	Actor    Actor     `json:"actor"`
	Decision Decision  `json:"decision"`
	Comment  string    `json:"comment,omitempty"`
	At       time.Time `json:"at"`
}

// CheckerSet is the snapshot of the matched rule's checkers taken at submission.
// Later edits of the rule do not change it.
type CheckerSet struct {
	Roles []string `json:"roles,omitempty"`
	Users []string `json:"users,omitempty"`

	// Members are the concrete identities (role members plus users) the
	// all_assigned_checkers quorum counts. The maker is never a member.
	Members []string `json:"members,omitempty"`

	Quorum QuorumPolicy `json:"quorum"`
}

// Eligible reports whether the actor may check a request bound to this set.
func (c CheckerSet) Eligible(actor Actor) bool {
	return contains(c.Users, actor.ID) || contains(c.Members, actor.ID) || contains(c.Roles, actor.Role)
}

func (c CheckerSet) clone() CheckerSet {
	return CheckerSet{
		Roles:   append([]string(nil), c.Roles...),
		Users:   append([]string(nil), c.Users...),
		Members: append([]string(nil), c.Members...),
		Quorum:  c.Quorum,
	}
}

// ApprovalRequest is a proposed change and its review lifecycle.
type ApprovalRequest struct {
	ID         string `json:"id"`
	EntityType string `json:"entity_type"`
	Action     Action `json:"action"`
	// EntityID is empty for create.
	EntityID string `json:"entity_id,omitempty"`

	Payload Payload `json:"payload"`
	// Previous holds the values before an update, for diffing.
	Previous Payload `json:"previous,omitempty"`

	Maker       Actor     `json:"maker"`
	SubmittedAt time.Time `json:"submitted_at"`

	RuleID   string     `json:"rule_id"`
	RuleName string     `json:"rule_name"`
	Checkers CheckerSet `json:"checkers"`

	Status    Status          `json:"status"`
	Decisions []DecisionEntry `json:"decisions"`

	// Reason is the rejection comment of a rejected request.
	Reason      string     `json:"reason,omitempty"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func (r *ApprovalRequest) IsTerminal() bool {
	return r.Status.IsTerminal()
}

// HasDecision reports whether the actor already logged the given decision.
func (r *ApprovalRequest) HasDecision(actorID string, d Decision) bool {
	for _, e := range r.Decisions {
		if e.Actor.ID == actorID && e.Decision == d {
			return true
		}
	}
	return false
}

// ApprovedBy returns the distinct identities that approved the request, in log order.
func (r *ApprovalRequest) ApprovedBy() []string {
	var out []string
	for _, e := range r.Decisions {
		if e.Decision == DecisionApprove && !contains(out, e.Actor.ID) {
			out = append(out, e.Actor.ID)
		}
	}
	return out
}

// Outstanding returns the checker identities whose approval is still required.
// It is always empty for the any_one_checker quorum.
func (r *ApprovalRequest) Outstanding() []string {
	if r.Checkers.Quorum != QuorumAll {
		return nil
	}
	approved := r.ApprovedBy()
	var out []string
	for _, m := range r.Checkers.Members {
		if !contains(approved, m) {
			out = append(out, m)
		}
	}
	return out
}

// Change is one attribute difference between the previous and proposed payload.
type Change struct {
	Attribute string `json:"attribute"`
	From      *Value `json:"from,omitempty"`
	To        *Value `json:"to,omitempty"`
}

// Changes lists attributes whose value differs from Previous, sorted by attribute.
func (r *ApprovalRequest) Changes() []Change {
	keys := make(map[string]struct{}, len(r.Payload)+len(r.Previous))
	for k := range r.Payload {
		keys[k] = struct{}{}
	}
	for k := range r.Previous {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var out []Change
	for _, k := range sorted {
		to, hasTo := r.Payload[k]
		from, hasFrom := r.Previous[k]
		if hasTo && hasFrom && to.Equal(from) {
			continue
		}
		c := Change{Attribute: k}
		if hasFrom {
			f := from
			c.From = &f
		}
		if hasTo {
			t := to
			c.To = &t
		}
		out = append(out, c)
	}
	return out
}

func (r *ApprovalRequest) Clone() *ApprovalRequest {
	if r == nil {
		return nil
	}
	out := *r
	out.Payload = r.Payload.Clone()
	out.Previous = r.Previous.Clone()
	out.Checkers = r.Checkers.clone()
	out.Decisions = append([]DecisionEntry(nil), r.Decisions...)
	if r.FinalizedAt != nil {
		t := *r.FinalizedAt
		out.FinalizedAt = &t
	}
	if r.ExpiresAt != nil {
		t := *r.ExpiresAt
		out.ExpiresAt = &t
	}
	return &out
}
