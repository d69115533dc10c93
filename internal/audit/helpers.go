package audit

import "github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"

// Filter selects audit entries.
type Filter func(entry core.AuditEntry) bool

// Reader is implemented by auditors that can be queried.
type Reader interface {
	Find(filter Filter, limit int) ([]core.AuditEntry, error)
}

var (
	_ Reader = (*InMemoryAuditor)(nil)
	_ Reader = (*FileAuditor)(nil)
)

// ForRequest selects the entries of one approval request.
func ForRequest(id string) Filter {
	return func(entry core.AuditEntry) bool {
		return entry.RequestID == id
	}
}

// ForRule selects the entries of one rule.
func ForRule(id string) Filter {
	return func(entry core.AuditEntry) bool {
		return entry.RuleID == id
	}
}

// ForActor selects the entries caused by one actor.
func ForActor(id string) Filter {
	return func(entry core.AuditEntry) bool {
		return entry.Actor != nil && entry.Actor.ID == id
	}
}

// All combines filters, an entry must pass every one of them.
func All(filters ...Filter) Filter {
	return func(entry core.AuditEntry) bool {
		for _, f := range filters {
			if f != nil && !f(entry) {
				return false
			}
		}
		return true
	}
}
