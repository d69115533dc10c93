package audit

import (
	"sync"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

var _ core.Auditor = (*InMemoryAuditor)(nil)

// MemoryOptions configures the in-memory auditor.
type MemoryOptions struct {
	// Limit is the number of entries kept, older entries are dropped. 0 keeps everything.
	Limit int `mapstructure:"limit"`
}

// InMemoryAuditor is an auditor that stores audit logs in memory.
type InMemoryAuditor struct {
	mu      sync.Mutex
	entries []core.AuditEntry
	limit   int
}

func NewInMemoryAuditor() *InMemoryAuditor {
	return NewInMemoryAuditorWithOptions(MemoryOptions{})
}

func NewInMemoryAuditorWithOptions(opts MemoryOptions) *InMemoryAuditor {
	return &InMemoryAuditor{
		entries: make([]core.AuditEntry, 0),
		limit:   opts.Limit,
	}
}

func (i *InMemoryAuditor) Log(entry core.AuditEntry) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.entries = append(i.entries, entry)
	if i.limit > 0 && len(i.entries) > i.limit {
		i.entries = append([]core.AuditEntry(nil), i.entries[len(i.entries)-i.limit:]...)
	}
	return nil
}

// GetRecent returns the last limit entries, oldest first.
func (i *InMemoryAuditor) GetRecent(limit int) ([]core.AuditEntry, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if limit > len(i.entries) || limit <= 0 {
		limit = len(i.entries)
	}
	start := len(i.entries) - limit
	entries := make([]core.AuditEntry, limit)
	copy(entries, i.entries[start:])

	return entries, nil
}

// Find returns the last limit entries accepted by the filter, oldest first.
func (i *InMemoryAuditor) Find(filter Filter, limit int) ([]core.AuditEntry, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	var matches []core.AuditEntry
	for _, entry := range i.entries {
		if filter == nil || filter(entry) {
			matches = append(matches, entry)
		}
	}

	if limit > 0 && len(matches) > limit {
		matches = matches[len(matches)-limit:]
	}

	return matches, nil
}

func (i *InMemoryAuditor) Close() error {
	return nil // nothing to close :)
}
