package engine

import (
	"sync"
	"sync/atomic"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

// Manager publishes engine snapshots. Readers never block on writers:
// a matcher keeps using the snapshot it loaded even if the rules change meanwhile.
type Manager struct {
	currentEngine atomic.Pointer[Engine]
	mu            sync.Mutex
}

func NewManager(initialRules []core.Rule) *Manager {
	m := &Manager{}
	m.currentEngine.Store(New(initialRules))
	return m
}

func (m *Manager) Engine() *Engine {
	return m.currentEngine.Load()
}

// Update replaces the published snapshot with one built from newRules.
// The rules must already be validated.
func (m *Manager) Update(newRules []core.Rule) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.currentEngine.Store(New(newRules))
}
