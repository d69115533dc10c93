package store

import (
	"context"
	"sync"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

var _ core.RequestStore = (*InMemoryRequestStore)(nil)

// InMemoryRequestStore keeps approval requests in submission order.
type InMemoryRequestStore struct {
	mu       sync.RWMutex
	requests []*core.ApprovalRequest
	byID     map[string]int
}

func NewInMemoryRequestStore() *InMemoryRequestStore {
	return &InMemoryRequestStore{
		requests: make([]*core.ApprovalRequest, 0),
		byID:     make(map[string]int),
	}
}

func (s *InMemoryRequestStore) Save(_ context.Context, req *core.ApprovalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.byID[req.ID]; ok {
		s.requests[idx] = req.Clone()
		return nil
	}
	s.byID[req.ID] = len(s.requests)
	s.requests = append(s.requests, req.Clone())
	return nil
}

func (s *InMemoryRequestStore) Get(_ context.Context, id string) (*core.ApprovalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok {
		return nil, core.NotFound(core.RefRequest, id)
	}
	return s.requests[idx].Clone(), nil
}

func (s *InMemoryRequestStore) List(_ context.Context, filters ...core.RequestFilter) ([]*core.ApprovalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]*core.ApprovalRequest, 0)
outer:
	for _, r := range s.requests {
		for _, f := range filters {
			if f != nil && !f(r) {
				continue outer
			}
		}
		matches = append(matches, r.Clone())
	}

	return matches, nil
}
