package core

import "context"

// RequestFilter selects approval requests in listings. Nil filters match everything.
type RequestFilter func(r *ApprovalRequest) bool

// RequestStore keeps approval requests. Requests are never deleted.
// A request reaching approval is saved as approved before its changes are
// committed; a failed commit saves the pending state back.
type RequestStore interface {
	// Save inserts or replaces a request
	Save(ctx context.Context, req *ApprovalRequest) error

	// Get returns a copy of the request or an error wrapping ErrNotFound
	Get(ctx context.Context, id string) (*ApprovalRequest, error)

	// List returns copies of all requests accepted by every filter, in submission order
	List(ctx context.Context, filters ...RequestFilter) ([]*ApprovalRequest, error)
}
