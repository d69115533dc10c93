package core

import "context"

// RefKind names a kind of configuration object for reference checks.
type RefKind string

const (
	RefAttribute RefKind = "attribute"
	RefRule      RefKind = "rule"
	RefRequest   RefKind = "request"
)

// Committer applies an approved change to the entity store.
// It is called exactly once per request that reaches approved.
type Committer interface {
	Commit(ctx context.Context, req *ApprovalRequest) error
}

// CommitFunc adapts a function to the Committer interface.
type CommitFunc func(ctx context.Context, req *ApprovalRequest) error

func (f CommitFunc) Commit(ctx context.Context, req *ApprovalRequest) error {
	return f(ctx, req)
}

// Directory resolves roles to the identities currently holding them.
// Implementations: static config directory, external user service.
type Directory interface {
	// Members returns the identities holding the given role.
	Members(ctx context.Context, role string) ([]string, error)
}

// ReferenceChecker reports whether entities outside the engine still use an
// attribute or rule. It is implemented by the entity store.
type ReferenceChecker interface {
	IsReferenced(ctx context.Context, kind RefKind, id string) (bool, error)
}
