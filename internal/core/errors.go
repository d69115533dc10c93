package core

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")

	// configuration errors
	ErrValidation           = errors.New("validation error")
	ErrTypeMismatch         = errors.New("type mismatch")
	ErrReferentialIntegrity = errors.New("referential integrity violation")

	// decision errors
	ErrAlreadyFinalized      = errors.New("request already finalized")
	ErrSelfApprovalForbidden = errors.New("makers cannot decide on their own requests")
	ErrNotAuthorized         = errors.New("actor is not authorized")
	ErrCommentRequired       = errors.New("a comment is required")
	ErrDuplicateDecision     = errors.New("actor already approved this request")

	// submission / lifecycle errors
	ErrNoEligibleCheckers = errors.New("no eligible checkers")
	ErrWithdrawNotAllowed = errors.New("request can no longer be withdrawn")
	ErrCommitFailed       = errors.New("committing the approved change failed")
)

// ValidationError is a malformed attribute, rule or condition, rejected before it is stored.
type ValidationError struct {
	// Subject names the offending object, e.g. "rule 'big-orders'".
	Subject string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Subject, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Subject, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// TypeMismatchError is an operator used with an attribute type it cannot compare.
type TypeMismatchError struct {
	Attribute string
	Type      AttributeType
	Operator  Operator
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("operator '%s' cannot be used with attribute '%s' of type '%s'",
		e.Operator, e.Attribute, e.Type)
}

func (e *TypeMismatchError) Unwrap() error {
	return ErrTypeMismatch
}

// ReferentialIntegrityError blocks deleting something that is still referenced.
type ReferentialIntegrityError struct {
	Kind         RefKind
	ID           string
	ReferencedBy []string
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("%s '%s' is still referenced by %v", e.Kind, e.ID, e.ReferencedBy)
}

func (e *ReferentialIntegrityError) Unwrap() error {
	return ErrReferentialIntegrity
}

// NotFound wraps ErrNotFound with the kind and id of the missing object.
func NotFound(kind RefKind, id string) error {
	return fmt.Errorf("%s '%s': %w", kind, id, ErrNotFound)
}
