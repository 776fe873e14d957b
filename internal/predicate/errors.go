package predicate

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes migration failures.
type ErrorCode string

const (
	// ErrCodeUnsupportedPredicate indicates an old operator with no new-form
	// equivalent (exists) or an unrecognized/malformed predicate.
	ErrCodeUnsupportedPredicate ErrorCode = "UNSUPPORTED_PREDICATE"

	// ErrCodeIncompatiblePredicates indicates a union with no closed form in
	// the new vocabulary, or operands whose values differ.
	ErrCodeIncompatiblePredicates ErrorCode = "INCOMPATIBLE_PREDICATES"

	// ErrCodeStructural indicates an old tree that violates the binary split
	// shape: wrong branch count, mismatched features, non-complementary
	// predicates.
	ErrCodeStructural ErrorCode = "STRUCTURAL_ERROR"
)

// Reason strings carried by Error.Message.
const (
	MsgComplexPredicate = "can't migrate complex predicate"
)

// Error is a migration failure. Every failure is terminal for the record
// being processed.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is the human-readable reason.
	Message string

	// Path locates the failing node from the tree root, e.g. "left.right".
	// Empty for failures at the root or outside a tree.
	Path string

	// Details contains additional context.
	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (at %s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// At returns a copy of e located one level deeper under segment.
func (e *Error) At(segment string) *Error {
	cp := *e
	if cp.Path == "" {
		cp.Path = segment
	} else {
		cp.Path = segment + "." + cp.Path
	}
	return &cp
}

// CodeOf returns the ErrorCode carried by err, or "" if err is not an *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsUnsupported returns true if err is an unsupported predicate error.
func IsUnsupported(err error) bool {
	return CodeOf(err) == ErrCodeUnsupportedPredicate
}

// IsIncompatible returns true if err is an incompatible predicates error.
func IsIncompatible(err error) bool {
	return CodeOf(err) == ErrCodeIncompatiblePredicates
}

// IsStructural returns true if err is a structural error.
func IsStructural(err error) bool {
	return CodeOf(err) == ErrCodeStructural
}

// NewUnsupportedError creates an Error for an operator tag with no
// new-form equivalent.
func NewUnsupportedError(tag string) *Error {
	return &Error{
		Code:    ErrCodeUnsupportedPredicate,
		Message: fmt.Sprintf("unsupported predicate %q", tag),
		Details: map[string]string{"operator": tag},
	}
}

// NewMalformedError creates an Error for an old predicate that cannot be
// decoded.
func NewMalformedError(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeUnsupportedPredicate,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewIncompatibleError creates an Error for a union with no closed form.
func NewIncompatibleError(lhs, rhs New) *Error {
	return &Error{
		Code:    ErrCodeIncompatiblePredicates,
		Message: MsgComplexPredicate,
		Details: map[string]string{
			"lhs": lhs.String(),
			"rhs": rhs.String(),
		},
	}
}

// NewStructuralError creates an Error for a tree shape violation.
func NewStructuralError(message string) *Error {
	return &Error{
		Code:    ErrCodeStructural,
		Message: message,
	}
}
