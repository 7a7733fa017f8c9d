package ir

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes SuQL errors.
type ErrorCode string

const (
	// ErrCodeConfiguration indicates a malformed relationship declaration.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION"

	// ErrCodeUnresolvedJoin indicates two consecutive tables have no declared relationship.
	ErrCodeUnresolvedJoin ErrorCode = "UNRESOLVED_JOIN"

	// ErrCodeUnknownQuery indicates a reference to a query absent from the store.
	ErrCodeUnknownQuery ErrorCode = "UNKNOWN_QUERY_REFERENCE"

	// ErrCodeComposition indicates cyclic nesting detected while composing.
	ErrCodeComposition ErrorCode = "COMPOSITION"
)

// Error is the single error type reported by the SuQL core.
//
// All errors are synchronous: they surface from the operation that detects
// them (relationship declaration, join addition, compose request). Nothing is
// retried because nothing does I/O.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Query names the query being built or composed, if any.
	Query string

	// Path is the reference chain for composition errors.
	Path []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case len(e.Path) > 0:
		return fmt.Sprintf("%s: %s (path=%s)", e.Code, e.Message, strings.Join(e.Path, " -> "))
	case e.Query != "":
		return fmt.Sprintf("%s: %s (query=%s)", e.Code, e.Message, e.Query)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// NewConfigurationError creates an Error for a malformed relationship.
func NewConfigurationError(format string, args ...any) *Error {
	return &Error{Code: ErrCodeConfiguration, Message: fmt.Sprintf(format, args...)}
}

// NewUnresolvedJoinError creates an Error for a join with no relationship.
func NewUnresolvedJoinError(from, to string) *Error {
	return &Error{
		Code:    ErrCodeUnresolvedJoin,
		Message: fmt.Sprintf("no relationship declared between %s and %s", from, to),
	}
}

// NewUnknownQueryError creates an Error for a missing query reference.
func NewUnknownQueryError(query, ref string) *Error {
	return &Error{
		Code:    ErrCodeUnknownQuery,
		Message: fmt.Sprintf("unknown query %q", ref),
		Query:   query,
	}
}

// NewCompositionError creates an Error for cyclic nesting along path.
func NewCompositionError(path []string) *Error {
	return &Error{
		Code:    ErrCodeComposition,
		Message: "cyclic query nesting",
		Path:    append([]string(nil), path...),
	}
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsConfiguration returns true if err is a configuration error.
func IsConfiguration(err error) bool { return hasCode(err, ErrCodeConfiguration) }

// IsUnresolvedJoin returns true if err is an unresolved join error.
func IsUnresolvedJoin(err error) bool { return hasCode(err, ErrCodeUnresolvedJoin) }

// IsUnknownQuery returns true if err is an unknown query reference error.
func IsUnknownQuery(err error) bool { return hasCode(err, ErrCodeUnknownQuery) }

// IsComposition returns true if err is a composition (cycle) error.
func IsComposition(err error) bool { return hasCode(err, ErrCodeComposition) }
