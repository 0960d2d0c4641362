// Package apperr defines the domain error taxonomy shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation and HTTP mapping
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindAuthorization
	KindNotFound
	KindDuplicate
	KindStateConflict
	KindRateLimit
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindDuplicate:
		return "duplicate"
	case KindStateConflict:
		return "state_conflict"
	case KindRateLimit:
		return "rate_limit"
	default:
		return "internal"
	}
}

// Machine-readable error codes
const (
	CodeInvalidInput         = "invalid_input"
	CodeUnauthenticated      = "unauthenticated"
	CodeForbidden            = "forbidden"
	CodeNotOwner             = "not_owner"
	CodeSelfReport           = "self_report"
	CodeCommentNotFound      = "comment_not_found"
	CodeArticleNotFound      = "article_not_found"
	CodeParentNotFound       = "parent_not_found"
	CodeLikeNotFound         = "like_not_found"
	CodeNotificationNotFound = "notification_not_found"
	CodeAlreadyLiked         = "already_liked"
	CodeAlreadyReported      = "already_reported"
	CodeDuplicateContent     = "duplicate_content"
	CodeEditWindowExpired    = "edit_window_expired"
	CodeInvalidState         = "invalid_state"
	CodeAlreadyDeleted       = "already_deleted"
	CodeCommentsClosed       = "comments_closed"
	CodeContentBlocked       = "content_blocked"
	CodeRateLimited          = "rate_limited"
	CodeInternal             = "internal_error"
)

// FieldError describes a single invalid input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a classified domain error
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Validation returns a validation error carrying every field problem
func Validation(fields []FieldError) *Error {
	e := newError(KindValidation, CodeInvalidInput, "validation failed")
	e.Fields = fields
	return e
}

// Invalid returns a validation error for a single field
func Invalid(field, msg string) *Error {
	return Validation([]FieldError{{Field: field, Message: msg}})
}

// Unauthenticated is returned when an identity is required but missing
func Unauthenticated(msg string) *Error {
	return newError(KindUnauthenticated, CodeUnauthenticated, msg)
}

// Forbidden returns an authorization error with the given code
func Forbidden(code, msg string) *Error {
	return newError(KindAuthorization, code, msg)
}

// NotFound returns a not-found error with the given code
func NotFound(code, msg string) *Error {
	return newError(KindNotFound, code, msg)
}

// Duplicate returns a duplicate error with the given code
func Duplicate(code, msg string) *Error {
	return newError(KindDuplicate, code, msg)
}

// Conflict returns a state-conflict error with the given code
func Conflict(code, msg string) *Error {
	return newError(KindStateConflict, code, msg)
}

// RateLimited returns a rate-limit error
func RateLimited(msg string) *Error {
	return newError(KindRateLimit, CodeRateLimited, msg)
}

// Internal wraps an unexpected error
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: "internal error", Err: err}
}

// As returns the *Error in err's chain, if any
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err, KindInternal for unclassified errors
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the code of err, or "" for unclassified errors
func CodeOf(err error) string {
	if e, ok := As(err); ok {
		return e.Code
	}
	return ""
}

// Is reports whether err is a domain error of kind k
func Is(err error, k Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == k
}
