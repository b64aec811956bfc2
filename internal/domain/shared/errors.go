package shared

import (
	"errors"
	"fmt"
	"strings"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so sentinels match
// errors built with a different message.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrMissingActor        = NewDomainError("MISSING_ACTOR", "An authenticated actor is required")
	ErrDuplicateRequest    = NewDomainError("DUPLICATE_REQUEST", "This request has already been processed")
)

// ErrorKind classifies errors for callers that only care about the failure family.
type ErrorKind string

const (
	KindValidation        ErrorKind = "ValidationError"
	KindInvalidTransition ErrorKind = "InvalidTransition"
	KindNotFound          ErrorKind = "NotFound"
	KindConflict          ErrorKind = "Conflict"
	KindUnauthenticated   ErrorKind = "Unauthenticated"
	KindPersistence       ErrorKind = "PersistenceError"
	KindUpstream          ErrorKind = "UpstreamError"
)

// preconditionCodes are business-rule guard rejections.
var preconditionCodes = map[string]bool{
	"INVALID_TRANSITION":     true,
	"INVALID_STATE":          true,
	"INVOICE_NOT_LINKED":     true,
	"INVOICE_NOT_EDITABLE":   true,
	"ORDER_NOT_MODIFIABLE":   true,
	"ORDER_NOT_DELETABLE":    true,
	"ORDER_NOT_RECEIVABLE":   true,
	"INSUFFICIENT_STOCK":     true,
	"ORDER_NOT_INVOICEABLE":  true,
	"INVOICE_ALREADY_EXISTS": true,
}

// KindOf classifies an error. Unknown errors are treated as persistence failures
// because they surface from the store or the runtime.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var upstream interface{ Upstream() bool }
	if errors.As(err, &upstream) && upstream.Upstream() {
		return KindUpstream
	}

	var pe *PersistenceError
	if errors.As(err, &pe) {
		return KindPersistence
	}

	var de *DomainError
	if !errors.As(err, &de) {
		return KindPersistence
	}

	switch {
	case de.Code == ErrNotFound.Code || strings.HasSuffix(de.Code, "_NOT_FOUND"):
		return KindNotFound
	case de.Code == ErrMissingActor.Code || de.Code == ErrUnauthorized.Code:
		return KindUnauthenticated
	case de.Code == ErrConcurrencyConflict.Code || de.Code == ErrDuplicateRequest.Code ||
		de.Code == "STALE_QUANTITY_BEFORE":
		return KindConflict
	case preconditionCodes[de.Code] || strings.HasPrefix(de.Code, "CANCELLATION_BLOCKED_"):
		return KindInvalidTransition
	default:
		return KindValidation
	}
}

// PersistenceError wraps a store failure with the operation that produced it.
type PersistenceError struct {
	Op  string
	Err error
}

// NewPersistenceError wraps err. Domain errors pass through unchanged so guard
// rejections raised inside a transaction keep their code.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		return err
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
