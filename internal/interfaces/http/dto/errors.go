package dto

import (
	"errors"
	"net/http"

	"github.com/verone/backoffice/internal/domain/shared"
)

// Codes produced by the HTTP layer itself. Domain rejections keep their own code.
const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeInvalidJSON  = "INVALID_JSON"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeUpstream     = "UPSTREAM_ERROR"
	ErrCodeBodyTooLarge = "REQUEST_TOO_LARGE"
)

// KindHTTPStatus maps an error family to its HTTP status
var KindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindValidation:        http.StatusBadRequest,
	shared.KindUnauthenticated:   http.StatusUnauthorized,
	shared.KindNotFound:          http.StatusNotFound,
	shared.KindInvalidTransition: http.StatusUnprocessableEntity,
	shared.KindConflict:          http.StatusConflict,
	shared.KindPersistence:       http.StatusInternalServerError,
	shared.KindUpstream:          http.StatusBadGateway,
}

// upstreamDetails is implemented by invoicing provider errors
type upstreamDetails interface {
	error
	Upstream() bool
}

// FromError returns the status and error body for err. Persistence failures
// are reported without their cause.
func FromError(err error) (int, ErrorInfo) {
	kind := shared.KindOf(err)
	status, ok := KindHTTPStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	switch kind {
	case shared.KindPersistence:
		return status, ErrorInfo{Code: ErrCodeInternal, Message: "An unexpected error occurred"}
	case shared.KindUpstream:
		var up upstreamDetails
		errors.As(err, &up)
		return status, ErrorInfo{Code: ErrCodeUpstream, Message: up.Error()}
	}

	var de *shared.DomainError
	if errors.As(err, &de) {
		return status, ErrorInfo{Code: de.Code, Message: de.Message}
	}
	return http.StatusInternalServerError, ErrorInfo{Code: ErrCodeInternal, Message: "An unexpected error occurred"}
}
