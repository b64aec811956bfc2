package dto

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/verone/backoffice/internal/domain/shared"
)

type providerErr struct{}

func (providerErr) Error() string  { return "qonto: SERVER_ERROR (HTTP 503): unavailable" }
func (providerErr) Upstream() bool { return true }

func TestFromError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", shared.NewDomainError("EMPTY_ORDER", "An order needs at least one line"), http.StatusBadRequest, "EMPTY_ORDER"},
		{"transition", shared.NewDomainError("INVALID_TRANSITION", "draft cannot become shipped"), http.StatusUnprocessableEntity, "INVALID_TRANSITION"},
		{"cancellation blocked", shared.NewDomainError("CANCELLATION_BLOCKED_PAID", "paid"), http.StatusUnprocessableEntity, "CANCELLATION_BLOCKED_PAID"},
		{"not found", fmt.Errorf("load: %w", shared.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"typed not found", shared.NewDomainError("PRODUCT_NOT_FOUND", "no product"), http.StatusNotFound, "PRODUCT_NOT_FOUND"},
		{"conflict", shared.ErrConcurrencyConflict, http.StatusConflict, "CONCURRENCY_CONFLICT"},
		{"duplicate", shared.ErrDuplicateRequest, http.StatusConflict, "DUPLICATE_REQUEST"},
		{"missing actor", shared.ErrMissingActor, http.StatusUnauthorized, "MISSING_ACTOR"},
		{"persistence", shared.NewPersistenceError("append movement", errors.New("connection reset")), http.StatusInternalServerError, ErrCodeInternal},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternal},
		{"upstream", fmt.Errorf("create invoice: %w", providerErr{}), http.StatusBadGateway, ErrCodeUpstream},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, info := FromError(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, info.Code)
			assert.NotEmpty(t, info.Message)
		})
	}
}

func TestFromError_HidesPersistenceCause(t *testing.T) {
	_, info := FromError(shared.NewPersistenceError("save order", errors.New("password authentication failed for user")))
	assert.NotContains(t, info.Message, "password")
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]int{1, 2}, 41, 2, 20)
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	resp = NewSuccessResponseWithMeta(nil, 0, 1, 0)
	assert.Equal(t, 0, resp.Meta.TotalPages)
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-1", []ValidationDetail{{Field: "status", Message: "is required"}})
	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 1)
}
