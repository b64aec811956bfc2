package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verone/backoffice/internal/domain/shared"
	"github.com/verone/backoffice/internal/infrastructure/invoicing"
	"github.com/verone/backoffice/internal/interfaces/http/dto"
	"github.com/verone/backoffice/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

type bindTarget struct {
	Name  string `json:"name" binding:"required,max=5"`
	Count int    `json:"count"`
}

func serve(t *testing.T, method, body string, h gin.HandlerFunc) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Handle(method, "/things/:id", h)

	req := httptest.NewRequest(method, "/things/abc", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var resp dto.Response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", shared.NewDomainError("ORDER_NOT_FOUND", "Order not found"), http.StatusNotFound, "ORDER_NOT_FOUND"},
		{"invalid transition", shared.NewDomainError("INVALID_TRANSITION", "nope"), http.StatusUnprocessableEntity, "INVALID_TRANSITION"},
		{"conflict", shared.ErrConcurrencyConflict, http.StatusConflict, "CONCURRENCY_CONFLICT"},
		{"validation", shared.NewDomainError("INVALID_QUANTITY", "bad"), http.StatusBadRequest, "INVALID_QUANTITY"},
		{"persistence", shared.NewPersistenceError("save order", errors.New("pq: connection refused")), http.StatusInternalServerError, dto.ErrCodeInternal},
		{"upstream", &invoicing.ProviderError{Status: 503, Code: invoicing.ErrCodeServer, Detail: "down"}, http.StatusBadGateway, dto.ErrCodeUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			w, resp := serve(t, http.MethodGet, "", func(c *gin.Context) { h.HandleError(c, tt.err) })

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}

func TestBaseHandler_HandleError_HidesPersistenceCause(t *testing.T) {
	h := &BaseHandler{}
	w, _ := serve(t, http.MethodGet, "", func(c *gin.Context) {
		h.HandleError(c, shared.NewPersistenceError("save order", errors.New("pq: password authentication failed")))
	})
	assert.NotContains(t, w.Body.String(), "password")
}

func TestBaseHandler_BindJSON(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantOK     bool
		wantCode   string
		wantDetail string
	}{
		{name: "valid", body: `{"name":"abc"}`, wantOK: true},
		{name: "missing required", body: `{}`, wantCode: dto.ErrCodeValidation, wantDetail: "name"},
		{name: "too long", body: `{"name":"abcdefgh"}`, wantCode: dto.ErrCodeValidation, wantDetail: "name"},
		{name: "syntax error", body: `{"name":`, wantCode: dto.ErrCodeInvalidJSON},
		{name: "empty body", body: ``, wantCode: dto.ErrCodeInvalidJSON},
		{name: "wrong type", body: `{"name":"a","count":"x"}`, wantCode: dto.ErrCodeInvalidJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			var ok bool
			w, resp := serve(t, http.MethodPost, tt.body, func(c *gin.Context) {
				var req bindTarget
				ok = h.bindJSON(c, &req)
				if ok {
					h.Success(c, req)
				}
			})

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, http.StatusOK, w.Code)
				return
			}
			assert.Equal(t, http.StatusBadRequest, w.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			if tt.wantDetail != "" {
				assert.Contains(t, w.Body.String(), `"field":"`+tt.wantDetail+`"`)
			}
		})
	}
}

func TestBaseHandler_BindJSON_BodyTooLarge(t *testing.T) {
	h := &BaseHandler{}
	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.BodyLimit(16))
	engine.POST("/things", func(c *gin.Context) {
		var req bindTarget
		if h.bindJSON(c, &req) {
			h.Success(c, req)
		}
	})

	req := httptest.NewRequest(http.MethodPost, "/things", strings.NewReader(`{"name":"`+strings.Repeat("a", 64)+`"}`))
	req.ContentLength = -1
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestBaseHandler_ParseID(t *testing.T) {
	h := &BaseHandler{}
	w, resp := serve(t, http.MethodGet, "", func(c *gin.Context) {
		if _, ok := h.parseID(c, "id"); ok {
			h.NoContent(c)
		}
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Invalid id format", resp.Error.Message)
}

func TestBaseHandler_IdempotencyKey(t *testing.T) {
	h := &BaseHandler{}
	engine := gin.New()
	engine.POST("/things", func(c *gin.Context) {
		key, ok := h.idempotencyKey(c)
		if ok {
			c.String(http.StatusOK, key)
		}
	})

	t.Run("accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/things", nil)
		req.Header.Set(IdempotencyKeyHeader, "retry-1")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "retry-1", w.Body.String())
	})

	t.Run("too long", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/things", nil)
		req.Header.Set(IdempotencyKeyHeader, strings.Repeat("k", MaxIdempotencyKeyLength+1))
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
