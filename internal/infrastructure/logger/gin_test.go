package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(base *zap.Logger, requestID string) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if requestID != "" {
			c.Set(RequestIDContextKey, requestID)
		}
		c.Next()
	})
	r.Use(Recovery(base), GinMiddleware(base))
	return r
}

func TestGinMiddleware_LogLevelFollowsStatus(t *testing.T) {
	cases := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusUnprocessableEntity, zapcore.WarnLevel},
		{http.StatusServiceUnavailable, zapcore.ErrorLevel},
	}
	for _, tc := range cases {
		base, logs := observed()
		r := newEngine(base, "req-1")
		r.GET("/orders/:id", func(c *gin.Context) { c.Status(tc.status) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/42", nil))

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, tc.level, entry.Level)
		fields := entry.ContextMap()
		assert.Equal(t, int64(tc.status), fields["status"])
		assert.Equal(t, "/orders/42", fields["path"])
		assert.Equal(t, "/orders/:id", fields["route"])
		assert.Equal(t, "req-1", fields["request_id"])
	}
}

func TestGinMiddleware_StoresRequestLogger(t *testing.T) {
	base, logs := observed()
	r := newEngine(base, "req-9")
	r.POST("/receptions", func(c *gin.Context) {
		assert.Equal(t, "req-9", GetRequestID(c.Request.Context()))
		L(c.Request.Context()).Info("inside handler")
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/receptions", nil))

	require.Equal(t, 2, logs.Len())
	inner := logs.FilterMessage("inside handler").All()
	require.Len(t, inner, 1)
	assert.Equal(t, "req-9", inner[0].ContextMap()["request_id"])
	assert.Equal(t, "POST", inner[0].ContextMap()["method"])
}

func TestGinMiddleware_RecordsHandlerErrors(t *testing.T) {
	base, logs := observed()
	r := newEngine(base, "")
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
		c.Status(http.StatusBadRequest)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	fields := logs.All()[0].ContextMap()
	assert.Contains(t, fields, "errors")
}

func TestRecovery(t *testing.T) {
	base, logs := observed()
	r := newEngine(base, "req-panic")
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	recovered := logs.FilterMessage("panic recovered").All()
	require.Len(t, recovered, 1)
	assert.Equal(t, "req-panic", recovered[0].ContextMap()["request_id"])
}
