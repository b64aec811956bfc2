package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	ok := PingerFunc(func(context.Context) error { return nil })
	down := PingerFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		checks     map[string]Pinger
		path       string
		wantStatus int
		wantChecks map[string]string
	}{
		{"live ignores dependencies", map[string]Pinger{"database": down}, "/health", http.StatusOK, nil},
		{"ready", map[string]Pinger{"database": ok, "redis": ok}, "/health/ready", http.StatusOK,
			map[string]string{"database": "ok", "redis": "ok"}},
		{"ready with a failing dependency", map[string]Pinger{"database": ok, "redis": down}, "/health/ready", http.StatusServiceUnavailable,
			map[string]string{"database": "ok", "redis": "error"}},
		{"nil pinger skipped", map[string]Pinger{"database": ok, "redis": nil}, "/health/ready", http.StatusOK,
			map[string]string{"database": "ok"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.checks)
			engine := gin.New()
			engine.GET("/health", h.Live)
			engine.GET("/health/ready", h.Ready)

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantChecks, resp.Checks)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "healthy", resp.Status)
			} else {
				assert.Equal(t, "unhealthy", resp.Status)
			}
		})
	}
}
