package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
)

func otelMiddlewareWith(tp trace.TracerProvider) gin.HandlerFunc {
	return otelgin.Middleware("backoffice-test", otelgin.WithTracerProvider(tp))
}
