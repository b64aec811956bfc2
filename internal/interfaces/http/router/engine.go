package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/verone/backoffice/internal/infrastructure/logger"
	"github.com/verone/backoffice/internal/interfaces/http/handler"
	"github.com/verone/backoffice/internal/interfaces/http/middleware"
)

// EngineConfig controls the global middleware chain
type EngineConfig struct {
	ServiceName    string
	TracingEnabled bool
	Meter          metric.Meter
	MaxBodySize    int64
	TrustedProxies []string
	SwaggerEnabled bool
}

// NewEngine builds the gin engine. Global middleware runs in this order:
// recovery, request id, tracing, access log, metrics, body limit. The API
// group additionally requires a bearer token.
func NewEngine(cfg EngineConfig, log *zap.Logger, authn middleware.Authenticator, handlers Handlers, health *handler.HealthHandler) (*gin.Engine, error) {
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}

	metrics, err := middleware.HTTPMetrics(cfg.Meter)
	if err != nil {
		return nil, fmt.Errorf("http metrics: %w", err)
	}

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		middleware.Tracing(cfg.ServiceName, cfg.TracingEnabled),
		middleware.SpanEnricher(),
		logger.GinMiddleware(log),
		metrics,
	)
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	if health != nil {
		engine.GET("/health", health.Live)
		engine.GET("/health/ready", health.Ready)
	}
	if cfg.SwaggerEnabled {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r := NewRouter(engine, WithAPIVersion("v1"), WithAPIMiddleware(middleware.Authenticate(authn)))
	for _, group := range handlers.DomainGroups() {
		r.Register(group)
	}
	r.Setup()

	return engine, nil
}
