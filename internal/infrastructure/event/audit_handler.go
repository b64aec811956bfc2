package event

import (
	"context"

	"github.com/verone/backoffice/internal/domain/shared"
	"github.com/verone/backoffice/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// actorCarrier is implemented by events built on shared.BaseDomainEvent
type actorCarrier interface {
	Actor() string
}

// AuditLogHandler writes one structured log line per domain event. It is the
// audit trail for order transitions, ledger entries and invoice syncs.
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates an AuditLogHandler
func NewAuditLogHandler(log *zap.Logger) *AuditLogHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuditLogHandler{logger: log.Named("audit")}
}

// Handle logs the event
func (h *AuditLogHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", ev.EventType()),
		zap.String("event_id", ev.EventID().String()),
		zap.String("aggregate_type", ev.AggregateType()),
		zap.String("aggregate_id", ev.AggregateID().String()),
		zap.Time("occurred_at", ev.OccurredAt()),
	}
	if a, ok := ev.(actorCarrier); ok {
		fields = append(fields, zap.String("actor_id", a.Actor()))
	}
	if id := logger.GetRequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	h.logger.Info("domain event", fields...)
	return nil
}

// EventTypes is empty: the handler receives every event
func (h *AuditLogHandler) EventTypes() []string { return nil }
