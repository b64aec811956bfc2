package finance

import (
	"context"

	"github.com/google/uuid"
	appshared "github.com/verone/backoffice/internal/application/shared"
	apptrade "github.com/verone/backoffice/internal/application/trade"
	"github.com/verone/backoffice/internal/domain/finance"
	"github.com/verone/backoffice/internal/domain/shared"
	"github.com/verone/backoffice/internal/domain/trade"
	"github.com/verone/backoffice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DocumentSyncService pushes an edited invoice back onto its sales order
type DocumentSyncService struct {
	txScope         appshared.TransactionScope
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
	logger          *zap.Logger
}

// NewDocumentSyncService creates a new DocumentSyncService
func NewDocumentSyncService(txScope appshared.TransactionScope, logger *zap.Logger) *DocumentSyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentSyncService{txScope: txScope, logger: logger}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *DocumentSyncService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *DocumentSyncService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// SyncToOrder overwrites the linked order's lines, fees, addresses, contacts
// and totals from the document. Header and lines commit together or not at all.
func (s *DocumentSyncService) SyncToOrder(ctx context.Context, documentID uuid.UUID, actor shared.Actor) (*SyncResultResponse, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}

	var order *trade.SalesOrder
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		doc, err := repos.DocumentRepo().FindByID(ctx, documentID)
		if err != nil {
			return err
		}
		if err := doc.EnsureLinked(); err != nil {
			return err
		}
		if err := doc.EnsureEditable(); err != nil {
			return err
		}

		orderRepo := repos.SalesOrderRepo()
		order, err = orderRepo.FindByID(ctx, *doc.SalesOrderID, true)
		if err != nil {
			return err
		}

		plan, err := finance.PlanOrderSync(doc, order)
		if err != nil {
			return err
		}
		if err := plan.Apply(order, actor); err != nil {
			return err
		}
		if err := orderRepo.Save(ctx, order); err != nil {
			return err
		}
		return orderRepo.ReplaceItems(ctx, order.ID, order.Items)
	})
	if err != nil {
		if s.businessMetrics != nil {
			s.businessMetrics.RecordDocumentSync(ctx, false)
		}
		s.logger.Info("document sync rejected",
			zap.String("document_id", documentID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("document synced to order",
		zap.String("document_id", documentID.String()),
		zap.String("order_id", order.ID.String()),
		zap.Int("lines", len(order.Items)),
		zap.String("total_ttc", order.Totals.GrossTTC.String()),
	)

	events := order.GetDomainEvents()
	order.ClearDomainEvents()
	if s.eventPublisher != nil && len(events) > 0 {
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Error("failed to publish sync events", zap.Error(err))
		}
	}
	if s.businessMetrics != nil {
		s.businessMetrics.RecordDocumentSync(ctx, true)
	}

	return &SyncResultResponse{DocumentID: documentID, Order: apptrade.ToSalesOrderResponse(order)}, nil
}
