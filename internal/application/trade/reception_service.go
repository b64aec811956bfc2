package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	appinventory "github.com/verone/backoffice/internal/application/inventory"
	appshared "github.com/verone/backoffice/internal/application/shared"
	"github.com/verone/backoffice/internal/domain/inventory"
	"github.com/verone/backoffice/internal/domain/shared"
	"github.com/verone/backoffice/internal/domain/trade"
	"github.com/verone/backoffice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ReceptionService records goods received against purchase orders. Each
// reception writes its ledger entries and the order's progress atomically.
type ReceptionService struct {
	orderRepo       trade.PurchaseOrderRepository
	ledgerRepo      inventory.StockMovementRepository
	txScope         appshared.TransactionScope
	idempotency     shared.IdempotencyStore
	idempotencyTTL  time.Duration
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
	logger          *zap.Logger
}

// NewReceptionService creates a new ReceptionService
func NewReceptionService(
	orderRepo trade.PurchaseOrderRepository,
	ledgerRepo inventory.StockMovementRepository,
	txScope appshared.TransactionScope,
	logger *zap.Logger,
) *ReceptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceptionService{
		orderRepo:      orderRepo,
		ledgerRepo:     ledgerRepo,
		txScope:        txScope,
		idempotencyTTL: shared.DefaultIdempotencyTTL,
		logger:         logger,
	}
}

// SetIdempotencyStore enables replay protection for requests carrying a key
func (s *ReceptionService) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	s.idempotency = store
	if ttl > 0 {
		s.idempotencyTTL = ttl
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ReceptionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *ReceptionService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// GetPurchaseOrder returns a purchase order with received quantities read from the ledger
func (s *ReceptionService) GetPurchaseOrder(ctx context.Context, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID, false)
	if err != nil {
		return nil, err
	}
	received, err := s.ledgerRepo.SumByReference(ctx, inventory.ReferencePurchaseOrder, order.ID)
	if err != nil {
		return nil, err
	}
	for i := range order.Items {
		order.Items[i].QuantityReceived = received[order.Items[i].ID]
	}
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// Receive records one reception. Nothing is written unless every line passes
// validation; the ledger entries and the order update commit together.
func (s *ReceptionService) Receive(ctx context.Context, orderID uuid.UUID, req ReceivePurchaseOrderRequest, actor shared.Actor, idempotencyKey string) (*ReceptionResultResponse, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}

	key := ""
	if idempotencyKey != "" && s.idempotency != nil {
		key = fmt.Sprintf("reception:%s:%s", orderID, idempotencyKey)
		fresh, err := s.idempotency.MarkProcessed(ctx, key, s.idempotencyTTL)
		if err != nil {
			return nil, err
		}
		if !fresh {
			return nil, shared.ErrDuplicateRequest
		}
	}

	domainReq := trade.ReceptionRequest{
		Lines: make([]trade.ReceptionLine, len(req.Lines)),
		Actor: actor,
		Notes: req.Notes,
	}
	for i, l := range req.Lines {
		domainReq.Lines[i] = trade.ReceptionLine{ItemID: l.ItemID, Quantity: l.Quantity}
	}
	if req.ReceivedAt != nil {
		domainReq.ReceivedAt = req.ReceivedAt.UTC()
	}

	var (
		order     *trade.PurchaseOrder
		plan      *trade.ReceptionPlan
		movements []*inventory.StockMovement
	)
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		orderRepo := repos.PurchaseOrderRepo()
		ledger := repos.LedgerRepo()

		var err error
		order, err = orderRepo.FindByID(ctx, orderID, true)
		if err != nil {
			return err
		}
		received, err := ledger.SumByReference(ctx, inventory.ReferencePurchaseOrder, order.ID)
		if err != nil {
			return err
		}
		plan, err = order.PlanReception(domainReq, received)
		if err != nil {
			return err
		}

		movements = make([]*inventory.StockMovement, 0, len(plan.Lines))
		for _, line := range plan.Lines {
			itemID := line.ItemID
			unitCost := line.UnitCost
			m, err := appinventory.AppendMovement(ctx, ledger, inventory.MovementInput{
				ProductID:       line.ProductID,
				MovementType:    inventory.MovementTypeIn,
				Change:          line.Quantity,
				ReferenceType:   inventory.ReferencePurchaseOrder,
				ReferenceID:     &order.ID,
				ReferenceLineID: &itemID,
				BatchID:         &plan.ReceptionID,
				UnitCost:        &unitCost,
				Reason:          "Reception " + order.OrderNumber,
				PerformedAt:     plan.ReceivedAt,
			}, actor)
			if err != nil {
				return err
			}
			movements = append(movements, m)
		}

		order.ApplyReception(plan, received)
		return orderRepo.Save(ctx, order)
	})
	if err != nil {
		if key != "" {
			if relErr := s.idempotency.Release(ctx, key); relErr != nil {
				s.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(relErr))
			}
		}
		return nil, err
	}

	s.logger.Info("purchase order reception recorded",
		zap.String("order_id", order.ID.String()),
		zap.String("reception_id", plan.ReceptionID.String()),
		zap.Int("lines", len(plan.Lines)),
		zap.String("status", string(order.Status)),
	)

	events := order.GetDomainEvents()
	order.ClearDomainEvents()
	if s.eventPublisher != nil && len(events) > 0 {
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Error("failed to publish reception events", zap.Error(err))
		}
	}
	appinventory.PublishMovements(ctx, s.eventPublisher, s.logger, movements...)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordReception(ctx, len(plan.Lines), order.IsFullyReceived())
		for _, m := range movements {
			s.businessMetrics.RecordLedgerEntry(ctx, m.MovementType.String(), string(m.ReferenceType))
		}
	}

	response := ToReceptionResultResponse(order, plan.ReceptionID, movements)
	return &response, nil
}
