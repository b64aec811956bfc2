package trade

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	appshared "github.com/verone/backoffice/internal/application/shared"
	"github.com/verone/backoffice/internal/domain/shared"
	"github.com/verone/backoffice/internal/domain/trade"
	"github.com/verone/backoffice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// orderNumberAttempts bounds retries when a generated order number collides
const orderNumberAttempts = 3

// SalesOrderService handles sales order business operations
type SalesOrderService struct {
	orderRepo       trade.SalesOrderRepository
	txScope         appshared.TransactionScope
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
	logger          *zap.Logger
}

// NewSalesOrderService creates a new SalesOrderService
func NewSalesOrderService(orderRepo trade.SalesOrderRepository, txScope appshared.TransactionScope, logger *zap.Logger) *SalesOrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SalesOrderService{
		orderRepo: orderRepo,
		txScope:   txScope,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *SalesOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *SalesOrderService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// Create creates a draft sales order with its lines in one transaction
func (s *SalesOrderService) Create(ctx context.Context, req CreateSalesOrderRequest, actor shared.Actor) (*SalesOrderResponse, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	customer, err := trade.NewCustomer(req.Customer.ToRef())
	if err != nil {
		return nil, err
	}

	var order *trade.SalesOrder
	create := func(repos appshared.TransactionalRepositories) error {
		orderRepo := repos.SalesOrderRepo()
		orderNumber, err := orderRepo.GenerateOrderNumber(ctx)
		if err != nil {
			return err
		}

		order, err = trade.NewSalesOrder(orderNumber, customer, actor)
		if err != nil {
			return err
		}
		for _, item := range req.Items {
			if _, err := order.AddItem(trade.SalesOrderItemInput{
				ProductID:          item.ProductID,
				Description:        item.Description,
				Quantity:           item.Quantity,
				UnitPriceHT:        item.UnitPriceHT,
				DiscountPercentage: item.DiscountPercentage,
				TaxRate:            item.TaxRate,
				Notes:              item.Notes,
			}); err != nil {
				return err
			}
		}
		if err := order.SetFees(req.Fees.ToFees()); err != nil {
			return err
		}
		order.SetAddresses(req.BillingAddress.ToAddress(), req.ShippingAddress.ToAddress())
		order.Notes = req.Notes

		return orderRepo.Create(ctx, order)
	}

	// Two concurrent creates can read the same last number; the loser hits the
	// unique index and retries in a fresh transaction.
	for attempt := 1; ; attempt++ {
		err = s.txScope.Execute(ctx, create)
		if err == nil || !errors.Is(err, shared.ErrConcurrencyConflict) || attempt == orderNumberAttempts {
			break
		}
		s.logger.Info("order number taken, retrying", zap.Int("attempt", attempt))
	}
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, order)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordOrderWithAmount(ctx, telemetry.OrderTypeSales, order.Totals.GrossTTC)
	}

	response := ToSalesOrderResponse(order)
	return &response, nil
}

// GetByID retrieves a sales order by ID
func (s *SalesOrderService) GetByID(ctx context.Context, orderID uuid.UUID) (*SalesOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID, false)
	if err != nil {
		return nil, err
	}
	response := ToSalesOrderResponse(order)
	return &response, nil
}

// List retrieves a list of sales orders with filtering and pagination
func (s *SalesOrderService) List(ctx context.Context, filter SalesOrderListFilter) ([]SalesOrderListItemResponse, int64, error) {
	domainFilter := trade.SalesOrderFilter{Filter: shared.DefaultFilter(), CustomerID: filter.CustomerID}
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	if filter.Status != "" {
		status, err := trade.ParseOrderStatus(filter.Status)
		if err != nil {
			return nil, 0, err
		}
		domainFilter.Status = status
	}
	if filter.PaymentStatus != "" {
		ps := trade.PaymentStatus(filter.PaymentStatus)
		if !ps.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_PAYMENT_STATUS", "Unknown payment status: "+filter.PaymentStatus)
		}
		domainFilter.PaymentStatus = ps
	}

	orders, total, err := s.orderRepo.List(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	items := make([]SalesOrderListItemResponse, len(orders))
	for i := range orders {
		items[i] = ToSalesOrderListItemResponse(&orders[i])
	}
	return items, total, nil
}

// Transition moves an order to the requested status. The order row is locked
// for the duration of the check and the write.
func (s *SalesOrderService) Transition(ctx context.Context, orderID uuid.UUID, req TransitionSalesOrderRequest, actor shared.Actor) (*SalesOrderResponse, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	target, err := trade.ParseOrderStatus(req.Status)
	if err != nil {
		return nil, err
	}

	var order *trade.SalesOrder
	var from trade.OrderStatus
	err = s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		orderRepo := repos.SalesOrderRepo()
		var err error
		order, err = orderRepo.FindByID(ctx, orderID, true)
		if err != nil {
			return err
		}
		from = order.Status
		if err := order.Transition(target, actor, time.Now().UTC()); err != nil {
			return err
		}
		return orderRepo.Save(ctx, order)
	})
	if err != nil {
		if shared.KindOf(err) == shared.KindInvalidTransition {
			s.logger.Info("sales order transition rejected",
				zap.String("order_id", orderID.String()),
				zap.String("target", target.String()),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.logger.Info("sales order transitioned",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("from", from.String()),
		zap.String("to", order.Status.String()),
		zap.String("actor", actor.UserID.String()),
	)
	s.publishDomainEvents(ctx, order)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordOrderTransition(ctx, from.String(), order.Status.String())
	}

	response := ToSalesOrderResponse(order)
	return &response, nil
}

// Delete hard-deletes a draft or cancelled order with its lines
func (s *SalesOrderService) Delete(ctx context.Context, orderID uuid.UUID, actor shared.Actor) error {
	if err := actor.Require(); err != nil {
		return err
	}

	var order *trade.SalesOrder
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		orderRepo := repos.SalesOrderRepo()
		var err error
		order, err = orderRepo.FindByID(ctx, orderID, true)
		if err != nil {
			return err
		}
		if err := order.EnsureDeletable(); err != nil {
			return err
		}
		return orderRepo.Delete(ctx, orderID)
	})
	if err != nil {
		return err
	}

	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, trade.NewSalesOrderDeletedEvent(order, actor)); err != nil {
			s.logger.Error("failed to publish order deleted event", zap.Error(err))
		}
	}
	return nil
}

// publishDomainEvents publishes all pending events of the order
func (s *SalesOrderService) publishDomainEvents(ctx context.Context, order *trade.SalesOrder) {
	events := order.GetDomainEvents()
	order.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish sales order events",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}
}
