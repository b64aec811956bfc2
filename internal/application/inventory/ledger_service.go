package inventory

import (
	"context"
	"fmt"
	"iter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appshared "github.com/verone/backoffice/internal/application/shared"
	"github.com/verone/backoffice/internal/domain/inventory"
	"github.com/verone/backoffice/internal/domain/shared"
	"github.com/verone/backoffice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultHistoryPageSize is the keyset page size used when walking a ledger
const DefaultHistoryPageSize = 200

// CodeStaleQuantityBefore rejects a write whose caller-supplied before value
// no longer matches the ledger.
const CodeStaleQuantityBefore = "STALE_QUANTITY_BEFORE"

// RecordInput is a movement plus the quantity the caller believes is on hand
type RecordInput struct {
	inventory.MovementInput
	ExpectedBefore *decimal.Decimal
	Actor          shared.Actor
}

// LedgerService is the only writer of the stock ledger. Every write locks the
// product's latest entry inside a transaction and chains on it.
type LedgerService struct {
	ledgerRepo      inventory.StockMovementRepository
	txScope         appshared.TransactionScope
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
	logger          *zap.Logger
	pageSize        int
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(ledgerRepo inventory.StockMovementRepository, txScope appshared.TransactionScope, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		ledgerRepo: ledgerRepo,
		txScope:    txScope,
		logger:     logger,
		pageSize:   DefaultHistoryPageSize,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *LedgerService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// SetHistoryPageSize overrides the keyset page size
func (s *LedgerService) SetHistoryPageSize(size int) {
	if size > 0 {
		s.pageSize = size
	}
}

// AppendMovement locks the product's latest entry through repo, builds the
// next entry on top of it and appends it. repo must belong to the caller's
// transaction. It is shared by every workflow that writes stock.
func AppendMovement(ctx context.Context, repo inventory.StockMovementRepository, in inventory.MovementInput, actor shared.Actor) (*inventory.StockMovement, error) {
	latest, err := repo.LatestForProduct(ctx, in.ProductID, true)
	if err != nil {
		return nil, err
	}
	movement, err := inventory.NewStockMovement(latest, in, actor)
	if err != nil {
		return nil, err
	}
	if err := repo.Append(ctx, movement); err != nil {
		return nil, err
	}
	return movement, nil
}

// Record appends one movement. When ExpectedBefore is set it must equal the
// locked current quantity.
func (s *LedgerService) Record(ctx context.Context, in RecordInput) (*inventory.StockMovement, error) {
	if err := in.Actor.Require(); err != nil {
		return nil, err
	}

	var movement *inventory.StockMovement
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		ledger := repos.LedgerRepo()
		latest, err := ledger.LatestForProduct(ctx, in.ProductID, true)
		if err != nil {
			return err
		}
		current := inventory.CurrentQuantity(latest)
		if in.ExpectedBefore != nil && !in.ExpectedBefore.Equal(current) {
			return shared.NewDomainError(CodeStaleQuantityBefore,
				fmt.Sprintf("Expected %s on hand for product %s but the ledger shows %s",
					in.ExpectedBefore.String(), in.ProductID, current.String()))
		}
		movement, err = inventory.NewStockMovement(latest, in.MovementInput, in.Actor)
		if err != nil {
			return err
		}
		return ledger.Append(ctx, movement)
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, movement)
	return movement, nil
}

// Adjust applies a signed manual correction against the locked current quantity
func (s *LedgerService) Adjust(ctx context.Context, productID uuid.UUID, change decimal.Decimal, reason string, actor shared.Actor) (*inventory.StockMovement, error) {
	return s.Record(ctx, RecordInput{
		MovementInput: inventory.MovementInput{
			ProductID:     productID,
			MovementType:  inventory.MovementTypeAdjust,
			Change:        change,
			ReferenceType: inventory.ReferenceManualAdjustment,
			Reason:        reason,
		},
		Actor: actor,
	})
}

// CountTo records an inventory count as the adjustment that brings the ledger
// to counted. A count that matches the ledger is rejected.
func (s *LedgerService) CountTo(ctx context.Context, productID uuid.UUID, counted decimal.Decimal, reason string, actor shared.Actor) (*inventory.StockMovement, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	if counted.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Counted quantity cannot be negative")
	}
	if reason == "" {
		reason = "Inventory count"
	}

	var movement *inventory.StockMovement
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		ledger := repos.LedgerRepo()
		latest, err := ledger.LatestForProduct(ctx, productID, true)
		if err != nil {
			return err
		}
		change := counted.Sub(inventory.CurrentQuantity(latest))
		if change.IsZero() {
			return shared.NewDomainError("COUNT_UNCHANGED",
				fmt.Sprintf("Counted quantity %s already matches the ledger", counted.String()))
		}
		movement, err = inventory.NewStockMovement(latest, inventory.MovementInput{
			ProductID:     productID,
			MovementType:  inventory.MovementTypeAdjust,
			Change:        change,
			ReferenceType: inventory.ReferenceInventoryCount,
			Reason:        reason,
		}, actor)
		if err != nil {
			return err
		}
		return ledger.Append(ctx, movement)
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, movement)
	return movement, nil
}

// Transfer records the OUT and IN legs of a move between locations in one
// transaction. The product total is unchanged.
func (s *LedgerService) Transfer(ctx context.Context, in inventory.TransferInput, actor shared.Actor) ([]*inventory.StockMovement, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}

	var legs []*inventory.StockMovement
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		ledger := repos.LedgerRepo()
		latest, err := ledger.LatestForProduct(ctx, in.ProductID, true)
		if err != nil {
			return err
		}
		legs, err = inventory.NewTransfer(latest, in, actor)
		if err != nil {
			return err
		}
		for _, leg := range legs {
			if err := ledger.Append(ctx, leg); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, legs...)
	return legs, nil
}

// CurrentQuantity returns the latest quantity_after of the product, or zero
func (s *LedgerService) CurrentQuantity(ctx context.Context, productID uuid.UUID) (*StockLevelResponse, error) {
	latest, err := s.ledgerRepo.LatestForProduct(ctx, productID, false)
	if err != nil {
		return nil, err
	}
	level := &StockLevelResponse{
		ProductID: productID,
		Quantity:  inventory.CurrentQuantity(latest),
	}
	if latest != nil {
		level.LastSequence = latest.Sequence
	}
	return level, nil
}

// History walks the full ledger of a product in sequence order. Pages are
// fetched lazily by keyset and each range over the sequence starts again
// from the first entry.
func (s *LedgerService) History(ctx context.Context, productID uuid.UUID) iter.Seq2[inventory.StockMovement, error] {
	return func(yield func(inventory.StockMovement, error) bool) {
		var after int64
		for {
			page, err := s.ledgerRepo.History(ctx, productID, after, s.pageSize)
			if err != nil {
				yield(inventory.StockMovement{}, err)
				return
			}
			for _, m := range page {
				if !yield(m, nil) {
					return
				}
				after = m.Sequence
			}
			if len(page) < s.pageSize {
				return
			}
		}
	}
}

// HistoryPage returns one page of entries after a sequence cursor
func (s *LedgerService) HistoryPage(ctx context.Context, productID uuid.UUID, after int64, limit int) (*StockHistoryResponse, error) {
	if limit <= 0 || limit > s.pageSize {
		limit = s.pageSize
	}
	page, err := s.ledgerRepo.History(ctx, productID, after, limit)
	if err != nil {
		return nil, err
	}
	resp := &StockHistoryResponse{Items: make([]StockMovementResponse, len(page))}
	for i := range page {
		resp.Items[i] = ToStockMovementResponse(&page[i])
	}
	if len(page) == limit {
		next := page[len(page)-1].Sequence
		resp.NextAfter = &next
	}
	return resp, nil
}

// Verify checks the chain of the product's full history
func (s *LedgerService) Verify(ctx context.Context, productID uuid.UUID) (*VerifyResponse, error) {
	var entries []inventory.StockMovement
	for m, err := range s.History(ctx, productID) {
		if err != nil {
			return nil, err
		}
		entries = append(entries, m)
	}

	resp := &VerifyResponse{ProductID: productID, Entries: len(entries), Valid: true}
	if len(entries) > 0 {
		resp.Quantity = entries[len(entries)-1].QuantityAfter
	}
	if err := inventory.VerifyChain(entries); err != nil {
		resp.Valid = false
		resp.Problem = err.Error()
		s.logger.Warn("stock ledger chain broken",
			zap.String("product_id", productID.String()),
			zap.Error(err),
		)
	}
	return resp, nil
}

// afterCommit publishes one event per entry and records metrics. Publish
// failures are logged and never undo a committed write.
func (s *LedgerService) afterCommit(ctx context.Context, movements ...*inventory.StockMovement) {
	PublishMovements(ctx, s.eventPublisher, s.logger, movements...)
	if s.businessMetrics != nil {
		for _, m := range movements {
			s.businessMetrics.RecordLedgerEntry(ctx, m.MovementType.String(), string(m.ReferenceType))
		}
	}
}

// PublishMovements publishes a StockMovementRecorded event per entry
func PublishMovements(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, movements ...*inventory.StockMovement) {
	if publisher == nil || len(movements) == 0 {
		return
	}
	events := make([]shared.DomainEvent, len(movements))
	for i, m := range movements {
		events[i] = inventory.NewStockMovementRecordedEvent(m)
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Error("failed to publish stock movement events", zap.Error(err))
	}
}
