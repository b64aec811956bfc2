package inventory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/verone/backoffice/internal/domain/shared"
)

const (
	// AggregateTypeStockLedger is the aggregate type for ledger events
	AggregateTypeStockLedger = "StockLedger"

	// EventTypeStockMovementRecorded is published after a ledger entry commits
	EventTypeStockMovementRecorded = "StockMovementRecorded"
)

// StockMovementRecordedEvent is raised for every appended ledger entry
type StockMovementRecordedEvent struct {
	shared.BaseDomainEvent
	MovementID     uuid.UUID       `json:"movement_id"`
	ProductID      uuid.UUID       `json:"product_id"`
	MovementType   MovementType    `json:"movement_type"`
	ReferenceType  ReferenceType   `json:"reference_type"`
	QuantityChange decimal.Decimal `json:"quantity_change"`
	QuantityAfter  decimal.Decimal `json:"quantity_after"`
}

// NewStockMovementRecordedEvent creates the event for m
func NewStockMovementRecordedEvent(m *StockMovement) *StockMovementRecordedEvent {
	return &StockMovementRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeStockMovementRecorded,
			AggregateTypeStockLedger,
			m.ProductID,
			shared.NewActor(m.PerformedBy),
		),
		MovementID:     m.ID,
		ProductID:      m.ProductID,
		MovementType:   m.MovementType,
		ReferenceType:  m.ReferenceType,
		QuantityChange: m.QuantityChange,
		QuantityAfter:  m.QuantityAfter,
	}
}
