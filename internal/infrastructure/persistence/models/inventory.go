package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/verone/backoffice/internal/domain/inventory"
)

// StockMovementModel is one row of the append-only stock ledger.
type StockMovementModel struct {
	ID              uuid.UUID               `gorm:"type:uuid;primary_key"`
	ProductID       uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:idx_stock_movements_product_sequence,priority:1"`
	Sequence        int64                   `gorm:"not null;uniqueIndex:idx_stock_movements_product_sequence,priority:2"`
	MovementType    inventory.MovementType  `gorm:"type:varchar(20);not null"`
	QuantityBefore  decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	QuantityChange  decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	QuantityAfter   decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	ReferenceType   inventory.ReferenceType `gorm:"type:varchar(30);not null;index:idx_stock_movements_reference,priority:1"`
	ReferenceID     *uuid.UUID              `gorm:"type:uuid;index:idx_stock_movements_reference,priority:2"`
	ReferenceLineID *uuid.UUID              `gorm:"type:uuid"`
	BatchID         *uuid.UUID              `gorm:"type:uuid;index"`
	Location        string                  `gorm:"type:varchar(100)"`
	UnitCost        *decimal.Decimal        `gorm:"type:decimal(18,4)"`
	Reason          string                  `gorm:"type:text"`
	PerformedBy     uuid.UUID               `gorm:"type:uuid;not null"`
	PerformedAt     time.Time               `gorm:"not null"`
	CreatedAt       time.Time               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the row to a ledger entry
func (m *StockMovementModel) ToDomain() inventory.StockMovement {
	return inventory.StockMovement{
		ID:              m.ID,
		ProductID:       m.ProductID,
		Sequence:        m.Sequence,
		MovementType:    m.MovementType,
		QuantityBefore:  m.QuantityBefore,
		QuantityChange:  m.QuantityChange,
		QuantityAfter:   m.QuantityAfter,
		ReferenceType:   m.ReferenceType,
		ReferenceID:     m.ReferenceID,
		ReferenceLineID: m.ReferenceLineID,
		BatchID:         m.BatchID,
		Location:        m.Location,
		UnitCost:        m.UnitCost,
		Reason:          m.Reason,
		PerformedBy:     m.PerformedBy,
		PerformedAt:     m.PerformedAt,
		CreatedAt:       m.CreatedAt,
	}
}

// StockMovementModelFromDomain maps a ledger entry to a row
func StockMovementModelFromDomain(s *inventory.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ID:              s.ID,
		ProductID:       s.ProductID,
		Sequence:        s.Sequence,
		MovementType:    s.MovementType,
		QuantityBefore:  s.QuantityBefore,
		QuantityChange:  s.QuantityChange,
		QuantityAfter:   s.QuantityAfter,
		ReferenceType:   s.ReferenceType,
		ReferenceID:     s.ReferenceID,
		ReferenceLineID: s.ReferenceLineID,
		BatchID:         s.BatchID,
		Location:        s.Location,
		UnitCost:        s.UnitCost,
		Reason:          s.Reason,
		PerformedBy:     s.PerformedBy,
		PerformedAt:     s.PerformedAt,
		CreatedAt:       s.CreatedAt,
	}
}
