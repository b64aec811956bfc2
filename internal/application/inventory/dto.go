package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/verone/backoffice/internal/domain/inventory"
)

// StockMovementResponse represents a ledger entry in API responses
type StockMovementResponse struct {
	ID              uuid.UUID        `json:"id"`
	ProductID       uuid.UUID        `json:"product_id"`
	Sequence        int64            `json:"sequence"`
	MovementType    string           `json:"movement_type"`
	QuantityBefore  decimal.Decimal  `json:"quantity_before"`
	QuantityChange  decimal.Decimal  `json:"quantity_change"`
	QuantityAfter   decimal.Decimal  `json:"quantity_after"`
	ReferenceType   string           `json:"reference_type"`
	ReferenceID     *uuid.UUID       `json:"reference_id,omitempty"`
	ReferenceLineID *uuid.UUID       `json:"reference_line_id,omitempty"`
	BatchID         *uuid.UUID       `json:"batch_id,omitempty"`
	Origin          string           `json:"origin"`
	Location        string           `json:"location,omitempty"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	Reason          string           `json:"reason,omitempty"`
	PerformedBy     uuid.UUID        `json:"performed_by"`
	PerformedAt     time.Time        `json:"performed_at"`
}

// StockLevelResponse is the current on-hand quantity of a product
type StockLevelResponse struct {
	ProductID    uuid.UUID       `json:"product_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	LastSequence int64           `json:"last_sequence"`
}

// StockHistoryResponse is one page of a product's ledger
type StockHistoryResponse struct {
	Items     []StockMovementResponse `json:"items"`
	NextAfter *int64                  `json:"next_after,omitempty"`
}

// VerifyResponse reports the outcome of a ledger chain check
type VerifyResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Entries   int             `json:"entries"`
	Quantity  decimal.Decimal `json:"quantity"`
	Valid     bool            `json:"valid"`
	Problem   string          `json:"problem,omitempty"`
}

// AdjustStockRequest is a manual correction. ExpectedBefore, when set, must
// match the current quantity or the request is rejected as stale.
type AdjustStockRequest struct {
	ProductID      uuid.UUID        `json:"product_id" binding:"required"`
	Change         decimal.Decimal  `json:"change" binding:"required"`
	ExpectedBefore *decimal.Decimal `json:"expected_before" binding:"omitnil,decimal_gte0"`
	Reason         string           `json:"reason" binding:"required,max=500"`
	Location       string           `json:"location" binding:"max=100"`
}

// CountStockRequest records a physical inventory count
type CountStockRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Counted   decimal.Decimal `json:"counted" binding:"required,decimal_gte0"`
	Reason    string          `json:"reason" binding:"max=500"`
}

// TransferStockRequest moves stock between two locations
type TransferStockRequest struct {
	ProductID    uuid.UUID       `json:"product_id" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	FromLocation string          `json:"from_location" binding:"required,max=100"`
	ToLocation   string          `json:"to_location" binding:"required,max=100"`
	Reason       string          `json:"reason" binding:"max=500"`
}

// ToStockMovementResponse converts a domain entry to a response
func ToStockMovementResponse(m *inventory.StockMovement) StockMovementResponse {
	return StockMovementResponse{
		ID:              m.ID,
		ProductID:       m.ProductID,
		Sequence:        m.Sequence,
		MovementType:    m.MovementType.String(),
		QuantityBefore:  m.QuantityBefore,
		QuantityChange:  m.QuantityChange,
		QuantityAfter:   m.QuantityAfter,
		ReferenceType:   string(m.ReferenceType),
		ReferenceID:     m.ReferenceID,
		ReferenceLineID: m.ReferenceLineID,
		BatchID:         m.BatchID,
		Origin:          string(m.Origin()),
		Location:        m.Location,
		UnitCost:        m.UnitCost,
		Reason:          m.Reason,
		PerformedBy:     m.PerformedBy,
		PerformedAt:     m.PerformedAt,
	}
}

// ToStockMovementResponses converts a slice of entries
func ToStockMovementResponses(movements []*inventory.StockMovement) []StockMovementResponse {
	responses := make([]StockMovementResponse, len(movements))
	for i, m := range movements {
		responses[i] = ToStockMovementResponse(m)
	}
	return responses
}
