package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/verone/backoffice/internal/domain/shared"
)

// MovementType represents the kind of quantity change recorded in the ledger
type MovementType string

const (
	// MovementTypeIn increases on-hand stock (purchase reception, customer return)
	MovementTypeIn MovementType = "IN"
	// MovementTypeOut decreases on-hand stock (sale fulfillment, loss)
	MovementTypeOut MovementType = "OUT"
	// MovementTypeAdjust is a manual correction with no implied sign
	MovementTypeAdjust MovementType = "ADJUST"
	// MovementTypeTransfer is one leg of a paired move between locations
	MovementTypeTransfer MovementType = "TRANSFER"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeIn, MovementTypeOut, MovementTypeAdjust, MovementTypeTransfer:
		return true
	}
	return false
}

// ReferenceType identifies what caused a movement
type ReferenceType string

const (
	ReferenceManualAdjustment ReferenceType = "manual_adjustment"
	ReferenceInventoryCount   ReferenceType = "inventory_count"
	ReferencePurchaseOrder    ReferenceType = "purchase_order"
	ReferenceSalesOrder       ReferenceType = "sales_order"
	ReferenceSalesFulfillment ReferenceType = "sales_fulfillment"
	ReferenceCustomerReturn   ReferenceType = "customer_return"
	ReferenceSupplierReturn   ReferenceType = "supplier_return"
	ReferenceTransfer         ReferenceType = "transfer"
	ReferenceOther            ReferenceType = "other"
)

// IsValid returns true if the reference type is known
func (r ReferenceType) IsValid() bool {
	switch r {
	case ReferenceManualAdjustment, ReferenceInventoryCount,
		ReferencePurchaseOrder, ReferenceSalesOrder, ReferenceSalesFulfillment,
		ReferenceCustomerReturn, ReferenceSupplierReturn,
		ReferenceTransfer, ReferenceOther:
		return true
	}
	return false
}

// OriginBucket groups reference types for display. It carries no transactional weight.
type OriginBucket string

const (
	OriginManual OriginBucket = "manual"
	OriginOrder  OriginBucket = "order"
	OriginOther  OriginBucket = "other"
)

// Origin classifies the reference type into a display bucket
func (r ReferenceType) Origin() OriginBucket {
	switch r {
	case ReferenceManualAdjustment, ReferenceInventoryCount:
		return OriginManual
	case ReferencePurchaseOrder, ReferenceSalesOrder, ReferenceSalesFulfillment,
		ReferenceCustomerReturn, ReferenceSupplierReturn:
		return OriginOrder
	}
	return OriginOther
}

// StockMovement is one immutable ledger entry. QuantityAfter is always
// QuantityBefore + QuantityChange and Sequence is contiguous per product.
type StockMovement struct {
	ID              uuid.UUID
	ProductID       uuid.UUID
	Sequence        int64
	MovementType    MovementType
	QuantityBefore  decimal.Decimal
	QuantityChange  decimal.Decimal
	QuantityAfter   decimal.Decimal
	ReferenceType   ReferenceType
	ReferenceID     *uuid.UUID
	ReferenceLineID *uuid.UUID
	BatchID         *uuid.UUID
	Location        string
	UnitCost        *decimal.Decimal
	Reason          string
	PerformedBy     uuid.UUID
	PerformedAt     time.Time
	CreatedAt       time.Time
}

// MovementInput describes a movement to append. The resulting quantity is
// always derived from the previous entry.
type MovementInput struct {
	ProductID       uuid.UUID
	MovementType    MovementType
	Change          decimal.Decimal
	ReferenceType   ReferenceType
	ReferenceID     *uuid.UUID
	ReferenceLineID *uuid.UUID
	BatchID         *uuid.UUID
	Location        string
	UnitCost        *decimal.Decimal
	Reason          string
	PerformedAt     time.Time
}

// NewStockMovement builds the entry that follows previous in the product's
// ledger. previous is nil when the product has no history yet.
func NewStockMovement(previous *StockMovement, in MovementInput, actor shared.Actor) (*StockMovement, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	if in.ProductID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if previous != nil && previous.ProductID != in.ProductID {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Previous entry belongs to another product")
	}
	if !in.MovementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", fmt.Sprintf("Invalid movement type: %s", in.MovementType))
	}
	if err := validateSign(in.MovementType, in.Change); err != nil {
		return nil, err
	}
	if in.ReferenceType == "" {
		in.ReferenceType = ReferenceOther
	}
	if !in.ReferenceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_REFERENCE_TYPE", fmt.Sprintf("Invalid reference type: %s", in.ReferenceType))
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	before := decimal.Zero
	var sequence int64 = 1
	if previous != nil {
		before = previous.QuantityAfter
		sequence = previous.Sequence + 1
	}

	after := before.Add(in.Change)
	if after.IsNegative() {
		return nil, shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Movement of %s would take stock from %s below zero", in.Change.String(), before.String()))
	}

	now := time.Now().UTC()
	performedAt := in.PerformedAt
	if performedAt.IsZero() {
		performedAt = now
	}

	return &StockMovement{
		ID:              uuid.New(),
		ProductID:       in.ProductID,
		Sequence:        sequence,
		MovementType:    in.MovementType,
		QuantityBefore:  before,
		QuantityChange:  in.Change,
		QuantityAfter:   after,
		ReferenceType:   in.ReferenceType,
		ReferenceID:     in.ReferenceID,
		ReferenceLineID: in.ReferenceLineID,
		BatchID:         in.BatchID,
		Location:        in.Location,
		UnitCost:        in.UnitCost,
		Reason:          in.Reason,
		PerformedBy:     actor.UserID,
		PerformedAt:     performedAt,
		CreatedAt:       now,
	}, nil
}

func validateSign(t MovementType, change decimal.Decimal) error {
	switch t {
	case MovementTypeIn:
		if !change.IsPositive() {
			return shared.NewDomainError("INVALID_QUANTITY", "IN movements require a positive quantity")
		}
	case MovementTypeOut:
		if !change.IsNegative() {
			return shared.NewDomainError("INVALID_QUANTITY", "OUT movements require a negative quantity")
		}
	default:
		if change.IsZero() {
			return shared.NewDomainError("INVALID_QUANTITY", "Quantity change cannot be zero")
		}
	}
	return nil
}

// Origin returns the display bucket of the entry
func (m *StockMovement) Origin() OriginBucket {
	return m.ReferenceType.Origin()
}

// IsIncrease returns true if the entry added stock
func (m *StockMovement) IsIncrease() bool {
	return m.QuantityChange.IsPositive()
}

// CurrentQuantity returns the on-hand quantity given the latest entry, zero when there is none
func CurrentQuantity(latest *StockMovement) decimal.Decimal {
	if latest == nil {
		return decimal.Zero
	}
	return latest.QuantityAfter
}
