package inventory

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/verone/backoffice/internal/domain/shared"
)

// ErrChainBroken is returned when consecutive ledger entries do not line up
var ErrChainBroken = shared.NewDomainError("LEDGER_CHAIN_BROKEN", "Stock ledger chain is broken")

// VerifyChain checks that entries, given in sequence order per product, form an
// unbroken chain from each product's first entry: each entry's arithmetic holds,
// sequences start at 1 and are contiguous, and each QuantityAfter equals the
// next entry's QuantityBefore.
func VerifyChain(entries []StockMovement) error {
	last := make(map[uuid.UUID]*StockMovement)
	for i := range entries {
		e := &entries[i]
		if !e.QuantityBefore.Add(e.QuantityChange).Equal(e.QuantityAfter) {
			return chainError("entry %d of product %s: %s + %s != %s",
				e.Sequence, e.ProductID, e.QuantityBefore, e.QuantityChange, e.QuantityAfter)
		}
		prev, ok := last[e.ProductID]
		if !ok {
			if e.Sequence != 1 {
				return chainError("history of product %s starts at sequence %d", e.ProductID, e.Sequence)
			}
			if !e.QuantityBefore.IsZero() {
				return chainError("first entry of product %s starts at %s", e.ProductID, e.QuantityBefore)
			}
		} else {
			if e.Sequence != prev.Sequence+1 {
				return chainError("product %s jumps from sequence %d to %d", e.ProductID, prev.Sequence, e.Sequence)
			}
			if !prev.QuantityAfter.Equal(e.QuantityBefore) {
				return chainError("product %s entry %d ends at %s but entry %d starts at %s",
					e.ProductID, prev.Sequence, prev.QuantityAfter, e.Sequence, e.QuantityBefore)
			}
		}
		last[e.ProductID] = e
	}
	return nil
}

func chainError(format string, args ...any) error {
	return shared.NewDomainError(ErrChainBroken.Code, fmt.Sprintf(format, args...))
}

// TransferInput describes a move between two logical locations
type TransferInput struct {
	ProductID    uuid.UUID
	Quantity     decimal.Decimal
	FromLocation string
	ToLocation   string
	Reason       string
}

// NewTransfer builds the OUT and IN legs of a transfer. Both legs share a
// batch ID and the second leg chains on the first, so the product total is
// unchanged once both are recorded.
func NewTransfer(previous *StockMovement, in TransferInput, actor shared.Actor) ([]*StockMovement, error) {
	if !in.Quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Transfer quantity must be positive")
	}
	if in.FromLocation == "" || in.ToLocation == "" {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Transfer requires both a source and a destination location")
	}
	if in.FromLocation == in.ToLocation {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Transfer source and destination must differ")
	}

	batchID := uuid.New()
	out, err := NewStockMovement(previous, MovementInput{
		ProductID:     in.ProductID,
		MovementType:  MovementTypeTransfer,
		Change:        in.Quantity.Neg(),
		ReferenceType: ReferenceTransfer,
		ReferenceID:   &batchID,
		BatchID:       &batchID,
		Location:      in.FromLocation,
		Reason:        in.Reason,
	}, actor)
	if err != nil {
		return nil, err
	}

	inLeg, err := NewStockMovement(out, MovementInput{
		ProductID:     in.ProductID,
		MovementType:  MovementTypeTransfer,
		Change:        in.Quantity,
		ReferenceType: ReferenceTransfer,
		ReferenceID:   &batchID,
		BatchID:       &batchID,
		Location:      in.ToLocation,
		Reason:        in.Reason,
		PerformedAt:   out.PerformedAt,
	}, actor)
	if err != nil {
		return nil, err
	}

	return []*StockMovement{out, inLeg}, nil
}
