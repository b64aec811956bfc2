package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockMovementRepository is the append-only store for ledger entries
type StockMovementRepository interface {
	// LatestForProduct returns the most recent entry for a product, or nil when
	// the product has no history. forUpdate locks the row until the surrounding
	// transaction ends.
	LatestForProduct(ctx context.Context, productID uuid.UUID, forUpdate bool) (*StockMovement, error)

	// Append inserts a new entry. A sequence collision returns shared.ErrConcurrencyConflict.
	Append(ctx context.Context, movement *StockMovement) error

	// History returns up to limit entries with Sequence > afterSequence, in sequence order
	History(ctx context.Context, productID uuid.UUID, afterSequence int64, limit int) ([]StockMovement, error)

	// FindByBatch returns all entries written by one reception or transfer
	FindByBatch(ctx context.Context, batchID uuid.UUID) ([]StockMovement, error)

	// SumByReference sums QuantityChange per ReferenceLineID for a reference
	SumByReference(ctx context.Context, refType ReferenceType, refID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}
