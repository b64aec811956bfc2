package trade

import (
	"context"

	"github.com/google/uuid"
	"github.com/verone/backoffice/internal/domain/shared"
)

// SalesOrderFilter narrows order listings
type SalesOrderFilter struct {
	shared.Filter
	Status        OrderStatus
	PaymentStatus PaymentStatus
	CustomerID    *uuid.UUID
}

// SalesOrderRepository defines the interface for sales order persistence
type SalesOrderRepository interface {
	// FindByID loads an order with its lines. With forUpdate the order row is
	// locked until the surrounding transaction ends.
	FindByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*SalesOrder, error)

	// Create inserts the order and its lines
	Create(ctx context.Context, order *SalesOrder) error

	// Save updates the order header (status, totals, stamps, addresses)
	Save(ctx context.Context, order *SalesOrder) error

	// ReplaceItems deletes every line of the order and inserts items
	ReplaceItems(ctx context.Context, orderID uuid.UUID, items []SalesOrderItem) error

	// Delete hard-deletes the order; lines cascade
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns one page of orders matching filter with their lines
	List(ctx context.Context, filter SalesOrderFilter) ([]SalesOrder, int64, error)

	// GenerateOrderNumber returns the next SO-YYYY-NNNNN number
	GenerateOrderNumber(ctx context.Context) (string, error)
}

// PurchaseOrderRepository defines the interface for purchase order persistence
type PurchaseOrderRepository interface {
	// FindByID loads a purchase order with its lines, optionally locking the row
	FindByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*PurchaseOrder, error)

	// Save updates status, reception stamps and the cached received quantities
	Save(ctx context.Context, order *PurchaseOrder) error
}
