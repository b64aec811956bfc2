package finance

import (
	"context"

	"github.com/google/uuid"
)

// FinancialDocumentRepository defines the interface for document mirror persistence
type FinancialDocumentRepository interface {
	// FindByID loads a document with its items
	FindByID(ctx context.Context, id uuid.UUID) (*FinancialDocument, error)

	// FindByProviderID loads the mirror of a provider document
	FindByProviderID(ctx context.Context, providerID string) (*FinancialDocument, error)

	// FindBySalesOrder returns every document linked to an order, newest first
	FindBySalesOrder(ctx context.Context, orderID uuid.UUID) ([]FinancialDocument, error)

	// Create inserts the document and its items
	Create(ctx context.Context, doc *FinancialDocument) error

	// Save updates the header and replaces the items
	Save(ctx context.Context, doc *FinancialDocument) error

	// UpdateArchiveKey sets the archive key without touching the items
	UpdateArchiveKey(ctx context.Context, id uuid.UUID, key string) error
}
