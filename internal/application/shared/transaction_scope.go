// Package shared holds application-layer plumbing used by every bounded context.
package shared

import (
	"context"

	"github.com/verone/backoffice/internal/domain/finance"
	"github.com/verone/backoffice/internal/domain/inventory"
	"github.com/verone/backoffice/internal/domain/trade"
)

// TransactionScope provides transactional access to the repositories touched
// by multi-step writes (receptions, transfers, order sync, order lifecycle).
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes repositories that share one transaction.
//
// The ledger is the shared resource: every writer locks the product's latest
// entry through LedgerRepo before appending, whatever workflow it belongs to.
type TransactionalRepositories interface {
	LedgerRepo() inventory.StockMovementRepository
	SalesOrderRepo() trade.SalesOrderRepository
	PurchaseOrderRepo() trade.PurchaseOrderRepository
	DocumentRepo() finance.FinancialDocumentRepository
}

// NoOpTransactionScope runs fn against plain repositories. Used by tests.
type NoOpTransactionScope struct {
	ledgerRepo        inventory.StockMovementRepository
	salesOrderRepo    trade.SalesOrderRepository
	purchaseOrderRepo trade.PurchaseOrderRepository
	documentRepo      finance.FinancialDocumentRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
// Any of them may be nil when the caller does not need it.
func NewNoOpTransactionScope(
	ledgerRepo inventory.StockMovementRepository,
	salesOrderRepo trade.SalesOrderRepository,
	purchaseOrderRepo trade.PurchaseOrderRepository,
	documentRepo finance.FinancialDocumentRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		ledgerRepo:        ledgerRepo,
		salesOrderRepo:    salesOrderRepo,
		purchaseOrderRepo: purchaseOrderRepo,
		documentRepo:      documentRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// LedgerRepo returns the stock movement repository.
func (s *NoOpTransactionScope) LedgerRepo() inventory.StockMovementRepository {
	return s.ledgerRepo
}

// SalesOrderRepo returns the sales order repository.
func (s *NoOpTransactionScope) SalesOrderRepo() trade.SalesOrderRepository {
	return s.salesOrderRepo
}

// PurchaseOrderRepo returns the purchase order repository.
func (s *NoOpTransactionScope) PurchaseOrderRepo() trade.PurchaseOrderRepository {
	return s.purchaseOrderRepo
}

// DocumentRepo returns the financial document repository.
func (s *NoOpTransactionScope) DocumentRepo() finance.FinancialDocumentRepository {
	return s.documentRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
