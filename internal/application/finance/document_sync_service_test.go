package finance

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	appshared "github.com/verone/backoffice/internal/application/shared"
	"github.com/verone/backoffice/internal/domain/finance"
	"github.com/verone/backoffice/internal/domain/shared"
	"github.com/verone/backoffice/internal/domain/shared/valueobject"
	"github.com/verone/backoffice/internal/domain/trade"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %T: %v", err, err)
	assert.Equal(t, code, de.Code)
}

func confirmedOrder(t *testing.T) *trade.SalesOrder {
	t.Helper()
	customer := trade.OrganisationCustomer{ID: uuid.New(), LegalName: "Maison Dupont SAS", Email: "achats@dupont.fr"}
	order, err := trade.NewSalesOrder("SO-2026-00042", customer, shared.NewActor(uuid.New()))
	require.NoError(t, err)
	_, err = order.AddItem(trade.SalesOrderItemInput{
		ProductID:   uuid.New(),
		Description: "Fauteuil Milo",
		Quantity:    decimal.NewFromInt(2),
		UnitPriceHT: decimal.NewFromInt(100),
		TaxRate:     dec("0.2"),
	})
	require.NoError(t, err)
	require.NoError(t, order.SetFees(trade.Fees{ShippingHT: decimal.NewFromInt(20), VATRate: dec("0.2")}))
	order.SetAddresses(valueobject.NewAddress("12 rue du Bac", "Paris", "75007", ""), valueobject.Address{})
	order.Status = trade.OrderStatusConfirmed
	order.ClearDomainEvents()
	return order
}

func linkedDocument(t *testing.T, order *trade.SalesOrder) *finance.FinancialDocument {
	t.Helper()
	chair, cushion := uuid.New(), uuid.New()
	doc, err := finance.NewInvoiceMirror(order, "inv_1", "F-2026-0001", []finance.FinancialDocumentItem{
		{ProductID: &chair, Description: "Fauteuil Milo", Quantity: dec("3"), UnitPriceHT: dec("100"), TVARate: dec("20")},
		{ProductID: &cushion, Description: "Coussin", Quantity: dec("1"), UnitPriceHT: dec("30"), TVARate: dec("10")},
		{Kind: finance.ItemKindServiceFee, Description: "Frais de livraison", Quantity: dec("1"), UnitPriceHT: dec("20"), TVARate: dec("20")},
	}, shared.NewActor(uuid.New()))
	require.NoError(t, err)
	doc.ClearDomainEvents()
	return doc
}

func newTestSyncService(orders *MockSalesOrderRepository, docs *MockDocumentRepository) (*DocumentSyncService, *MockEventPublisher) {
	scope := appshared.NewNoOpTransactionScope(nil, orders, nil, docs)
	svc := NewDocumentSyncService(scope, nil)
	publisher := &MockEventPublisher{}
	svc.SetEventPublisher(publisher)
	return svc, publisher
}

func TestDocumentSyncService_SyncToOrder(t *testing.T) {
	ctx := context.Background()
	actor := shared.NewActor(uuid.New())

	t.Run("replaces lines and totals", func(t *testing.T) {
		orders := new(MockSalesOrderRepository)
		docs := new(MockDocumentRepository)
		svc, publisher := newTestSyncService(orders, docs)
		order := confirmedOrder(t)
		doc := linkedDocument(t, order)

		docs.On("FindByID", ctx, doc.ID).Return(doc, nil)
		orders.On("FindByID", ctx, order.ID, true).Return(order, nil)
		orders.On("Save", ctx, order).Return(nil)
		orders.On("ReplaceItems", ctx, order.ID, mock.MatchedBy(func(items []trade.SalesOrderItem) bool {
			return len(items) == 2 && items[1].TaxRate.Equal(dec("0.1")) && items[1].Position == 1
		})).Return(nil)

		resp, err := svc.SyncToOrder(ctx, doc.ID, actor)
		require.NoError(t, err)

		// 300 + 30 + 20 fees; VAT 60 + 3 + 4
		assert.Equal(t, "350", resp.Order.TotalHT.String())
		assert.Equal(t, "67", resp.Order.TaxAmount.String())
		assert.Equal(t, "417", resp.Order.TotalTTC.String())
		assert.Len(t, resp.Order.Items, 2)
		assert.Len(t, publisher.GetEventsByType(trade.EventTypeSalesOrderSynced), 1)
		orders.AssertExpectations(t)
	})

	t.Run("running twice gives the same result", func(t *testing.T) {
		orders := new(MockSalesOrderRepository)
		docs := new(MockDocumentRepository)
		svc, _ := newTestSyncService(orders, docs)
		order := confirmedOrder(t)
		doc := linkedDocument(t, order)

		docs.On("FindByID", ctx, doc.ID).Return(doc, nil)
		orders.On("FindByID", ctx, order.ID, true).Return(order, nil)
		orders.On("Save", ctx, order).Return(nil)
		orders.On("ReplaceItems", ctx, order.ID, mock.Anything).Return(nil)

		first, err := svc.SyncToOrder(ctx, doc.ID, actor)
		require.NoError(t, err)
		second, err := svc.SyncToOrder(ctx, doc.ID, actor)
		require.NoError(t, err)
		assert.True(t, first.Order.TotalTTC.Equal(second.Order.TotalTTC))
		assert.Equal(t, len(first.Order.Items), len(second.Order.Items))
	})

	t.Run("unlinked document", func(t *testing.T) {
		orders := new(MockSalesOrderRepository)
		docs := new(MockDocumentRepository)
		svc, _ := newTestSyncService(orders, docs)
		doc := linkedDocument(t, confirmedOrder(t))
		doc.SalesOrderID = nil

		docs.On("FindByID", ctx, doc.ID).Return(doc, nil)

		_, err := svc.SyncToOrder(ctx, doc.ID, actor)
		assertCode(t, err, finance.CodeInvoiceNotLinked)
		orders.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("finalized document", func(t *testing.T) {
		orders := new(MockSalesOrderRepository)
		docs := new(MockDocumentRepository)
		svc, _ := newTestSyncService(orders, docs)
		doc := linkedDocument(t, confirmedOrder(t))
		doc.WorkflowStatus = finance.WorkflowFinalized

		docs.On("FindByID", ctx, doc.ID).Return(doc, nil)

		_, err := svc.SyncToOrder(ctx, doc.ID, actor)
		assertCode(t, err, finance.CodeInvoiceNotEditable)
		orders.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("finalized document of a deleted order", func(t *testing.T) {
		orders := new(MockSalesOrderRepository)
		docs := new(MockDocumentRepository)
		svc, _ := newTestSyncService(orders, docs)
		doc := linkedDocument(t, confirmedOrder(t))
		doc.WorkflowStatus = finance.WorkflowPaid

		docs.On("FindByID", ctx, doc.ID).Return(doc, nil)
		orders.On("FindByID", ctx, *doc.SalesOrderID, true).Return(nil, shared.ErrNotFound).Maybe()

		_, err := svc.SyncToOrder(ctx, doc.ID, actor)
		assertCode(t, err, finance.CodeInvoiceNotEditable)
	})

	t.Run("product line without product", func(t *testing.T) {
		orders := new(MockSalesOrderRepository)
		docs := new(MockDocumentRepository)
		svc, publisher := newTestSyncService(orders, docs)
		order := confirmedOrder(t)
		doc := linkedDocument(t, order)
		doc.Items[1].ProductID = nil

		docs.On("FindByID", ctx, doc.ID).Return(doc, nil)
		orders.On("FindByID", ctx, order.ID, true).Return(order, nil)

		_, err := svc.SyncToOrder(ctx, doc.ID, actor)
		assertCode(t, err, "INVALID_PRODUCT")
		assert.Equal(t, shared.KindValidation, shared.KindOf(err))
		orders.AssertNotCalled(t, "ReplaceItems", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, publisher.GetEventsByType(trade.EventTypeSalesOrderSynced))
	})

	t.Run("shipped order", func(t *testing.T) {
		orders := new(MockSalesOrderRepository)
		docs := new(MockDocumentRepository)
		svc, _ := newTestSyncService(orders, docs)
		order := confirmedOrder(t)
		doc := linkedDocument(t, order)
		order.Status = trade.OrderStatusShipped

		docs.On("FindByID", ctx, doc.ID).Return(doc, nil)
		orders.On("FindByID", ctx, order.ID, true).Return(order, nil)

		_, err := svc.SyncToOrder(ctx, doc.ID, actor)
		assertCode(t, err, trade.CodeOrderNotModifiable)
		assert.Equal(t, shared.KindInvalidTransition, shared.KindOf(err))
	})

	t.Run("line replacement failure surfaces", func(t *testing.T) {
		orders := new(MockSalesOrderRepository)
		docs := new(MockDocumentRepository)
		svc, publisher := newTestSyncService(orders, docs)
		order := confirmedOrder(t)
		doc := linkedDocument(t, order)

		docs.On("FindByID", ctx, doc.ID).Return(doc, nil)
		orders.On("FindByID", ctx, order.ID, true).Return(order, nil)
		orders.On("Save", ctx, order).Return(nil)
		orders.On("ReplaceItems", ctx, order.ID, mock.Anything).
			Return(shared.NewPersistenceError("replace sales order items", errors.New("connection reset")))

		_, err := svc.SyncToOrder(ctx, doc.ID, actor)
		assert.Equal(t, shared.KindPersistence, shared.KindOf(err))
		assert.Empty(t, publisher.GetEventsByType(trade.EventTypeSalesOrderSynced))
	})
}
