package trade

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	appshared "github.com/verone/backoffice/internal/application/shared"
	"github.com/verone/backoffice/internal/domain/inventory"
	"github.com/verone/backoffice/internal/domain/shared"
	"github.com/verone/backoffice/internal/domain/trade"
)

type receptionFixture struct {
	svc       *ReceptionService
	orders    *MockPurchaseOrderRepository
	ledger    *MockStockMovementRepository
	idem      *MockIdempotencyStore
	publisher *MockEventPublisher
	order     *trade.PurchaseOrder
}

func newReceptionFixture(t *testing.T) *receptionFixture {
	t.Helper()
	orders := new(MockPurchaseOrderRepository)
	ledger := new(MockStockMovementRepository)
	idem := new(MockIdempotencyStore)
	scope := appshared.NewNoOpTransactionScope(ledger, nil, orders, nil)

	svc := NewReceptionService(orders, ledger, scope, nil)
	svc.SetIdempotencyStore(idem, 0)
	publisher := &MockEventPublisher{}
	svc.SetEventPublisher(publisher)

	order := &trade.PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(uuid.New()),
		OrderNumber:       "PO-2026-00007",
		SupplierID:        uuid.New(),
		SupplierName:      "Ebénisterie Laurent",
		Status:            trade.PurchaseOrderStatusValidated,
	}
	order.Items = []trade.PurchaseOrderItem{
		{ID: uuid.New(), OrderID: order.ID, ProductID: uuid.New(), QuantityOrdered: decimal.NewFromInt(10), QuantityReceived: decimal.NewFromInt(6), UnitCost: decimal.NewFromInt(80)},
		{ID: uuid.New(), OrderID: order.ID, ProductID: uuid.New(), QuantityOrdered: decimal.NewFromInt(5), UnitCost: decimal.NewFromInt(30), Position: 1},
	}

	return &receptionFixture{svc: svc, orders: orders, ledger: ledger, idem: idem, publisher: publisher, order: order}
}

func TestReceptionService_Receive(t *testing.T) {
	ctx := context.Background()
	actor := shared.NewActor(uuid.New())

	t.Run("completes the order and chains ledger entries", func(t *testing.T) {
		f := newReceptionFixture(t)
		lineA, lineB := f.order.Items[0], f.order.Items[1]
		prior := inventory.StockMovement{
			ProductID: lineA.ProductID, Sequence: 3,
			QuantityBefore: decimal.NewFromInt(2), QuantityChange: decimal.NewFromInt(4), QuantityAfter: decimal.NewFromInt(6),
		}

		f.idem.On("MarkProcessed", ctx, mock.Anything, shared.DefaultIdempotencyTTL).Return(true, nil)
		f.orders.On("FindByID", ctx, f.order.ID, true).Return(f.order, nil)
		f.ledger.On("SumByReference", ctx, inventory.ReferencePurchaseOrder, f.order.ID).
			Return(map[uuid.UUID]decimal.Decimal{lineA.ID: decimal.NewFromInt(6)}, nil)
		f.ledger.On("LatestForProduct", ctx, lineA.ProductID, true).Return(&prior, nil)
		f.ledger.On("LatestForProduct", ctx, lineB.ProductID, true).Return(nil, nil)
		f.ledger.On("Append", ctx, mock.Anything).Return(nil).Twice()
		f.orders.On("Save", ctx, f.order).Return(nil)

		resp, err := f.svc.Receive(ctx, f.order.ID, ReceivePurchaseOrderRequest{
			Lines: []ReceptionLineInput{
				{ItemID: lineA.ID, Quantity: decimal.NewFromInt(4)},
				{ItemID: lineB.ID, Quantity: decimal.NewFromInt(5)},
			},
		}, actor, "retry-1")
		require.NoError(t, err)

		assert.True(t, resp.Complete)
		assert.Equal(t, "received", resp.Order.Status)
		require.Len(t, resp.Movements, 2)

		first := resp.Movements[0]
		assert.Equal(t, int64(4), first.Sequence)
		assert.Equal(t, "6", first.QuantityBefore.String())
		assert.Equal(t, "10", first.QuantityAfter.String())
		assert.Equal(t, "purchase_order", first.ReferenceType)
		assert.Equal(t, lineA.ID, *first.ReferenceLineID)
		assert.Equal(t, resp.ReceptionID, *first.BatchID)
		assert.Equal(t, resp.ReceptionID, *resp.Movements[1].BatchID)
		assert.Equal(t, int64(1), resp.Movements[1].Sequence)

		assert.True(t, resp.Order.Items[0].RemainingQuantity.IsZero())
		assert.Len(t, f.publisher.GetEventsByType(trade.EventTypePurchaseOrderGoodsReceived), 1)
		assert.Len(t, f.publisher.GetEventsByType(inventory.EventTypeStockMovementRecorded), 2)
		f.ledger.AssertExpectations(t)
		f.orders.AssertExpectations(t)
	})

	t.Run("partial reception", func(t *testing.T) {
		f := newReceptionFixture(t)
		lineB := f.order.Items[1]

		f.orders.On("FindByID", ctx, f.order.ID, true).Return(f.order, nil)
		f.ledger.On("SumByReference", ctx, inventory.ReferencePurchaseOrder, f.order.ID).
			Return(map[uuid.UUID]decimal.Decimal{}, nil)
		f.ledger.On("LatestForProduct", ctx, lineB.ProductID, true).Return(nil, nil)
		f.ledger.On("Append", ctx, mock.Anything).Return(nil).Once()
		f.orders.On("Save", ctx, f.order).Return(nil)

		resp, err := f.svc.Receive(ctx, f.order.ID, ReceivePurchaseOrderRequest{
			Lines: []ReceptionLineInput{{ItemID: lineB.ID, Quantity: decimal.NewFromInt(2)}},
		}, actor, "")
		require.NoError(t, err)
		assert.False(t, resp.Complete)
		assert.Equal(t, "partially_received", resp.Order.Status)
		f.idem.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("over-receipt writes nothing and frees the key", func(t *testing.T) {
		f := newReceptionFixture(t)
		lineA, lineB := f.order.Items[0], f.order.Items[1]

		f.idem.On("MarkProcessed", ctx, mock.Anything, shared.DefaultIdempotencyTTL).Return(true, nil)
		f.idem.On("Release", ctx, mock.Anything).Return(nil)
		f.orders.On("FindByID", ctx, f.order.ID, true).Return(f.order, nil)
		f.ledger.On("SumByReference", ctx, inventory.ReferencePurchaseOrder, f.order.ID).
			Return(map[uuid.UUID]decimal.Decimal{lineA.ID: decimal.NewFromInt(6)}, nil)

		_, err := f.svc.Receive(ctx, f.order.ID, ReceivePurchaseOrderRequest{
			Lines: []ReceptionLineInput{
				{ItemID: lineB.ID, Quantity: decimal.NewFromInt(1)},
				{ItemID: lineA.ID, Quantity: decimal.NewFromInt(5)},
			},
		}, actor, "retry-2")
		assertCode(t, err, "QUANTITY_EXCEEDS_REMAINING")
		f.ledger.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
		f.orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		f.idem.AssertCalled(t, "Release", ctx, mock.Anything)
		assert.Empty(t, f.publisher.GetEvents())
	})

	t.Run("replayed key", func(t *testing.T) {
		f := newReceptionFixture(t)

		f.idem.On("MarkProcessed", ctx, mock.Anything, shared.DefaultIdempotencyTTL).Return(false, nil)

		_, err := f.svc.Receive(ctx, f.order.ID, ReceivePurchaseOrderRequest{
			Lines: []ReceptionLineInput{{ItemID: f.order.Items[1].ID, Quantity: decimal.NewFromInt(1)}},
		}, actor, "retry-1")
		assert.ErrorIs(t, err, shared.ErrDuplicateRequest)
		f.orders.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cancelled order", func(t *testing.T) {
		f := newReceptionFixture(t)
		f.order.Status = trade.PurchaseOrderStatusCancelled

		f.orders.On("FindByID", ctx, f.order.ID, true).Return(f.order, nil)
		f.ledger.On("SumByReference", ctx, inventory.ReferencePurchaseOrder, f.order.ID).
			Return(map[uuid.UUID]decimal.Decimal{}, nil)

		_, err := f.svc.Receive(ctx, f.order.ID, ReceivePurchaseOrderRequest{
			Lines: []ReceptionLineInput{{ItemID: f.order.Items[1].ID, Quantity: decimal.NewFromInt(1)}},
		}, actor, "")
		assertCode(t, err, "ORDER_NOT_RECEIVABLE")
	})
}

func TestReceptionService_GetPurchaseOrder(t *testing.T) {
	ctx := context.Background()
	f := newReceptionFixture(t)
	lineA := f.order.Items[0]

	f.orders.On("FindByID", ctx, f.order.ID, false).Return(f.order, nil)
	f.ledger.On("SumByReference", ctx, inventory.ReferencePurchaseOrder, f.order.ID).
		Return(map[uuid.UUID]decimal.Decimal{lineA.ID: decimal.NewFromInt(7)}, nil)

	resp, err := f.svc.GetPurchaseOrder(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, "7", resp.Items[0].QuantityReceived.String())
	assert.Equal(t, "3", resp.Items[0].RemainingQuantity.String())
	assert.True(t, resp.Items[1].QuantityReceived.IsZero())
}
