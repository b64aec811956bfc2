package trade

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verone/backoffice/internal/domain/shared"
)

func createTestPurchaseOrder(t *testing.T, ordered ...int64) *PurchaseOrder {
	t.Helper()
	po := &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(uuid.New()),
		OrderNumber:       "PO-2026-00007",
		SupplierID:        uuid.New(),
		SupplierName:      "Atelier Lumière",
		Status:            PurchaseOrderStatusValidated,
	}
	for i, q := range ordered {
		po.Items = append(po.Items, PurchaseOrderItem{
			ID:              uuid.New(),
			OrderID:         po.ID,
			ProductID:       uuid.New(),
			Description:     "Lampe",
			QuantityOrdered: decimal.NewFromInt(q),
			UnitCost:        decimal.NewFromInt(25),
			Position:        i,
		})
	}
	return po
}

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func TestParsePurchaseOrderStatus(t *testing.T) {
	got, err := ParsePurchaseOrderStatus("confirmed")
	require.NoError(t, err)
	assert.Equal(t, PurchaseOrderStatusValidated, got)

	got, err = ParsePurchaseOrderStatus("partially_received")
	require.NoError(t, err)
	assert.Equal(t, PurchaseOrderStatusPartiallyReceived, got)

	_, err = ParsePurchaseOrderStatus("completed")
	assertCode(t, err, "INVALID_STATUS")
}

func TestPurchaseOrderStatus_CanReceive(t *testing.T) {
	assert.True(t, PurchaseOrderStatusValidated.CanReceive())
	assert.True(t, PurchaseOrderStatusPartiallyReceived.CanReceive())
	assert.False(t, PurchaseOrderStatusDraft.CanReceive())
	assert.False(t, PurchaseOrderStatusReceived.CanReceive())
	assert.False(t, PurchaseOrderStatusCancelled.CanReceive())
}

func TestPurchaseOrderItem_RemainingQuantity(t *testing.T) {
	item := PurchaseOrderItem{QuantityOrdered: qty(10), QuantityReceived: qty(6)}
	assert.True(t, item.RemainingQuantity().Equal(qty(4)))

	item.QuantityReceived = qty(12)
	assert.True(t, item.RemainingQuantity().IsZero())
	assert.True(t, item.IsFullyReceived())
}

func TestPurchaseOrder_PlanReception(t *testing.T) {
	actor := shared.NewActor(uuid.New())

	t.Run("completes a partially received line", func(t *testing.T) {
		po := createTestPurchaseOrder(t, 10)
		line := po.Items[0]
		prior := map[uuid.UUID]decimal.Decimal{line.ID: qty(6)}

		plan, err := po.PlanReception(ReceptionRequest{
			Lines: []ReceptionLine{{ItemID: line.ID, Quantity: qty(4)}},
			Actor: actor,
		}, prior)
		require.NoError(t, err)

		require.Len(t, plan.Lines, 1)
		assert.True(t, plan.Lines[0].Quantity.Equal(qty(4)))
		assert.True(t, plan.Lines[0].AlreadyReceived.Equal(qty(6)))
		assert.Equal(t, line.ProductID, plan.Lines[0].ProductID)
		assert.NotEqual(t, uuid.Nil, plan.ReceptionID)
		assert.False(t, plan.ReceivedAt.IsZero())

		po.ApplyReception(plan, prior)
		assert.True(t, po.Items[0].QuantityReceived.Equal(qty(10)))
		assert.True(t, po.Items[0].RemainingQuantity().IsZero())
		assert.Equal(t, PurchaseOrderStatusReceived, po.Status)
		require.Len(t, po.GetDomainEvents(), 1)
		received, ok := po.GetDomainEvents()[0].(*GoodsReceivedEvent)
		require.True(t, ok)
		assert.True(t, received.FullReceived)
	})

	t.Run("partial reception keeps order open", func(t *testing.T) {
		po := createTestPurchaseOrder(t, 10, 5)
		plan, err := po.PlanReception(ReceptionRequest{
			Lines: []ReceptionLine{
				{ItemID: po.Items[0].ID, Quantity: qty(10)},
				{ItemID: po.Items[1].ID, Quantity: qty(2)},
			},
			Actor: actor,
		}, nil)
		require.NoError(t, err)
		assert.True(t, plan.TotalQuantity().Equal(qty(12)))

		po.ApplyReception(plan, nil)
		assert.Equal(t, PurchaseOrderStatusPartiallyReceived, po.Status)
		assert.Equal(t, "80", po.ReceiveProgress().String())
	})

	t.Run("zero quantities are skipped", func(t *testing.T) {
		po := createTestPurchaseOrder(t, 3, 3)
		plan, err := po.PlanReception(ReceptionRequest{
			Lines: []ReceptionLine{
				{ItemID: po.Items[0].ID, Quantity: decimal.Zero},
				{ItemID: po.Items[1].ID, Quantity: qty(1)},
			},
			Actor: actor,
		}, nil)
		require.NoError(t, err)
		require.Len(t, plan.Lines, 1)
		assert.Equal(t, po.Items[1].ID, plan.Lines[0].ItemID)
	})

	t.Run("uses ledger totals rather than cached quantity", func(t *testing.T) {
		po := createTestPurchaseOrder(t, 10)
		po.Items[0].QuantityReceived = decimal.Zero
		prior := map[uuid.UUID]decimal.Decimal{po.Items[0].ID: qty(9)}

		_, err := po.PlanReception(ReceptionRequest{
			Lines: []ReceptionLine{{ItemID: po.Items[0].ID, Quantity: qty(2)}},
			Actor: actor,
		}, prior)
		assertCode(t, err, "QUANTITY_EXCEEDS_REMAINING")
		assert.Contains(t, err.Error(), "line 1")
	})

	rejections := []struct {
		name  string
		setup func(po *PurchaseOrder) ReceptionRequest
		code  string
	}{
		{"missing actor", func(po *PurchaseOrder) ReceptionRequest {
			return ReceptionRequest{Lines: []ReceptionLine{{ItemID: po.Items[0].ID, Quantity: qty(1)}}}
		}, "MISSING_ACTOR"},
		{"empty request", func(po *PurchaseOrder) ReceptionRequest {
			return ReceptionRequest{Actor: actor}
		}, "EMPTY_RECEPTION"},
		{"all zero", func(po *PurchaseOrder) ReceptionRequest {
			return ReceptionRequest{Actor: actor, Lines: []ReceptionLine{{ItemID: po.Items[0].ID, Quantity: decimal.Zero}}}
		}, "EMPTY_RECEPTION"},
		{"draft order", func(po *PurchaseOrder) ReceptionRequest {
			po.Status = PurchaseOrderStatusDraft
			return ReceptionRequest{Actor: actor, Lines: []ReceptionLine{{ItemID: po.Items[0].ID, Quantity: qty(1)}}}
		}, "ORDER_NOT_RECEIVABLE"},
		{"unknown line", func(po *PurchaseOrder) ReceptionRequest {
			return ReceptionRequest{Actor: actor, Lines: []ReceptionLine{{ItemID: uuid.New(), Quantity: qty(1)}}}
		}, "PO_ITEM_NOT_FOUND"},
		{"negative quantity", func(po *PurchaseOrder) ReceptionRequest {
			return ReceptionRequest{Actor: actor, Lines: []ReceptionLine{{ItemID: po.Items[0].ID, Quantity: qty(-1)}}}
		}, "INVALID_QUANTITY"},
		{"over remaining", func(po *PurchaseOrder) ReceptionRequest {
			return ReceptionRequest{Actor: actor, Lines: []ReceptionLine{{ItemID: po.Items[0].ID, Quantity: qty(11)}}}
		}, "QUANTITY_EXCEEDS_REMAINING"},
		{"duplicate line", func(po *PurchaseOrder) ReceptionRequest {
			return ReceptionRequest{Actor: actor, Lines: []ReceptionLine{
				{ItemID: po.Items[0].ID, Quantity: qty(1)},
				{ItemID: po.Items[0].ID, Quantity: qty(1)},
			}}
		}, "DUPLICATE_RECEPTION_LINE"},
	}
	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			po := createTestPurchaseOrder(t, 10)
			req := tt.setup(po)
			status := po.Status

			plan, err := po.PlanReception(req, nil)
			assert.Nil(t, plan)
			assertCode(t, err, tt.code)
			assert.Equal(t, status, po.Status)
			assert.True(t, po.Items[0].QuantityReceived.IsZero())
		})
	}
}

func TestPurchaseOrder_ApplyReception_Stamps(t *testing.T) {
	po := createTestPurchaseOrder(t, 2)
	actor := shared.NewActor(uuid.New())
	at := time.Date(2026, 5, 2, 14, 0, 0, 0, time.UTC)

	plan, err := po.PlanReception(ReceptionRequest{
		Lines:      []ReceptionLine{{ItemID: po.Items[0].ID, Quantity: qty(2)}},
		ReceivedAt: at,
		Actor:      actor,
	}, nil)
	require.NoError(t, err)
	po.ApplyReception(plan, nil)

	assert.Equal(t, at, *po.ReceivedAt)
	assert.Equal(t, actor.UserID, *po.ReceivedBy)
	assert.Equal(t, 2, po.Version)
}
