package trade

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/verone/backoffice/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypePurchaseOrder = "PurchaseOrder"

// Event type constants
const (
	EventTypePurchaseOrderGoodsReceived = "PurchaseOrderGoodsReceived"
)

// ReceivedLineInfo describes one line of a reception for event consumers
type ReceivedLineInfo struct {
	ItemID    uuid.UUID       `json:"item_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// GoodsReceivedEvent is raised when goods are received against a purchase order
type GoodsReceivedEvent struct {
	shared.BaseDomainEvent
	ReceptionID  uuid.UUID           `json:"reception_id"`
	OrderNumber  string              `json:"order_number"`
	SupplierID   uuid.UUID           `json:"supplier_id"`
	Status       PurchaseOrderStatus `json:"status"`
	Lines        []ReceivedLineInfo  `json:"lines"`
	FullReceived bool                `json:"fully_received"`
}

// NewGoodsReceivedEvent creates a new GoodsReceivedEvent
func NewGoodsReceivedEvent(order *PurchaseOrder, plan *ReceptionPlan) *GoodsReceivedEvent {
	lines := make([]ReceivedLineInfo, len(plan.Lines))
	for i, l := range plan.Lines {
		lines[i] = ReceivedLineInfo{
			ItemID:    l.ItemID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost,
		}
	}
	return &GoodsReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderGoodsReceived, AggregateTypePurchaseOrder, order.ID, plan.Actor),
		ReceptionID:     plan.ReceptionID,
		OrderNumber:     order.OrderNumber,
		SupplierID:      order.SupplierID,
		Status:          order.Status,
		Lines:           lines,
		FullReceived:    order.Status == PurchaseOrderStatusReceived,
	}
}
