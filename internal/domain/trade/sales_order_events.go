package trade

import (
	"github.com/google/uuid"
	"github.com/verone/backoffice/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeSalesOrder = "SalesOrder"

// Event type constants
const (
	EventTypeSalesOrderCreated       = "SalesOrderCreated"
	EventTypeSalesOrderStatusChanged = "SalesOrderStatusChanged"
	EventTypeSalesOrderDeleted       = "SalesOrderDeleted"
	EventTypeSalesOrderSynced        = "SalesOrderSyncedFromDocument"
)

// SalesOrderCreatedEvent is raised when a new sales order is created
type SalesOrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderNumber  string       `json:"order_number"`
	CustomerID   uuid.UUID    `json:"customer_id"`
	CustomerKind CustomerKind `json:"customer_kind"`
}

// NewSalesOrderCreatedEvent creates a new SalesOrderCreatedEvent
func NewSalesOrderCreatedEvent(order *SalesOrder, actor shared.Actor) *SalesOrderCreatedEvent {
	return &SalesOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesOrderCreated, AggregateTypeSalesOrder, order.ID, actor),
		OrderNumber:     order.OrderNumber,
		CustomerID:      order.Customer.CustomerID(),
		CustomerKind:    order.Customer.Kind(),
	}
}

// SalesOrderStatusChangedEvent is raised by every successful transition
type SalesOrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string      `json:"order_number"`
	From        OrderStatus `json:"from"`
	To          OrderStatus `json:"to"`
}

// NewSalesOrderStatusChangedEvent creates a new SalesOrderStatusChangedEvent
func NewSalesOrderStatusChangedEvent(order *SalesOrder, from, to OrderStatus, actor shared.Actor) *SalesOrderStatusChangedEvent {
	return &SalesOrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesOrderStatusChanged, AggregateTypeSalesOrder, order.ID, actor),
		OrderNumber:     order.OrderNumber,
		From:            from,
		To:              to,
	}
}

// SalesOrderDeletedEvent is raised after a hard delete
type SalesOrderDeletedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string      `json:"order_number"`
	Status      OrderStatus `json:"status"`
}

// NewSalesOrderDeletedEvent creates a new SalesOrderDeletedEvent
func NewSalesOrderDeletedEvent(order *SalesOrder, actor shared.Actor) *SalesOrderDeletedEvent {
	return &SalesOrderDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesOrderDeleted, AggregateTypeSalesOrder, order.ID, actor),
		OrderNumber:     order.OrderNumber,
		Status:          order.Status,
	}
}

// SalesOrderSyncedEvent is raised when an order is rewritten from a financial document
type SalesOrderSyncedEvent struct {
	shared.BaseDomainEvent
	DocumentID uuid.UUID `json:"document_id"`
	LineCount  int       `json:"line_count"`
}

// NewSalesOrderSyncedEvent creates a new SalesOrderSyncedEvent
func NewSalesOrderSyncedEvent(order *SalesOrder, documentID uuid.UUID, actor shared.Actor) *SalesOrderSyncedEvent {
	return &SalesOrderSyncedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesOrderSynced, AggregateTypeSalesOrder, order.ID, actor),
		DocumentID:      documentID,
		LineCount:       len(order.Items),
	}
}
