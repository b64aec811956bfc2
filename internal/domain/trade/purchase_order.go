package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/verone/backoffice/internal/domain/shared"
)

// PurchaseOrderStatus represents the status of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft             PurchaseOrderStatus = "draft"
	PurchaseOrderStatusValidated         PurchaseOrderStatus = "validated"
	PurchaseOrderStatusPartiallyReceived PurchaseOrderStatus = "partially_received"
	PurchaseOrderStatusReceived          PurchaseOrderStatus = "received"
	PurchaseOrderStatusCancelled         PurchaseOrderStatus = "cancelled"
)

// IsValid checks if the status is a valid PurchaseOrderStatus
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderStatusDraft, PurchaseOrderStatusValidated, PurchaseOrderStatusPartiallyReceived,
		PurchaseOrderStatusReceived, PurchaseOrderStatusCancelled:
		return true
	}
	return false
}

// ParsePurchaseOrderStatus parses a status name, accepting "confirmed" for validated
func ParsePurchaseOrderStatus(s string) (PurchaseOrderStatus, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == string(OrderStatusConfirmed) {
		return PurchaseOrderStatusValidated, nil
	}
	status := PurchaseOrderStatus(s)
	if !status.IsValid() {
		return "", shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown purchase order status: %q", s))
	}
	return status, nil
}

// CanReceive returns true if goods can be received in this status
func (s PurchaseOrderStatus) CanReceive() bool {
	return s == PurchaseOrderStatusValidated || s == PurchaseOrderStatusPartiallyReceived
}

// PurchaseOrderItem represents a line item in a purchase order.
// QuantityReceived is a cached projection of the ledger and is only refreshed
// through ApplyReception.
type PurchaseOrderItem struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	ProductID        uuid.UUID
	Description      string
	QuantityOrdered  decimal.Decimal
	QuantityReceived decimal.Decimal
	UnitCost         decimal.Decimal
	Position         int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// RemainingQuantity returns the quantity still to be received
func (i *PurchaseOrderItem) RemainingQuantity() decimal.Decimal {
	return remaining(i.QuantityOrdered, i.QuantityReceived)
}

// IsFullyReceived returns true if all ordered quantity has been received
func (i *PurchaseOrderItem) IsFullyReceived() bool {
	return i.QuantityReceived.GreaterThanOrEqual(i.QuantityOrdered)
}

func remaining(ordered, received decimal.Decimal) decimal.Decimal {
	r := ordered.Sub(received)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// PurchaseOrder is the aggregate for inbound goods
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	OrderNumber  string
	SupplierID   uuid.UUID
	SupplierName string
	Status       PurchaseOrderStatus
	Items        []PurchaseOrderItem
	Notes        string
	ValidatedAt  *time.Time
	ReceivedAt   *time.Time
	ReceivedBy   *uuid.UUID
}

// ReceptionLine is one caller-supplied (line, quantity) pair
type ReceptionLine struct {
	ItemID   uuid.UUID
	Quantity decimal.Decimal
}

// ReceptionRequest is the input of one reception event
type ReceptionRequest struct {
	Lines      []ReceptionLine
	ReceivedAt time.Time
	Actor      shared.Actor
	Notes      string
}

// PlannedReception is an accepted line of a reception, ready to be written
type PlannedReception struct {
	ItemID          uuid.UUID
	ProductID       uuid.UUID
	Quantity        decimal.Decimal
	UnitCost        decimal.Decimal
	AlreadyReceived decimal.Decimal
}

// ReceptionPlan is the validated form of a ReceptionRequest
type ReceptionPlan struct {
	ReceptionID uuid.UUID
	OrderID     uuid.UUID
	ReceivedAt  time.Time
	Actor       shared.Actor
	Lines       []PlannedReception
}

// TotalQuantity sums the accepted quantities
func (p *ReceptionPlan) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, l := range p.Lines {
		total = total.Add(l.Quantity)
	}
	return total
}

// PlanReception validates req against the quantities already received per
// item (as recorded in the ledger) and returns the lines to write. Nothing is
// mutated: every check runs before any write is attempted.
func (o *PurchaseOrder) PlanReception(req ReceptionRequest, alreadyReceived map[uuid.UUID]decimal.Decimal) (*ReceptionPlan, error) {
	if err := req.Actor.Require(); err != nil {
		return nil, err
	}
	if !o.Status.CanReceive() {
		return nil, shared.NewDomainError("ORDER_NOT_RECEIVABLE",
			fmt.Sprintf("Cannot receive goods for purchase order %s in %s status", o.OrderNumber, o.Status))
	}

	seen := make(map[uuid.UUID]bool, len(req.Lines))
	planned := make([]PlannedReception, 0, len(req.Lines))
	for _, line := range req.Lines {
		if seen[line.ItemID] {
			return nil, shared.NewDomainError("DUPLICATE_RECEPTION_LINE",
				fmt.Sprintf("Line %s appears more than once in the reception", line.ItemID))
		}
		seen[line.ItemID] = true

		item := o.GetItem(line.ItemID)
		if item == nil {
			return nil, shared.NewDomainError("PO_ITEM_NOT_FOUND",
				fmt.Sprintf("Line %s does not belong to purchase order %s", line.ItemID, o.OrderNumber))
		}
		if line.Quantity.IsNegative() {
			return nil, shared.NewDomainError("INVALID_QUANTITY",
				fmt.Sprintf("Quantity to receive for line %d cannot be negative", item.Position+1))
		}

		received := alreadyReceived[item.ID]
		left := remaining(item.QuantityOrdered, received)
		if line.Quantity.GreaterThan(left) {
			return nil, shared.NewDomainError("QUANTITY_EXCEEDS_REMAINING",
				fmt.Sprintf("Cannot receive %s for line %d (%s), only %s remaining",
					line.Quantity.String(), item.Position+1, item.Description, left.String()))
		}
		if line.Quantity.IsZero() {
			continue
		}

		planned = append(planned, PlannedReception{
			ItemID:          item.ID,
			ProductID:       item.ProductID,
			Quantity:        line.Quantity,
			UnitCost:        item.UnitCost,
			AlreadyReceived: received,
		})
	}

	if len(planned) == 0 {
		return nil, shared.NewDomainError("EMPTY_RECEPTION", "Select at least one line with a quantity to receive")
	}

	receivedAt := req.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	return &ReceptionPlan{
		ReceptionID: uuid.New(),
		OrderID:     o.ID,
		ReceivedAt:  receivedAt,
		Actor:       req.Actor,
		Lines:       planned,
	}, nil
}

// ApplyReception refreshes the cached received quantities from the ledger
// totals (prior receptions plus this plan) and derives the status.
func (o *PurchaseOrder) ApplyReception(plan *ReceptionPlan, alreadyReceived map[uuid.UUID]decimal.Decimal) {
	added := make(map[uuid.UUID]decimal.Decimal, len(plan.Lines))
	for _, l := range plan.Lines {
		added[l.ItemID] = l.Quantity
	}
	for i := range o.Items {
		item := &o.Items[i]
		item.QuantityReceived = alreadyReceived[item.ID].Add(added[item.ID])
		item.UpdatedAt = plan.ReceivedAt
	}

	if o.IsFullyReceived() {
		o.Status = PurchaseOrderStatusReceived
	} else {
		o.Status = PurchaseOrderStatusPartiallyReceived
	}
	by := plan.Actor.UserID
	at := plan.ReceivedAt
	o.ReceivedAt = &at
	o.ReceivedBy = &by
	o.Touch(at)
	o.IncrementVersion()
	o.AddDomainEvent(NewGoodsReceivedEvent(o, plan))
}

// IsFullyReceived is true when every line has received at least its ordered quantity
func (o *PurchaseOrder) IsFullyReceived() bool {
	if len(o.Items) == 0 {
		return false
	}
	for i := range o.Items {
		if !o.Items[i].IsFullyReceived() {
			return false
		}
	}
	return true
}

// GetItem returns the line with the given ID, nil if absent
func (o *PurchaseOrder) GetItem(itemID uuid.UUID) *PurchaseOrderItem {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}

// ReceiveProgress returns received/ordered across all lines as a percentage
func (o *PurchaseOrder) ReceiveProgress() decimal.Decimal {
	ordered := decimal.Zero
	received := decimal.Zero
	for i := range o.Items {
		ordered = ordered.Add(o.Items[i].QuantityOrdered)
		received = received.Add(decimal.Min(o.Items[i].QuantityReceived, o.Items[i].QuantityOrdered))
	}
	if ordered.IsZero() {
		return decimal.Zero
	}
	return received.Div(ordered).Mul(hundred).Round(2)
}
