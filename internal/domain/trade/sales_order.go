package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/verone/backoffice/internal/domain/shared"
	"github.com/verone/backoffice/internal/domain/shared/valueobject"
)

// OrderStatus represents the status of a sales order
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "draft"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// orderStatusValidated is how the back office labels the confirmed state
const orderStatusValidated = "validated"

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusDraft:     {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusDraft, OrderStatusPaid, OrderStatusShipped},
	OrderStatusPaid:      {OrderStatusShipped},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// ParseOrderStatus parses a status name, accepting "validated" for confirmed
func ParseOrderStatus(s string) (OrderStatus, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == orderStatusValidated {
		return OrderStatusConfirmed, nil
	}
	status := OrderStatus(s)
	if !status.IsValid() {
		return "", shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown order status: %q", s))
	}
	return status, nil
}

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal returns true for delivered and cancelled
func (s OrderStatus) IsTerminal() bool {
	return s.IsValid() && len(orderTransitions[s]) == 0
}

// AllowedTransitions returns the statuses reachable from s
func (s OrderStatus) AllowedTransitions() []OrderStatus {
	return append([]OrderStatus(nil), orderTransitions[s]...)
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, t := range orderTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// PaymentStatus is tracked independently of the order status
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPrepaid   PaymentStatus = "prepaid"
	PaymentStatusPartial   PaymentStatus = "partial"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusOverdue   PaymentStatus = "overdue"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// IsValid checks if the payment status is known
func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentStatusPending, PaymentStatusPrepaid, PaymentStatusPartial,
		PaymentStatusPaid, PaymentStatusOverdue, PaymentStatusCancelled:
		return true
	}
	return false
}

// Transition rejection codes
const (
	CodeInvalidTransition           = "INVALID_TRANSITION"
	CodeCancelBlockedPaidOrder      = "CANCELLATION_BLOCKED_PAID_ORDER"
	CodeCancelBlockedMustDeconfirm  = "CANCELLATION_BLOCKED_MUST_DECONFIRM"
	CodeCancelBlockedCreditNoteOnly = "CANCELLATION_BLOCKED_CREDIT_NOTE_REQUIRED"
	CodeOrderNotDeletable           = "ORDER_NOT_DELETABLE"
	CodeOrderNotModifiable          = "ORDER_NOT_MODIFIABLE"
)

var hundred = decimal.NewFromInt(100)

// SalesOrderItem represents a line item in a sales order
type SalesOrderItem struct {
	ID                 uuid.UUID
	OrderID            uuid.UUID
	ProductID          uuid.UUID
	Description        string
	Quantity           decimal.Decimal
	UnitPriceHT        decimal.Decimal
	DiscountPercentage decimal.Decimal // 0..100
	TaxRate            decimal.Decimal // fraction, 0.2 for 20%
	AmountHT           decimal.Decimal // net of discount
	Notes              string
	Position           int
	CreatedAt          time.Time
}

// SalesOrderItemInput holds the caller-supplied fields of a line
type SalesOrderItemInput struct {
	ProductID          uuid.UUID
	Description        string
	Quantity           decimal.Decimal
	UnitPriceHT        decimal.Decimal
	DiscountPercentage decimal.Decimal
	TaxRate            decimal.Decimal
	Notes              string
}

// NewSalesOrderItem validates input and computes the line amount
func NewSalesOrderItem(orderID uuid.UUID, in SalesOrderItemInput) (*SalesOrderItem, error) {
	if in.ProductID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !in.Quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if in.UnitPriceHT.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if in.DiscountPercentage.IsNegative() || in.DiscountPercentage.GreaterThan(hundred) {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount must be between 0 and 100 percent")
	}
	if in.TaxRate.IsNegative() || in.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, shared.NewDomainError("INVALID_TAX_RATE", "Tax rate must be a fraction between 0 and 1")
	}

	item := &SalesOrderItem{
		ID:                 uuid.New(),
		OrderID:            orderID,
		ProductID:          in.ProductID,
		Description:        strings.TrimSpace(in.Description),
		Quantity:           in.Quantity,
		UnitPriceHT:        in.UnitPriceHT,
		DiscountPercentage: in.DiscountPercentage,
		TaxRate:            in.TaxRate,
		Notes:              in.Notes,
		CreatedAt:          time.Now().UTC(),
	}
	item.AmountHT = item.netAmount()
	return item, nil
}

func (i *SalesOrderItem) netAmount() decimal.Decimal {
	gross := i.Quantity.Mul(i.UnitPriceHT)
	discount := gross.Mul(i.DiscountPercentage).Div(hundred)
	return gross.Sub(discount)
}

// TaxAmount returns the VAT due on the line
func (i *SalesOrderItem) TaxAmount() decimal.Decimal {
	return i.AmountHT.Mul(i.TaxRate)
}

// Fees are the service costs billed on top of product lines
type Fees struct {
	ShippingHT  decimal.Decimal
	HandlingHT  decimal.Decimal
	InsuranceHT decimal.Decimal
	VATRate     decimal.Decimal // fraction
}

// TotalHT returns the sum of all fee components
func (f Fees) TotalHT() decimal.Decimal {
	return f.ShippingHT.Add(f.HandlingHT).Add(f.InsuranceHT)
}

// TaxAmount returns the VAT due on the fees
func (f Fees) TaxAmount() decimal.Decimal {
	return f.TotalHT().Mul(f.VATRate)
}

// Validate rejects negative components and out-of-range rates
func (f Fees) Validate() error {
	if f.ShippingHT.IsNegative() || f.HandlingHT.IsNegative() || f.InsuranceHT.IsNegative() {
		return shared.NewDomainError("INVALID_FEES", "Fees cannot be negative")
	}
	if f.VATRate.IsNegative() || f.VATRate.GreaterThan(decimal.NewFromInt(1)) {
		return shared.NewDomainError("INVALID_TAX_RATE", "Fees VAT rate must be a fraction between 0 and 1")
	}
	return nil
}

// Contacts references the contacts attached to an order
type Contacts struct {
	BillingContactID     *uuid.UUID
	DeliveryContactID    *uuid.UUID
	ResponsibleContactID *uuid.UUID
}

// Totals are the monetary projections of an order, recomputed on every write
type Totals struct {
	NetHT     decimal.Decimal
	TaxAmount decimal.Decimal
	GrossTTC  decimal.Decimal
}

// SalesOrder represents a sales order aggregate root.
// Status changes only through Transition.
type SalesOrder struct {
	shared.BaseAggregateRoot
	OrderNumber     string
	Customer        Customer
	Status          OrderStatus
	PaymentStatus   PaymentStatus
	Items           []SalesOrderItem
	Fees            Fees
	Totals          Totals
	PaidAmount      decimal.Decimal
	BillingAddress  valueobject.Address
	ShippingAddress valueobject.Address
	Contacts        Contacts
	Notes           string
	ConfirmedAt     *time.Time
	ConfirmedBy     *uuid.UUID
	PaidAt          *time.Time
	ShippedAt       *time.Time
	ShippedBy       *uuid.UUID
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	CancelledBy     *uuid.UUID
}

// NewSalesOrder creates a draft order with a pending payment status
func NewSalesOrder(orderNumber string, customer Customer, actor shared.Actor) (*SalesOrder, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if customer == nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer is required")
	}

	order := &SalesOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(actor.UserID),
		OrderNumber:       orderNumber,
		Customer:          customer,
		Status:            OrderStatusDraft,
		PaymentStatus:     PaymentStatusPending,
		Items:             make([]SalesOrderItem, 0),
		PaidAmount:        decimal.Zero,
	}
	order.AddDomainEvent(NewSalesOrderCreatedEvent(order, actor))
	return order, nil
}

// AddItem appends a line and recalculates totals
func (o *SalesOrder) AddItem(in SalesOrderItemInput) (*SalesOrderItem, error) {
	if err := o.ensureModifiable(); err != nil {
		return nil, err
	}
	item, err := NewSalesOrderItem(o.ID, in)
	if err != nil {
		return nil, err
	}
	item.Position = len(o.Items)
	o.Items = append(o.Items, *item)
	o.RecalculateTotals()
	return item, nil
}

// ReplaceItems discards every line and installs items in the given order
func (o *SalesOrder) ReplaceItems(items []SalesOrderItem) error {
	if err := o.ensureModifiable(); err != nil {
		return err
	}
	replaced := make([]SalesOrderItem, len(items))
	for i, item := range items {
		if item.ProductID == uuid.Nil {
			return shared.NewDomainError("INVALID_PRODUCT", fmt.Sprintf("Line %d has no product", i+1))
		}
		item.OrderID = o.ID
		item.Position = i
		item.AmountHT = item.netAmount()
		replaced[i] = item
	}
	o.Items = replaced
	o.RecalculateTotals()
	return nil
}

// SetFees replaces the service fees
func (o *SalesOrder) SetFees(fees Fees) error {
	if err := fees.Validate(); err != nil {
		return err
	}
	o.Fees = fees
	o.RecalculateTotals()
	return nil
}

// SetAddresses replaces billing and shipping addresses
func (o *SalesOrder) SetAddresses(billing, shipping valueobject.Address) {
	o.BillingAddress = billing
	o.ShippingAddress = shipping
	o.Touch(time.Now().UTC())
}

// SetContacts replaces the contact references
func (o *SalesOrder) SetContacts(c Contacts) {
	o.Contacts = c
	o.Touch(time.Now().UTC())
}

// RecalculateTotals recomputes net, tax and gross from lines and fees
func (o *SalesOrder) RecalculateTotals() {
	net := decimal.Zero
	tax := decimal.Zero
	for i := range o.Items {
		net = net.Add(o.Items[i].AmountHT)
		tax = tax.Add(o.Items[i].TaxAmount())
	}
	net = net.Add(o.Fees.TotalHT())
	tax = tax.Add(o.Fees.TaxAmount())

	o.Totals = Totals{
		NetHT:     net.Round(2),
		TaxAmount: tax.Round(2),
		GrossTTC:  net.Add(tax).Round(2),
	}
	o.Touch(time.Now().UTC())
}

// Transition moves the order to target and stamps the transition's audit fields
func (o *SalesOrder) Transition(target OrderStatus, actor shared.Actor, now time.Time) error {
	if err := actor.Require(); err != nil {
		return err
	}
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown order status: %q", target))
	}
	if target == OrderStatusCancelled {
		if err := o.checkCancellable(); err != nil {
			return err
		}
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError(CodeInvalidTransition, fmt.Sprintf(
			"Cannot move order from %s to %s; allowed: %s", o.Status, target, joinStatuses(o.Status.AllowedTransitions())))
	}

	from := o.Status
	userID := actor.UserID
	switch target {
	case OrderStatusDraft:
		o.ConfirmedAt = nil
		o.ConfirmedBy = nil
	case OrderStatusConfirmed:
		o.ConfirmedAt = &now
		o.ConfirmedBy = &userID
	case OrderStatusPaid:
		o.PaidAt = &now
		o.PaymentStatus = PaymentStatusPaid
		o.PaidAmount = o.Totals.GrossTTC
	case OrderStatusShipped:
		o.ShippedAt = &now
		o.ShippedBy = &userID
	case OrderStatusDelivered:
		o.DeliveredAt = &now
	case OrderStatusCancelled:
		o.CancelledAt = &now
		o.CancelledBy = &userID
		if o.PaymentStatus == PaymentStatusPending || o.PaymentStatus == PaymentStatusOverdue {
			o.PaymentStatus = PaymentStatusCancelled
		}
	}

	o.Status = target
	o.Touch(now)
	o.IncrementVersion()
	o.AddDomainEvent(NewSalesOrderStatusChangedEvent(o, from, target, actor))
	return nil
}

// Deconfirm moves a confirmed order back to draft
func (o *SalesOrder) Deconfirm(actor shared.Actor, now time.Time) error {
	if o.Status != OrderStatusConfirmed {
		return shared.NewDomainError(CodeInvalidTransition, fmt.Sprintf("Only confirmed orders can be deconfirmed, order is %s", o.Status))
	}
	return o.Transition(OrderStatusDraft, actor, now)
}

// checkCancellable applies the cancellation guards in order, each with its own code
func (o *SalesOrder) checkCancellable() error {
	if o.PaymentStatus == PaymentStatusPaid {
		return shared.NewDomainError(CodeCancelBlockedPaidOrder,
			"A paid order cannot be cancelled; process a refund manually")
	}
	switch o.Status {
	case OrderStatusConfirmed:
		return shared.NewDomainError(CodeCancelBlockedMustDeconfirm,
			"The order must be deconfirmed (moved back to draft) before it can be cancelled")
	case OrderStatusDelivered:
		return shared.NewDomainError(CodeCancelBlockedCreditNoteOnly,
			"A delivered order cannot be cancelled; issue a credit note instead")
	}
	return nil
}

// CanDelete reports whether the order may be hard-deleted
func (o *SalesOrder) CanDelete() bool {
	return o.Status == OrderStatusDraft || o.Status == OrderStatusCancelled
}

// EnsureDeletable returns ORDER_NOT_DELETABLE unless CanDelete
func (o *SalesOrder) EnsureDeletable() error {
	if !o.CanDelete() {
		return shared.NewDomainError(CodeOrderNotDeletable,
			fmt.Sprintf("Only draft or cancelled orders can be deleted, order is %s", o.Status))
	}
	return nil
}

// IsModifiable reports whether lines, fees and totals may still change
func (o *SalesOrder) IsModifiable() bool {
	return o.Status == OrderStatusDraft || o.Status == OrderStatusConfirmed
}

func (o *SalesOrder) ensureModifiable() error {
	if !o.IsModifiable() {
		return shared.NewDomainError(CodeOrderNotModifiable,
			fmt.Sprintf("Order %s is %s and can no longer be modified", o.OrderNumber, o.Status))
	}
	return nil
}

// CustomerKind returns the customer variant, empty if none is set
func (o *SalesOrder) CustomerKind() CustomerKind {
	if o.Customer == nil {
		return ""
	}
	return o.Customer.Kind()
}

func joinStatuses(statuses []OrderStatus) string {
	if len(statuses) == 0 {
		return "none"
	}
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
