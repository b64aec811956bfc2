package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appinventory "github.com/verone/backoffice/internal/application/inventory"
	"github.com/verone/backoffice/internal/domain/inventory"
	"github.com/verone/backoffice/internal/domain/shared/valueobject"
	"github.com/verone/backoffice/internal/domain/trade"
)

// ==================== Sales Order DTOs ====================

// CustomerInput is the customer snapshot attached to a new order
type CustomerInput struct {
	Type      string    `json:"type" binding:"required,oneof=organisation individual"`
	ID        uuid.UUID `json:"id" binding:"required"`
	LegalName string    `json:"legal_name" binding:"max=200"`
	TradeName string    `json:"trade_name" binding:"max=200"`
	FirstName string    `json:"first_name" binding:"max=100"`
	LastName  string    `json:"last_name" binding:"max=100"`
	Email     string    `json:"email" binding:"omitempty,email"`
	Phone     string    `json:"phone" binding:"max=50"`
}

// AddressInput is a postal address in requests and responses
type AddressInput struct {
	Street     string `json:"street" binding:"max=200"`
	City       string `json:"city" binding:"max=100"`
	PostalCode string `json:"postal_code" binding:"max=20"`
	Country    string `json:"country" binding:"omitempty,len=2"`
}

// CreateSalesOrderItemInput represents an item in the create order request
type CreateSalesOrderItemInput struct {
	ProductID          uuid.UUID       `json:"product_id" binding:"required"`
	Description        string          `json:"description" binding:"max=500"`
	Quantity           decimal.Decimal `json:"quantity" binding:"required"`
	UnitPriceHT        decimal.Decimal `json:"unit_price_ht" binding:"decimal_gte0"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage" binding:"decimal_gte0"`
	TaxRate            decimal.Decimal `json:"tax_rate" binding:"decimal_gte0"`
	Notes              string          `json:"notes"`
}

// FeesInput holds the service fees of an order
type FeesInput struct {
	ShippingHT  decimal.Decimal `json:"shipping_cost_ht" binding:"decimal_gte0"`
	HandlingHT  decimal.Decimal `json:"handling_cost_ht" binding:"decimal_gte0"`
	InsuranceHT decimal.Decimal `json:"insurance_cost_ht" binding:"decimal_gte0"`
	VATRate     decimal.Decimal `json:"fees_vat_rate" binding:"decimal_gte0"`
}

// CreateSalesOrderRequest represents a request to create a sales order
type CreateSalesOrderRequest struct {
	Customer        CustomerInput               `json:"customer" binding:"required"`
	Items           []CreateSalesOrderItemInput `json:"items" binding:"dive"`
	Fees            FeesInput                   `json:"fees"`
	BillingAddress  *AddressInput               `json:"billing_address"`
	ShippingAddress *AddressInput               `json:"shipping_address"`
	Notes           string                      `json:"notes" binding:"max=2000"`
}

// TransitionSalesOrderRequest moves an order to a new status
type TransitionSalesOrderRequest struct {
	Status string `json:"status" binding:"required"`
}

// SalesOrderListFilter represents filter options for sales order list
type SalesOrderListFilter struct {
	Status        string     `form:"status"`
	PaymentStatus string     `form:"payment_status"`
	CustomerID    *uuid.UUID `form:"-"`
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy       string     `form:"order_by" binding:"omitempty,oneof=created_at order_number total_ttc"`
	OrderDir      string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SalesOrderItemResponse represents an order item in API responses
type SalesOrderItemResponse struct {
	ID                 uuid.UUID       `json:"id"`
	ProductID          uuid.UUID       `json:"product_id"`
	Description        string          `json:"description,omitempty"`
	Quantity           decimal.Decimal `json:"quantity"`
	UnitPriceHT        decimal.Decimal `json:"unit_price_ht"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	TaxRate            decimal.Decimal `json:"tax_rate"`
	AmountHT           decimal.Decimal `json:"amount_ht"`
	Notes              string          `json:"notes,omitempty"`
	Position           int             `json:"position"`
}

// CustomerResponse is the flattened customer snapshot
type CustomerResponse struct {
	Type        string    `json:"type"`
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
}

// SalesOrderResponse represents a sales order in API responses
type SalesOrderResponse struct {
	ID              uuid.UUID                `json:"id"`
	OrderNumber     string                   `json:"order_number"`
	Customer        CustomerResponse         `json:"customer"`
	Status          string                   `json:"status"`
	PaymentStatus   string                   `json:"payment_status"`
	Items           []SalesOrderItemResponse `json:"items"`
	ShippingCostHT  decimal.Decimal          `json:"shipping_cost_ht"`
	HandlingCostHT  decimal.Decimal          `json:"handling_cost_ht"`
	InsuranceCostHT decimal.Decimal          `json:"insurance_cost_ht"`
	FeesVATRate     decimal.Decimal          `json:"fees_vat_rate"`
	TotalHT         decimal.Decimal          `json:"total_ht"`
	TaxAmount       decimal.Decimal          `json:"tax_amount"`
	TotalTTC        decimal.Decimal          `json:"total_ttc"`
	PaidAmount      decimal.Decimal          `json:"paid_amount"`
	BillingAddress  AddressInput             `json:"billing_address"`
	ShippingAddress AddressInput             `json:"shipping_address"`
	Notes           string                   `json:"notes,omitempty"`
	ConfirmedAt     *time.Time               `json:"confirmed_at,omitempty"`
	ConfirmedBy     *uuid.UUID               `json:"confirmed_by,omitempty"`
	PaidAt          *time.Time               `json:"paid_at,omitempty"`
	ShippedAt       *time.Time               `json:"shipped_at,omitempty"`
	ShippedBy       *uuid.UUID               `json:"shipped_by,omitempty"`
	DeliveredAt     *time.Time               `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time               `json:"cancelled_at,omitempty"`
	CancelledBy     *uuid.UUID               `json:"cancelled_by,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
	Version         int                      `json:"version"`
}

// SalesOrderListItemResponse represents a sales order in list responses
type SalesOrderListItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	OrderNumber   string          `json:"order_number"`
	CustomerName  string          `json:"customer_name"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	ItemCount     int             `json:"item_count"`
	TotalTTC      decimal.Decimal `json:"total_ttc"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ==================== Purchase Order DTOs ====================

// ReceptionLineInput is one line of a reception request
type ReceptionLineInput struct {
	ItemID   uuid.UUID       `json:"item_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"decimal_gte0"`
}

// ReceivePurchaseOrderRequest represents a request to receive goods for a purchase order
type ReceivePurchaseOrderRequest struct {
	Lines      []ReceptionLineInput `json:"lines" binding:"required,min=1,dive"`
	ReceivedAt *time.Time           `json:"received_at"`
	Notes      string               `json:"notes" binding:"max=2000"`
}

// PurchaseOrderItemResponse represents a purchase order line with its progress
type PurchaseOrderItemResponse struct {
	ID                uuid.UUID       `json:"id"`
	ProductID         uuid.UUID       `json:"product_id"`
	Description       string          `json:"description,omitempty"`
	QuantityOrdered   decimal.Decimal `json:"quantity_ordered"`
	QuantityReceived  decimal.Decimal `json:"quantity_received"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID              uuid.UUID                   `json:"id"`
	OrderNumber     string                      `json:"order_number"`
	SupplierID      uuid.UUID                   `json:"supplier_id"`
	SupplierName    string                      `json:"supplier_name"`
	Status          string                      `json:"status"`
	Items           []PurchaseOrderItemResponse `json:"items"`
	ReceiveProgress decimal.Decimal             `json:"receive_progress"`
	ReceivedAt      *time.Time                  `json:"received_at,omitempty"`
	UpdatedAt       time.Time                   `json:"updated_at"`
	Version         int                         `json:"version"`
}

// ReceptionResultResponse is the outcome of one reception
type ReceptionResultResponse struct {
	ReceptionID uuid.UUID                            `json:"reception_id"`
	Order       PurchaseOrderResponse                `json:"order"`
	Movements   []appinventory.StockMovementResponse `json:"movements"`
	Complete    bool                                 `json:"complete"`
}

// ==================== Converters ====================

// ToAddress converts an optional request address
func (a *AddressInput) ToAddress() valueobject.Address {
	if a == nil {
		return valueobject.Address{}
	}
	return valueobject.NewAddress(a.Street, a.City, a.PostalCode, a.Country)
}

// AddressFrom converts a domain address to its request form
func AddressFrom(a valueobject.Address) AddressInput {
	return AddressInput{Street: a.Street, City: a.City, PostalCode: a.PostalCode, Country: a.Country}
}

// ToRef converts the request customer to its domain reference
func (c CustomerInput) ToRef() trade.CustomerRef {
	return trade.CustomerRef{
		Kind:      trade.CustomerKind(c.Type),
		ID:        c.ID,
		LegalName: c.LegalName,
		TradeName: c.TradeName,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
	}
}

// ToFees converts fee input to the domain value
func (f FeesInput) ToFees() trade.Fees {
	return trade.Fees{ShippingHT: f.ShippingHT, HandlingHT: f.HandlingHT, InsuranceHT: f.InsuranceHT, VATRate: f.VATRate}
}

// ToSalesOrderResponse converts a domain SalesOrder to a response
func ToSalesOrderResponse(order *trade.SalesOrder) SalesOrderResponse {
	items := make([]SalesOrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = SalesOrderItemResponse{
			ID:                 item.ID,
			ProductID:          item.ProductID,
			Description:        item.Description,
			Quantity:           item.Quantity,
			UnitPriceHT:        item.UnitPriceHT,
			DiscountPercentage: item.DiscountPercentage,
			TaxRate:            item.TaxRate,
			AmountHT:           item.AmountHT,
			Notes:              item.Notes,
			Position:           item.Position,
		}
	}

	resp := SalesOrderResponse{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		Status:          order.Status.String(),
		PaymentStatus:   string(order.PaymentStatus),
		Items:           items,
		ShippingCostHT:  order.Fees.ShippingHT,
		HandlingCostHT:  order.Fees.HandlingHT,
		InsuranceCostHT: order.Fees.InsuranceHT,
		FeesVATRate:     order.Fees.VATRate,
		TotalHT:         order.Totals.NetHT,
		TaxAmount:       order.Totals.TaxAmount,
		TotalTTC:        order.Totals.GrossTTC,
		PaidAmount:      order.PaidAmount,
		BillingAddress:  AddressFrom(order.BillingAddress),
		ShippingAddress: AddressFrom(order.ShippingAddress),
		Notes:           order.Notes,
		ConfirmedAt:     order.ConfirmedAt,
		ConfirmedBy:     order.ConfirmedBy,
		PaidAt:          order.PaidAt,
		ShippedAt:       order.ShippedAt,
		ShippedBy:       order.ShippedBy,
		DeliveredAt:     order.DeliveredAt,
		CancelledAt:     order.CancelledAt,
		CancelledBy:     order.CancelledBy,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
		Version:         order.Version,
	}
	if order.Customer != nil {
		resp.Customer = CustomerResponse{
			Type:        string(order.Customer.Kind()),
			ID:          order.Customer.CustomerID(),
			DisplayName: order.Customer.DisplayName(),
			Email:       order.Customer.ContactEmail(),
			Phone:       trade.RefOf(order.Customer).Phone,
		}
	}
	return resp
}

// ToSalesOrderListItemResponse converts a domain SalesOrder to a list item
func ToSalesOrderListItemResponse(order *trade.SalesOrder) SalesOrderListItemResponse {
	name := ""
	if order.Customer != nil {
		name = order.Customer.DisplayName()
	}
	return SalesOrderListItemResponse{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerName:  name,
		Status:        order.Status.String(),
		PaymentStatus: string(order.PaymentStatus),
		ItemCount:     len(order.Items),
		TotalTTC:      order.Totals.GrossTTC,
		CreatedAt:     order.CreatedAt,
	}
}

// ToPurchaseOrderResponse converts a domain PurchaseOrder to a response
func ToPurchaseOrderResponse(order *trade.PurchaseOrder) PurchaseOrderResponse {
	items := make([]PurchaseOrderItemResponse, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		items[i] = PurchaseOrderItemResponse{
			ID:                item.ID,
			ProductID:         item.ProductID,
			Description:       item.Description,
			QuantityOrdered:   item.QuantityOrdered,
			QuantityReceived:  item.QuantityReceived,
			RemainingQuantity: item.RemainingQuantity(),
			UnitCost:          item.UnitCost,
		}
	}
	return PurchaseOrderResponse{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		SupplierID:      order.SupplierID,
		SupplierName:    order.SupplierName,
		Status:          string(order.Status),
		Items:           items,
		ReceiveProgress: order.ReceiveProgress(),
		ReceivedAt:      order.ReceivedAt,
		UpdatedAt:       order.UpdatedAt,
		Version:         order.Version,
	}
}

// ToReceptionResultResponse builds the reception response
func ToReceptionResultResponse(order *trade.PurchaseOrder, receptionID uuid.UUID, movements []*inventory.StockMovement) ReceptionResultResponse {
	return ReceptionResultResponse{
		ReceptionID: receptionID,
		Order:       ToPurchaseOrderResponse(order),
		Movements:   appinventory.ToStockMovementResponses(movements),
		Complete:    order.IsFullyReceived(),
	}
}
