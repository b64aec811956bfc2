package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/verone/backoffice/internal/domain/shared/valueobject"
	"github.com/verone/backoffice/internal/domain/trade"
)

// SalesOrderModel is the persistence model for the SalesOrder aggregate root.
type SalesOrderModel struct {
	AggregateModel
	OrderNumber          string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerKind         trade.CustomerKind    `gorm:"type:varchar(20);not null"`
	CustomerID           uuid.UUID             `gorm:"type:uuid;not null;index"`
	CustomerLegalName    string                `gorm:"type:varchar(200)"`
	CustomerTradeName    string                `gorm:"type:varchar(200)"`
	CustomerFirstName    string                `gorm:"type:varchar(100)"`
	CustomerLastName     string                `gorm:"type:varchar(100)"`
	CustomerEmail        string                `gorm:"type:varchar(200)"`
	CustomerPhone        string                `gorm:"type:varchar(50)"`
	Status               trade.OrderStatus     `gorm:"type:varchar(30);not null;index"`
	PaymentStatus        trade.PaymentStatus   `gorm:"type:varchar(30);not null;index"`
	Items                []SalesOrderItemModel `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
	ShippingCostHT       decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	HandlingCostHT       decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	InsuranceCostHT      decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	FeesVATRate          decimal.Decimal       `gorm:"type:decimal(6,4);not null;default:0"`
	TotalHT              decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount            decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	TotalTTC             decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	PaidAmount           decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	BillingAddress       valueobject.Address   `gorm:"type:jsonb"`
	ShippingAddress      valueobject.Address   `gorm:"type:jsonb"`
	BillingContactID     *uuid.UUID            `gorm:"type:uuid"`
	DeliveryContactID    *uuid.UUID            `gorm:"type:uuid"`
	ResponsibleContactID *uuid.UUID            `gorm:"type:uuid"`
	Notes                string                `gorm:"type:text"`
	ConfirmedAt          *time.Time
	ConfirmedBy          *uuid.UUID `gorm:"type:uuid"`
	PaidAt               *time.Time
	ShippedAt            *time.Time
	ShippedBy            *uuid.UUID `gorm:"type:uuid"`
	DeliveredAt          *time.Time
	CancelledAt          *time.Time
	CancelledBy          *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// ToDomain converts the persistence model to a domain SalesOrder.
func (m *SalesOrderModel) ToDomain() (*trade.SalesOrder, error) {
	customer, err := trade.NewCustomer(trade.CustomerRef{
		Kind:      m.CustomerKind,
		ID:        m.CustomerID,
		LegalName: m.CustomerLegalName,
		TradeName: m.CustomerTradeName,
		FirstName: m.CustomerFirstName,
		LastName:  m.CustomerLastName,
		Email:     m.CustomerEmail,
		Phone:     m.CustomerPhone,
	})
	if err != nil {
		return nil, err
	}
	order := &trade.SalesOrder{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		Customer:          customer,
		Status:            m.Status,
		PaymentStatus:     m.PaymentStatus,
		Fees: trade.Fees{
			ShippingHT:  m.ShippingCostHT,
			HandlingHT:  m.HandlingCostHT,
			InsuranceHT: m.InsuranceCostHT,
			VATRate:     m.FeesVATRate,
		},
		Totals:          trade.Totals{NetHT: m.TotalHT, TaxAmount: m.TaxAmount, GrossTTC: m.TotalTTC},
		PaidAmount:      m.PaidAmount,
		BillingAddress:  m.BillingAddress,
		ShippingAddress: m.ShippingAddress,
		Contacts: trade.Contacts{
			BillingContactID:     m.BillingContactID,
			DeliveryContactID:    m.DeliveryContactID,
			ResponsibleContactID: m.ResponsibleContactID,
		},
		Notes:       m.Notes,
		ConfirmedAt: m.ConfirmedAt,
		ConfirmedBy: m.ConfirmedBy,
		PaidAt:      m.PaidAt,
		ShippedAt:   m.ShippedAt,
		ShippedBy:   m.ShippedBy,
		DeliveredAt: m.DeliveredAt,
		CancelledAt: m.CancelledAt,
		CancelledBy: m.CancelledBy,
		Items:       make([]trade.SalesOrderItem, len(m.Items)),
	}
	for i := range m.Items {
		order.Items[i] = m.Items[i].ToDomain()
	}
	return order, nil
}

// SalesOrderModelFromDomain creates the header model. Items are mapped
// separately so header saves never touch the lines.
func SalesOrderModelFromDomain(o *trade.SalesOrder) *SalesOrderModel {
	ref := trade.RefOf(o.Customer)
	m := &SalesOrderModel{
		OrderNumber:          o.OrderNumber,
		CustomerKind:         ref.Kind,
		CustomerID:           ref.ID,
		CustomerLegalName:    ref.LegalName,
		CustomerTradeName:    ref.TradeName,
		CustomerFirstName:    ref.FirstName,
		CustomerLastName:     ref.LastName,
		CustomerEmail:        ref.Email,
		CustomerPhone:        ref.Phone,
		Status:               o.Status,
		PaymentStatus:        o.PaymentStatus,
		ShippingCostHT:       o.Fees.ShippingHT,
		HandlingCostHT:       o.Fees.HandlingHT,
		InsuranceCostHT:      o.Fees.InsuranceHT,
		FeesVATRate:          o.Fees.VATRate,
		TotalHT:              o.Totals.NetHT,
		TaxAmount:            o.Totals.TaxAmount,
		TotalTTC:             o.Totals.GrossTTC,
		PaidAmount:           o.PaidAmount,
		BillingAddress:       o.BillingAddress,
		ShippingAddress:      o.ShippingAddress,
		BillingContactID:     o.Contacts.BillingContactID,
		DeliveryContactID:    o.Contacts.DeliveryContactID,
		ResponsibleContactID: o.Contacts.ResponsibleContactID,
		Notes:                o.Notes,
		ConfirmedAt:          o.ConfirmedAt,
		ConfirmedBy:          o.ConfirmedBy,
		PaidAt:               o.PaidAt,
		ShippedAt:            o.ShippedAt,
		ShippedBy:            o.ShippedBy,
		DeliveredAt:          o.DeliveredAt,
		CancelledAt:          o.CancelledAt,
		CancelledBy:          o.CancelledBy,
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	return m
}

// SalesOrderItemModel is the persistence model for a sales order line.
type SalesOrderItemModel struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID          uuid.UUID       `gorm:"type:uuid;not null"`
	Description        string          `gorm:"type:varchar(500)"`
	Quantity           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPriceHT        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountPercentage decimal.Decimal `gorm:"type:decimal(6,3);not null;default:0"`
	TaxRate            decimal.Decimal `gorm:"type:decimal(6,4);not null;default:0"`
	AmountHT           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Notes              string          `gorm:"type:text"`
	Position           int             `gorm:"not null;default:0"`
	CreatedAt          time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SalesOrderItemModel) TableName() string {
	return "sales_order_items"
}

// ToDomain converts the line model
func (m *SalesOrderItemModel) ToDomain() trade.SalesOrderItem {
	return trade.SalesOrderItem{
		ID:                 m.ID,
		OrderID:            m.OrderID,
		ProductID:          m.ProductID,
		Description:        m.Description,
		Quantity:           m.Quantity,
		UnitPriceHT:        m.UnitPriceHT,
		DiscountPercentage: m.DiscountPercentage,
		TaxRate:            m.TaxRate,
		AmountHT:           m.AmountHT,
		Notes:              m.Notes,
		Position:           m.Position,
		CreatedAt:          m.CreatedAt,
	}
}

// SalesOrderItemModelsFromDomain maps lines onto orderID
func SalesOrderItemModelsFromDomain(orderID uuid.UUID, items []trade.SalesOrderItem) []SalesOrderItemModel {
	out := make([]SalesOrderItemModel, len(items))
	now := time.Now().UTC()
	for i, it := range items {
		created := it.CreatedAt
		if created.IsZero() {
			created = now
		}
		out[i] = SalesOrderItemModel{
			ID:                 it.ID,
			OrderID:            orderID,
			ProductID:          it.ProductID,
			Description:        it.Description,
			Quantity:           it.Quantity,
			UnitPriceHT:        it.UnitPriceHT,
			DiscountPercentage: it.DiscountPercentage,
			TaxRate:            it.TaxRate,
			AmountHT:           it.AmountHT,
			Notes:              it.Notes,
			Position:           it.Position,
			CreatedAt:          created,
		}
		if out[i].ID == uuid.Nil {
			out[i].ID = uuid.New()
		}
	}
	return out
}

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate root.
type PurchaseOrderModel struct {
	AggregateModel
	OrderNumber  string                    `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID   uuid.UUID                 `gorm:"type:uuid;not null;index"`
	SupplierName string                    `gorm:"type:varchar(200)"`
	Status       trade.PurchaseOrderStatus `gorm:"type:varchar(30);not null;index"`
	Items        []PurchaseOrderItemModel  `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
	Notes        string                    `gorm:"type:text"`
	ValidatedAt  *time.Time
	ReceivedAt   *time.Time
	ReceivedBy   *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder.
func (m *PurchaseOrderModel) ToDomain() *trade.PurchaseOrder {
	po := &trade.PurchaseOrder{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		SupplierID:        m.SupplierID,
		SupplierName:      m.SupplierName,
		Status:            m.Status,
		Notes:             m.Notes,
		ValidatedAt:       m.ValidatedAt,
		ReceivedAt:        m.ReceivedAt,
		ReceivedBy:        m.ReceivedBy,
		Items:             make([]trade.PurchaseOrderItem, len(m.Items)),
	}
	for i, it := range m.Items {
		po.Items[i] = trade.PurchaseOrderItem{
			ID:               it.ID,
			OrderID:          it.OrderID,
			ProductID:        it.ProductID,
			Description:      it.Description,
			QuantityOrdered:  it.QuantityOrdered,
			QuantityReceived: it.QuantityReceived,
			UnitCost:         it.UnitCost,
			Position:         it.Position,
			CreatedAt:        it.CreatedAt,
			UpdatedAt:        it.UpdatedAt,
		}
	}
	return po
}

// PurchaseOrderModelFromDomain maps the header and lines.
func PurchaseOrderModelFromDomain(po *trade.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{
		OrderNumber:  po.OrderNumber,
		SupplierID:   po.SupplierID,
		SupplierName: po.SupplierName,
		Status:       po.Status,
		Notes:        po.Notes,
		ValidatedAt:  po.ValidatedAt,
		ReceivedAt:   po.ReceivedAt,
		ReceivedBy:   po.ReceivedBy,
		Items:        make([]PurchaseOrderItemModel, len(po.Items)),
	}
	m.FromDomainAggregateRoot(po.BaseAggregateRoot)
	for i, it := range po.Items {
		m.Items[i] = PurchaseOrderItemModel{
			ID:               it.ID,
			OrderID:          po.ID,
			ProductID:        it.ProductID,
			Description:      it.Description,
			QuantityOrdered:  it.QuantityOrdered,
			QuantityReceived: it.QuantityReceived,
			UnitCost:         it.UnitCost,
			Position:         it.Position,
			CreatedAt:        it.CreatedAt,
			UpdatedAt:        it.UpdatedAt,
		}
	}
	return m
}

// PurchaseOrderItemModel is the persistence model for a purchase order line.
// QuantityReceived caches the ledger sum for the line.
type PurchaseOrderItemModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null"`
	Description      string          `gorm:"type:varchar(500)"`
	QuantityOrdered  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	QuantityReceived decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Position         int             `gorm:"not null;default:0"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PurchaseOrderItemModel) TableName() string {
	return "purchase_order_items"
}
