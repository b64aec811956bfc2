package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/verone/backoffice/internal/domain/finance"
	"github.com/verone/backoffice/internal/domain/shared/valueobject"
	"github.com/verone/backoffice/internal/domain/trade"
)

// FinancialDocumentModel mirrors a document held by the invoicing provider.
type FinancialDocumentModel struct {
	AggregateModel
	DocumentNumber       string                 `gorm:"type:varchar(50)"`
	DocumentType         finance.DocumentType   `gorm:"type:varchar(20);not null"`
	WorkflowStatus       finance.WorkflowStatus `gorm:"type:varchar(30);not null"`
	SalesOrderID         *uuid.UUID             `gorm:"type:uuid;index"`
	CustomerKind         trade.CustomerKind     `gorm:"type:varchar(20)"`
	CustomerID           uuid.UUID              `gorm:"type:uuid"`
	CustomerLegalName    string                 `gorm:"type:varchar(200)"`
	CustomerTradeName    string                 `gorm:"type:varchar(200)"`
	CustomerFirstName    string                 `gorm:"type:varchar(100)"`
	CustomerLastName     string                 `gorm:"type:varchar(100)"`
	CustomerEmail        string                 `gorm:"type:varchar(200)"`
	CustomerPhone        string                 `gorm:"type:varchar(50)"`
	ProviderID           string                 `gorm:"type:varchar(100);not null;uniqueIndex"`
	PDFURL               string                 `gorm:"column:pdf_url;type:text"`
	PublicURL            string                 `gorm:"type:text"`
	ArchiveKey           string                 `gorm:"type:varchar(255)"`
	BillingAddress       valueobject.Address    `gorm:"type:jsonb"`
	ShippingAddress      valueobject.Address    `gorm:"type:jsonb"`
	BillingContactID     *uuid.UUID             `gorm:"type:uuid"`
	DeliveryContactID    *uuid.UUID             `gorm:"type:uuid"`
	ResponsibleContactID *uuid.UUID             `gorm:"type:uuid"`
	ShippingCostHT       decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	HandlingCostHT       decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	InsuranceCostHT      decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	FeesVATRate          decimal.Decimal        `gorm:"type:decimal(6,4);not null;default:0"`
	Notes                string                 `gorm:"type:text"`
	IssueDate            time.Time              `gorm:"not null"`
	DueDate              *time.Time
	Items                []FinancialDocumentItemModel `gorm:"foreignKey:DocumentID;references:ID;constraint:OnDelete:CASCADE"`
	TotalHT              decimal.Decimal              `gorm:"type:decimal(18,4);not null;default:0"`
	TVAAmount            decimal.Decimal              `gorm:"column:tva_amount;type:decimal(18,4);not null;default:0"`
	TotalTTC             decimal.Decimal              `gorm:"type:decimal(18,4);not null;default:0"`
	SynchronizedAt       *time.Time
	FinalizedAt          *time.Time
}

// TableName returns the table name for GORM
func (FinancialDocumentModel) TableName() string {
	return "financial_documents"
}

// ToDomain converts the model to the domain mirror
func (m *FinancialDocumentModel) ToDomain() *finance.FinancialDocument {
	doc := &finance.FinancialDocument{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		DocumentNumber:    m.DocumentNumber,
		DocumentType:      m.DocumentType,
		WorkflowStatus:    m.WorkflowStatus,
		SalesOrderID:      m.SalesOrderID,
		Customer: trade.CustomerRef{
			Kind:      m.CustomerKind,
			ID:        m.CustomerID,
			LegalName: m.CustomerLegalName,
			TradeName: m.CustomerTradeName,
			FirstName: m.CustomerFirstName,
			LastName:  m.CustomerLastName,
			Email:     m.CustomerEmail,
			Phone:     m.CustomerPhone,
		},
		ProviderID:      m.ProviderID,
		PDFURL:          m.PDFURL,
		PublicURL:       m.PublicURL,
		ArchiveKey:      m.ArchiveKey,
		BillingAddress:  m.BillingAddress,
		ShippingAddress: m.ShippingAddress,
		Contacts: trade.Contacts{
			BillingContactID:     m.BillingContactID,
			DeliveryContactID:    m.DeliveryContactID,
			ResponsibleContactID: m.ResponsibleContactID,
		},
		ShippingCostHT:  m.ShippingCostHT,
		HandlingCostHT:  m.HandlingCostHT,
		InsuranceCostHT: m.InsuranceCostHT,
		FeesVATRate:     m.FeesVATRate,
		Notes:           m.Notes,
		IssueDate:       m.IssueDate,
		DueDate:         m.DueDate,
		TotalHT:         m.TotalHT,
		TVAAmount:       m.TVAAmount,
		TotalTTC:        m.TotalTTC,
		SynchronizedAt:  m.SynchronizedAt,
		FinalizedAt:     m.FinalizedAt,
		Items:           make([]finance.FinancialDocumentItem, len(m.Items)),
	}
	for i, it := range m.Items {
		doc.Items[i] = finance.FinancialDocumentItem{
			ID:                 it.ID,
			DocumentID:         it.DocumentID,
			Kind:               it.Kind,
			ProductID:          it.ProductID,
			Description:        it.Description,
			Quantity:           it.Quantity,
			UnitPriceHT:        it.UnitPriceHT,
			DiscountPercentage: it.Discount,
			TVARate:            it.TVARate,
			Position:           it.Position,
		}
	}
	return doc
}

// FinancialDocumentModelFromDomain maps the header and its items
func FinancialDocumentModelFromDomain(d *finance.FinancialDocument) *FinancialDocumentModel {
	m := &FinancialDocumentModel{
		DocumentNumber:       d.DocumentNumber,
		DocumentType:         d.DocumentType,
		WorkflowStatus:       d.WorkflowStatus,
		SalesOrderID:         d.SalesOrderID,
		CustomerKind:         d.Customer.Kind,
		CustomerID:           d.Customer.ID,
		CustomerLegalName:    d.Customer.LegalName,
		CustomerTradeName:    d.Customer.TradeName,
		CustomerFirstName:    d.Customer.FirstName,
		CustomerLastName:     d.Customer.LastName,
		CustomerEmail:        d.Customer.Email,
		CustomerPhone:        d.Customer.Phone,
		ProviderID:           d.ProviderID,
		PDFURL:               d.PDFURL,
		PublicURL:            d.PublicURL,
		ArchiveKey:           d.ArchiveKey,
		BillingAddress:       d.BillingAddress,
		ShippingAddress:      d.ShippingAddress,
		BillingContactID:     d.Contacts.BillingContactID,
		DeliveryContactID:    d.Contacts.DeliveryContactID,
		ResponsibleContactID: d.Contacts.ResponsibleContactID,
		ShippingCostHT:       d.ShippingCostHT,
		HandlingCostHT:       d.HandlingCostHT,
		InsuranceCostHT:      d.InsuranceCostHT,
		FeesVATRate:          d.FeesVATRate,
		Notes:                d.Notes,
		IssueDate:            d.IssueDate,
		DueDate:              d.DueDate,
		TotalHT:              d.TotalHT,
		TVAAmount:            d.TVAAmount,
		TotalTTC:             d.TotalTTC,
		SynchronizedAt:       d.SynchronizedAt,
		FinalizedAt:          d.FinalizedAt,
		Items:                make([]FinancialDocumentItemModel, len(d.Items)),
	}
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	for i, it := range d.Items {
		id := it.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		m.Items[i] = FinancialDocumentItemModel{
			ID:          id,
			DocumentID:  d.ID,
			Kind:        it.Kind,
			ProductID:   it.ProductID,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPriceHT: it.UnitPriceHT,
			Discount:    it.DiscountPercentage,
			TVARate:     it.TVARate,
			Position:    it.Position,
		}
	}
	return m
}

// FinancialDocumentItemModel is one document line. TVARate is a percentage.
type FinancialDocumentItemModel struct {
	ID          uuid.UUID        `gorm:"type:uuid;primary_key"`
	DocumentID  uuid.UUID        `gorm:"type:uuid;not null;index"`
	Kind        finance.ItemKind `gorm:"type:varchar(20);not null;default:'product'"`
	ProductID   *uuid.UUID       `gorm:"type:uuid"`
	Description string           `gorm:"type:varchar(500);not null"`
	Quantity    decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	UnitPriceHT decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Discount    decimal.Decimal  `gorm:"column:discount_percentage;type:decimal(5,2);not null;default:0"`
	TVARate     decimal.Decimal  `gorm:"column:tva_rate;type:decimal(6,3);not null;default:0"`
	Position    int              `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (FinancialDocumentItemModel) TableName() string {
	return "financial_document_items"
}
