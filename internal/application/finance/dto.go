package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	apptrade "github.com/verone/backoffice/internal/application/trade"
	"github.com/verone/backoffice/internal/domain/finance"
)

// ==================== Request DTOs ====================

// IssueInvoiceRequest issues a provider invoice for an order
type IssueInvoiceRequest struct {
	PaymentTerms string `json:"payment_terms" binding:"omitempty,oneof=immediate net_15 net_30 net_60"`
	Header       string `json:"header" binding:"max=500"`
	Footer       string `json:"footer" binding:"max=500"`
}

// DocumentItemInput is one line of a document edit. TVARate is a percentage.
type DocumentItemInput struct {
	Kind        string          `json:"kind" binding:"omitempty,oneof=product service_fee"`
	ProductID   *uuid.UUID      `json:"product_id"`
	Description string          `json:"description" binding:"required,max=500"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPriceHT decimal.Decimal `json:"unit_price_ht" binding:"decimal_gte0"`
	Discount    decimal.Decimal `json:"discount_percentage" binding:"decimal_gte0"`
	TVARate     decimal.Decimal `json:"tva_rate" binding:"decimal_gte0"`
}

// UpdateDocumentRequest replaces the editable fields of a document
type UpdateDocumentRequest struct {
	Items           []DocumentItemInput    `json:"items" binding:"required,min=1,dive"`
	ShippingCostHT  decimal.Decimal        `json:"shipping_cost_ht" binding:"decimal_gte0"`
	HandlingCostHT  decimal.Decimal        `json:"handling_cost_ht" binding:"decimal_gte0"`
	InsuranceCostHT decimal.Decimal        `json:"insurance_cost_ht" binding:"decimal_gte0"`
	FeesVATRate     *decimal.Decimal       `json:"fees_vat_rate" binding:"omitnil,decimal_gte0"`
	BillingAddress  *apptrade.AddressInput `json:"billing_address"`
	ShippingAddress *apptrade.AddressInput `json:"shipping_address"`
	DueDate         *time.Time             `json:"due_date"`
	Notes           string                 `json:"notes" binding:"max=2000"`
}

// ToEdit converts the request to a domain edit
func (r UpdateDocumentRequest) ToEdit() finance.DocumentEdit {
	items := make([]finance.FinancialDocumentItem, len(r.Items))
	for i, in := range r.Items {
		items[i] = finance.FinancialDocumentItem{
			Kind:               finance.ItemKind(in.Kind),
			ProductID:          in.ProductID,
			Description:        in.Description,
			Quantity:           in.Quantity,
			UnitPriceHT:        in.UnitPriceHT,
			DiscountPercentage: in.Discount,
			TVARate:            in.TVARate,
		}
	}
	feesRate := finance.DefaultFeesVATRate
	if r.FeesVATRate != nil {
		feesRate = *r.FeesVATRate
	}
	return finance.DocumentEdit{
		Items:           items,
		ShippingCostHT:  r.ShippingCostHT,
		HandlingCostHT:  r.HandlingCostHT,
		InsuranceCostHT: r.InsuranceCostHT,
		FeesVATRate:     feesRate,
		BillingAddress:  r.BillingAddress.ToAddress(),
		ShippingAddress: r.ShippingAddress.ToAddress(),
		DueDate:         r.DueDate,
		Notes:           r.Notes,
	}
}

// ==================== Response DTOs ====================

// DocumentItemResponse is one line of a document
type DocumentItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	Kind        string          `json:"kind"`
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPriceHT decimal.Decimal `json:"unit_price_ht"`
	Discount    decimal.Decimal `json:"discount_percentage"`
	TVARate     decimal.Decimal `json:"tva_rate"`
	TotalHT     decimal.Decimal `json:"total_ht"`
	Position    int             `json:"position"`
}

// DocumentResponse is the API view of a financial document mirror
type DocumentResponse struct {
	ID              uuid.UUID              `json:"id"`
	DocumentNumber  string                 `json:"document_number"`
	DocumentType    string                 `json:"document_type"`
	WorkflowStatus  string                 `json:"workflow_status"`
	SalesOrderID    *uuid.UUID             `json:"sales_order_id,omitempty"`
	CustomerName    string                 `json:"customer_name"`
	CustomerEmail   string                 `json:"customer_email,omitempty"`
	ProviderID      string                 `json:"provider_id"`
	PDFURL          string                 `json:"pdf_url,omitempty"`
	PublicURL       string                 `json:"public_url,omitempty"`
	ArchiveKey      string                 `json:"archive_key,omitempty"`
	BillingAddress  apptrade.AddressInput  `json:"billing_address"`
	ShippingAddress apptrade.AddressInput  `json:"shipping_address"`
	ShippingCostHT  decimal.Decimal        `json:"shipping_cost_ht"`
	HandlingCostHT  decimal.Decimal        `json:"handling_cost_ht"`
	InsuranceCostHT decimal.Decimal        `json:"insurance_cost_ht"`
	FeesVATRate     decimal.Decimal        `json:"fees_vat_rate"`
	TotalHT         decimal.Decimal        `json:"total_ht"`
	TVAAmount       decimal.Decimal        `json:"tva_amount"`
	TotalTTC        decimal.Decimal        `json:"total_ttc"`
	Notes           string                 `json:"notes,omitempty"`
	IssueDate       time.Time              `json:"issue_date"`
	DueDate         *time.Time             `json:"due_date,omitempty"`
	FinalizedAt     *time.Time             `json:"finalized_at,omitempty"`
	Items           []DocumentItemResponse `json:"items"`
	Version         int                    `json:"version"`
}

// SyncResultResponse reports what a document sync wrote onto its order
type SyncResultResponse struct {
	DocumentID uuid.UUID                   `json:"document_id"`
	Order      apptrade.SalesOrderResponse `json:"order"`
}

// ToDocumentResponse converts a domain document to a response
func ToDocumentResponse(doc *finance.FinancialDocument) DocumentResponse {
	items := make([]DocumentItemResponse, len(doc.Items))
	for i, item := range doc.Items {
		items[i] = DocumentItemResponse{
			ID:          item.ID,
			Kind:        string(item.Kind),
			ProductID:   item.ProductID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPriceHT: item.UnitPriceHT,
			Discount:    item.DiscountPercentage,
			TVARate:     item.TVARate,
			TotalHT:     item.TotalHT(),
			Position:    item.Position,
		}
	}
	name := doc.Customer.TradeName
	if name == "" {
		name = doc.Customer.LegalName
	}
	if name == "" {
		name = doc.Customer.FirstName + " " + doc.Customer.LastName
	}
	return DocumentResponse{
		ID:              doc.ID,
		DocumentNumber:  doc.DocumentNumber,
		DocumentType:    string(doc.DocumentType),
		WorkflowStatus:  string(doc.WorkflowStatus),
		SalesOrderID:    doc.SalesOrderID,
		CustomerName:    name,
		CustomerEmail:   doc.Customer.Email,
		ProviderID:      doc.ProviderID,
		PDFURL:          doc.PDFURL,
		PublicURL:       doc.PublicURL,
		ArchiveKey:      doc.ArchiveKey,
		BillingAddress:  apptrade.AddressFrom(doc.BillingAddress),
		ShippingAddress: apptrade.AddressFrom(doc.ShippingAddress),
		ShippingCostHT:  doc.ShippingCostHT,
		HandlingCostHT:  doc.HandlingCostHT,
		InsuranceCostHT: doc.InsuranceCostHT,
		FeesVATRate:     doc.FeesVATRate,
		TotalHT:         doc.TotalHT,
		TVAAmount:       doc.TVAAmount,
		TotalTTC:        doc.TotalTTC,
		Notes:           doc.Notes,
		IssueDate:       doc.IssueDate,
		DueDate:         doc.DueDate,
		FinalizedAt:     doc.FinalizedAt,
		Items:           items,
		Version:         doc.Version,
	}
}
