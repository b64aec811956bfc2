package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/verone/backoffice/internal/domain/shared"
	"github.com/verone/backoffice/internal/domain/shared/valueobject"
	"github.com/verone/backoffice/internal/domain/trade"
)

// DocumentType distinguishes invoices, quotes and credit notes
type DocumentType string

const (
	DocumentTypeInvoice    DocumentType = "invoice"
	DocumentTypeQuote      DocumentType = "quote"
	DocumentTypeCreditNote DocumentType = "credit_note"
)

// IsValid returns true if the document type is known
func (t DocumentType) IsValid() bool {
	return t == DocumentTypeInvoice || t == DocumentTypeQuote || t == DocumentTypeCreditNote
}

// WorkflowStatus is the local lifecycle gate of a provider document
type WorkflowStatus string

const (
	WorkflowSynchronized   WorkflowStatus = "synchronized"
	WorkflowDraftValidated WorkflowStatus = "draft_validated"
	WorkflowFinalized      WorkflowStatus = "finalized"
	WorkflowSent           WorkflowStatus = "sent"
	WorkflowPaid           WorkflowStatus = "paid"
)

var workflowRank = map[WorkflowStatus]int{
	WorkflowSynchronized:   0,
	WorkflowDraftValidated: 1,
	WorkflowFinalized:      2,
	WorkflowSent:           3,
	WorkflowPaid:           4,
}

// IsValid returns true if the workflow status is known
func (s WorkflowStatus) IsValid() bool {
	_, ok := workflowRank[s]
	return ok
}

// IsEditable reports whether the document may still be edited or pushed onto its order
func (s WorkflowStatus) IsEditable() bool {
	return s == WorkflowSynchronized || s == WorkflowDraftValidated
}

// CanAdvanceTo is true when target is the same or a later stage.
// draft_validated may be re-entered to record further edits.
func (s WorkflowStatus) CanAdvanceTo(target WorkflowStatus) bool {
	from, ok := workflowRank[s]
	if !ok {
		return false
	}
	to, ok := workflowRank[target]
	if !ok {
		return false
	}
	if s == target {
		return s == WorkflowDraftValidated
	}
	return to > from
}

// ItemKind separates product lines from service fee lines
type ItemKind string

const (
	ItemKindProduct    ItemKind = "product"
	ItemKindServiceFee ItemKind = "service_fee"
)

// Codes returned by document operations
const (
	CodeInvoiceNotLinked   = "INVOICE_NOT_LINKED"
	CodeInvoiceNotEditable = "INVOICE_NOT_EDITABLE"
)

// FinancialDocumentItem is one line of a provider document. TVARate and
// DiscountPercentage are percentages (20 for 20%).
type FinancialDocumentItem struct {
	ID                 uuid.UUID
	DocumentID         uuid.UUID
	Kind               ItemKind
	ProductID          *uuid.UUID
	Description        string
	Quantity           decimal.Decimal
	UnitPriceHT        decimal.Decimal
	DiscountPercentage decimal.Decimal
	TVARate            decimal.Decimal
	Position           int
}

// TotalHT is quantity times unit price, less the line discount
func (i FinancialDocumentItem) TotalHT() decimal.Decimal {
	gross := i.Quantity.Mul(i.UnitPriceHT)
	return gross.Sub(gross.Mul(i.DiscountPercentage).Div(hundred))
}

// TVAAmount is the VAT due on the line
func (i FinancialDocumentItem) TVAAmount() decimal.Decimal {
	return i.TotalHT().Mul(i.TVARate).Div(hundred)
}

// IsProduct reports whether the line is a product line
func (i FinancialDocumentItem) IsProduct() bool {
	return i.Kind == ItemKindProduct || i.Kind == ""
}

var hundred = decimal.NewFromInt(100)

// DefaultFeesVATRate applies when no fees rate is given
var DefaultFeesVATRate = decimal.NewFromFloat(0.2)

// FinancialDocument is the local mirror of a document held by the invoicing provider
type FinancialDocument struct {
	shared.BaseAggregateRoot
	DocumentNumber  string
	DocumentType    DocumentType
	WorkflowStatus  WorkflowStatus
	SalesOrderID    *uuid.UUID
	Customer        trade.CustomerRef
	ProviderID      string
	PDFURL          string
	PublicURL       string
	ArchiveKey      string
	BillingAddress  valueobject.Address
	ShippingAddress valueobject.Address
	Contacts        trade.Contacts
	ShippingCostHT  decimal.Decimal
	HandlingCostHT  decimal.Decimal
	InsuranceCostHT decimal.Decimal
	FeesVATRate     decimal.Decimal // fraction
	Notes           string
	IssueDate       time.Time
	DueDate         *time.Time
	Items           []FinancialDocumentItem
	TotalHT         decimal.Decimal
	TVAAmount       decimal.Decimal
	TotalTTC        decimal.Decimal
	SynchronizedAt  *time.Time
	FinalizedAt     *time.Time
}

// NewInvoiceMirror creates the local record of an invoice just created at the provider
func NewInvoiceMirror(order *trade.SalesOrder, providerID, number string, items []FinancialDocumentItem, actor shared.Actor) (*FinancialDocument, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(providerID) == "" {
		return nil, shared.NewDomainError("INVALID_PROVIDER_ID", "Provider document ID cannot be empty")
	}

	now := time.Now().UTC()
	orderID := order.ID
	doc := &FinancialDocument{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(actor.UserID),
		DocumentNumber:    number,
		DocumentType:      DocumentTypeInvoice,
		WorkflowStatus:    WorkflowSynchronized,
		SalesOrderID:      &orderID,
		Customer:          trade.RefOf(order.Customer),
		ProviderID:        providerID,
		BillingAddress:    order.BillingAddress,
		ShippingAddress:   order.ShippingAddress,
		Contacts:          order.Contacts,
		ShippingCostHT:    order.Fees.ShippingHT,
		HandlingCostHT:    order.Fees.HandlingHT,
		InsuranceCostHT:   order.Fees.InsuranceHT,
		FeesVATRate:       order.Fees.VATRate,
		IssueDate:         now,
		SynchronizedAt:    &now,
	}
	doc.setItems(items)
	doc.RecalculateTotals()
	return doc, nil
}

func (d *FinancialDocument) setItems(items []FinancialDocumentItem) {
	d.Items = make([]FinancialDocumentItem, len(items))
	for i, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		if item.Kind == "" {
			item.Kind = ItemKindProduct
		}
		item.DocumentID = d.ID
		item.Position = i
		d.Items[i] = item
	}
}

// ProductItems returns the product lines in position order
func (d *FinancialDocument) ProductItems() []FinancialDocumentItem {
	out := make([]FinancialDocumentItem, 0, len(d.Items))
	for _, item := range d.Items {
		if item.IsProduct() {
			out = append(out, item)
		}
	}
	return out
}

// Fees returns the fee components in order form
func (d *FinancialDocument) Fees() trade.Fees {
	rate := d.FeesVATRate
	if rate.IsZero() && !d.feesHT().IsZero() {
		rate = DefaultFeesVATRate
	}
	return trade.Fees{
		ShippingHT:  d.ShippingCostHT,
		HandlingHT:  d.HandlingCostHT,
		InsuranceHT: d.InsuranceCostHT,
		VATRate:     rate,
	}
}

func (d *FinancialDocument) feesHT() decimal.Decimal {
	return d.ShippingCostHT.Add(d.HandlingCostHT).Add(d.InsuranceCostHT)
}

// ComputeTotals returns totals from product lines plus fee components.
// Service fee lines are excluded because fees are carried by the cost fields.
func (d *FinancialDocument) ComputeTotals() trade.Totals {
	net := decimal.Zero
	tax := decimal.Zero
	for _, item := range d.ProductItems() {
		net = net.Add(item.TotalHT())
		tax = tax.Add(item.TVAAmount())
	}
	fees := d.Fees()
	net = net.Add(fees.TotalHT())
	tax = tax.Add(fees.TaxAmount())
	return trade.Totals{
		NetHT:     net.Round(2),
		TaxAmount: tax.Round(2),
		GrossTTC:  net.Add(tax).Round(2),
	}
}

// RecalculateTotals stores ComputeTotals on the document
func (d *FinancialDocument) RecalculateTotals() {
	t := d.ComputeTotals()
	d.TotalHT = t.NetHT
	d.TVAAmount = t.TaxAmount
	d.TotalTTC = t.GrossTTC
}

// IsEditable reports whether the document workflow still allows edits
func (d *FinancialDocument) IsEditable() bool {
	return d.WorkflowStatus.IsEditable()
}

// EnsureEditable returns INVOICE_NOT_EDITABLE once the document is finalized
func (d *FinancialDocument) EnsureEditable() error {
	if !d.IsEditable() {
		return shared.NewDomainError(CodeInvoiceNotEditable,
			fmt.Sprintf("Document %s is %s and can no longer be edited", d.DocumentNumber, d.WorkflowStatus))
	}
	return nil
}

// DocumentEdit carries the editable fields of a document
type DocumentEdit struct {
	Items           []FinancialDocumentItem
	ShippingCostHT  decimal.Decimal
	HandlingCostHT  decimal.Decimal
	InsuranceCostHT decimal.Decimal
	FeesVATRate     decimal.Decimal
	BillingAddress  valueobject.Address
	ShippingAddress valueobject.Address
	DueDate         *time.Time
	Notes           string
}

// Validate rejects malformed edits
func (e DocumentEdit) Validate() error {
	if len(e.Items) == 0 {
		return shared.NewDomainError("EMPTY_DOCUMENT", "A document needs at least one line")
	}
	for i, item := range e.Items {
		if strings.TrimSpace(item.Description) == "" {
			return shared.NewDomainError("INVALID_DESCRIPTION", fmt.Sprintf("Line %d needs a description", i+1))
		}
		if !item.Quantity.IsPositive() {
			return shared.NewDomainError("INVALID_QUANTITY", fmt.Sprintf("Line %d quantity must be positive", i+1))
		}
		if item.UnitPriceHT.IsNegative() {
			return shared.NewDomainError("INVALID_PRICE", fmt.Sprintf("Line %d unit price cannot be negative", i+1))
		}
		if item.DiscountPercentage.IsNegative() || item.DiscountPercentage.GreaterThan(hundred) {
			return shared.NewDomainError("INVALID_DISCOUNT", fmt.Sprintf("Line %d discount must be between 0 and 100 percent", i+1))
		}
		if item.TVARate.IsNegative() || item.TVARate.GreaterThan(hundred) {
			return shared.NewDomainError("INVALID_TAX_RATE", fmt.Sprintf("Line %d VAT rate must be a percentage between 0 and 100", i+1))
		}
	}
	fees := trade.Fees{ShippingHT: e.ShippingCostHT, HandlingHT: e.HandlingCostHT, InsuranceHT: e.InsuranceCostHT, VATRate: e.FeesVATRate}
	return fees.Validate()
}

// ApplyEdit replaces the editable fields and moves the document to draft_validated
func (d *FinancialDocument) ApplyEdit(edit DocumentEdit, actor shared.Actor, now time.Time) error {
	if err := actor.Require(); err != nil {
		return err
	}
	if err := d.EnsureEditable(); err != nil {
		return err
	}
	if err := edit.Validate(); err != nil {
		return err
	}

	d.setItems(edit.Items)
	d.ShippingCostHT = edit.ShippingCostHT
	d.HandlingCostHT = edit.HandlingCostHT
	d.InsuranceCostHT = edit.InsuranceCostHT
	d.FeesVATRate = edit.FeesVATRate
	d.BillingAddress = edit.BillingAddress
	d.ShippingAddress = edit.ShippingAddress
	d.DueDate = edit.DueDate
	d.Notes = edit.Notes
	d.RecalculateTotals()

	from := d.WorkflowStatus
	d.WorkflowStatus = WorkflowDraftValidated
	d.Touch(now)
	d.IncrementVersion()
	d.AddDomainEvent(NewDocumentWorkflowChangedEvent(d, from, actor))
	return nil
}

// AdvanceTo moves the workflow forward
func (d *FinancialDocument) AdvanceTo(target WorkflowStatus, actor shared.Actor, now time.Time) error {
	if err := actor.Require(); err != nil {
		return err
	}
	if !d.WorkflowStatus.CanAdvanceTo(target) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot move document from %s to %s", d.WorkflowStatus, target))
	}
	from := d.WorkflowStatus
	d.WorkflowStatus = target
	if target == WorkflowFinalized {
		d.FinalizedAt = &now
	}
	d.Touch(now)
	d.IncrementVersion()
	d.AddDomainEvent(NewDocumentWorkflowChangedEvent(d, from, actor))
	return nil
}

// MarkFinalized records the provider's finalization and PDF location
func (d *FinancialDocument) MarkFinalized(number, pdfURL, publicURL string, actor shared.Actor, now time.Time) error {
	if err := d.AdvanceTo(WorkflowFinalized, actor, now); err != nil {
		return err
	}
	if number != "" {
		d.DocumentNumber = number
	}
	d.PDFURL = pdfURL
	d.PublicURL = publicURL
	return nil
}

// ArchivePath is the object key of the archived PDF
func (d *FinancialDocument) ArchivePath() string {
	year := d.IssueDate.Year()
	if d.FinalizedAt != nil {
		year = d.FinalizedAt.Year()
	}
	number := d.DocumentNumber
	if number == "" {
		number = d.ID.String()
	}
	return fmt.Sprintf("%ss/%d/%s.pdf", d.DocumentType, year, number)
}
