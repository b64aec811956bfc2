package finance

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appshared "github.com/verone/backoffice/internal/application/shared"
	"github.com/verone/backoffice/internal/domain/finance"
	"github.com/verone/backoffice/internal/domain/shared"
	"github.com/verone/backoffice/internal/domain/trade"
	"github.com/verone/backoffice/internal/infrastructure/invoicing"
	"github.com/verone/backoffice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Codes returned by invoicing operations
const (
	CodeMissingBillingAddress = "MISSING_BILLING_ADDRESS"
	CodeMissingCustomerEmail  = "MISSING_CUSTOMER_EMAIL"
	CodeOrderNotInvoiceable   = "ORDER_NOT_INVOICEABLE"
	CodeInvoiceAlreadyExists  = "INVOICE_ALREADY_EXISTS"
)

const (
	defaultLockTTL = 2 * time.Minute
	pdfContentType = "application/pdf"

	unitPiece   = "pièce"
	unitFlatFee = "forfait"
)

var fractionHundred = decimal.NewFromInt(100)

// InvoiceProvider is the part of the invoicing client used by the service
type InvoiceProvider interface {
	ActiveBankAccount(ctx context.Context) (*invoicing.BankAccount, error)
	FindClientByEmail(ctx context.Context, email string) (*invoicing.Customer, error)
	CreateClient(ctx context.Context, in invoicing.CustomerInput) (*invoicing.Customer, error)
	UpdateClient(ctx context.Context, clientID string, in invoicing.CustomerInput) (*invoicing.Customer, error)
	CreateInvoice(ctx context.Context, in invoicing.InvoiceInput, idempotencyKey string) (*invoicing.Invoice, error)
	UpdateInvoice(ctx context.Context, invoiceID string, in invoicing.InvoiceInput) (*invoicing.Invoice, error)
	FinalizeInvoice(ctx context.Context, invoiceID string) (*invoicing.Invoice, error)
	DownloadPDF(ctx context.Context, url string) (io.ReadCloser, int64, error)
}

// DocumentArchive stores finalized document PDFs
type DocumentArchive interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
}

// InvoicingService issues, edits and finalizes provider invoices and keeps
// their local mirrors. Provider calls run outside database transactions and
// are serialized per order or document with a distributed lock.
type InvoicingService struct {
	orderRepo       trade.SalesOrderRepository
	docRepo         finance.FinancialDocumentRepository
	txScope         appshared.TransactionScope
	provider        InvoiceProvider
	locker          shared.Locker
	lockTTL         time.Duration
	idempotency     shared.IdempotencyStore
	idempotencyTTL  time.Duration
	archive         DocumentArchive
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
	logger          *zap.Logger
}

// NewInvoicingService creates a new InvoicingService
func NewInvoicingService(
	orderRepo trade.SalesOrderRepository,
	docRepo finance.FinancialDocumentRepository,
	txScope appshared.TransactionScope,
	provider InvoiceProvider,
	logger *zap.Logger,
) *InvoicingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoicingService{
		orderRepo:      orderRepo,
		docRepo:        docRepo,
		txScope:        txScope,
		provider:       provider,
		lockTTL:        defaultLockTTL,
		idempotencyTTL: shared.DefaultIdempotencyTTL,
		logger:         logger,
	}
}

// SetLocker enables cross-process serialization of provider calls
func (s *InvoicingService) SetLocker(locker shared.Locker, ttl time.Duration) {
	s.locker = locker
	if ttl > 0 {
		s.lockTTL = ttl
	}
}

// SetIdempotencyStore enables replay protection for requests carrying a key
func (s *InvoicingService) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	s.idempotency = store
	if ttl > 0 {
		s.idempotencyTTL = ttl
	}
}

// SetArchive enables PDF archiving on finalize
func (s *InvoicingService) SetArchive(archive DocumentArchive) {
	s.archive = archive
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InvoicingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *InvoicingService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// GetDocument returns a document mirror
func (s *InvoicingService) GetDocument(ctx context.Context, id uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.docRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// IssueInvoice creates a provider invoice for an order and records its mirror
func (s *InvoicingService) IssueInvoice(ctx context.Context, orderID uuid.UUID, req IssueInvoiceRequest, actor shared.Actor, idempotencyKey string) (*DocumentResponse, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, "invoice:order:"+orderID.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	key := ""
	if idempotencyKey != "" && s.idempotency != nil {
		key = fmt.Sprintf("invoice:%s:%s", orderID, idempotencyKey)
		fresh, err := s.idempotency.MarkProcessed(ctx, key, s.idempotencyTTL)
		if err != nil {
			return nil, err
		}
		if !fresh {
			return nil, shared.ErrDuplicateRequest
		}
	}

	doc, err := s.issueInvoice(ctx, orderID, req, actor, idempotencyKey)
	if err != nil {
		if key != "" {
			if relErr := s.idempotency.Release(ctx, key); relErr != nil {
				s.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(relErr))
			}
		}
		return nil, err
	}

	s.publishDomainEvents(ctx, doc)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordInvoiceIssued(ctx, doc.TotalTTC)
	}
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

func (s *InvoicingService) issueInvoice(ctx context.Context, orderID uuid.UUID, req IssueInvoiceRequest, actor shared.Actor, idempotencyKey string) (*finance.FinancialDocument, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID, false)
	if err != nil {
		return nil, err
	}
	if err := checkInvoiceable(order); err != nil {
		return nil, err
	}
	existing, err := s.docRepo.FindBySalesOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	for _, d := range existing {
		if d.DocumentType == finance.DocumentTypeInvoice {
			return nil, shared.NewDomainError(CodeInvoiceAlreadyExists,
				fmt.Sprintf("Order %s already has invoice %s", order.OrderNumber, d.DocumentNumber))
		}
	}

	account, err := s.provider.ActiveBankAccount(ctx)
	if err != nil {
		return nil, err
	}
	client, err := s.resolveClient(ctx, order)
	if err != nil {
		return nil, err
	}

	issued := time.Now().UTC()
	due := DueDate(issued, req.PaymentTerms)
	input := invoicing.InvoiceInput{
		ClientID:            client.ID,
		Currency:            invoicing.CurrencyEUR,
		IssueDate:           issued.Format(time.DateOnly),
		DueDate:             due.Format(time.DateOnly),
		PaymentMethods:      &invoicing.PaymentMethods{IBAN: account.IBAN},
		PurchaseOrderNumber: order.OrderNumber,
		Header:              req.Header,
		Footer:              req.Footer,
		Items:               orderItems(order),
	}

	providerKey := "order-" + order.ID.String()
	if idempotencyKey != "" {
		providerKey += "-" + idempotencyKey
	}
	invoice, err := s.provider.CreateInvoice(ctx, input, providerKey)
	if err != nil {
		s.logger.Error("provider invoice creation failed",
			zap.String("order_id", order.ID.String()),
			zap.String("client_id", client.ID),
			zap.Error(err),
		)
		return nil, err
	}

	doc, err := finance.NewInvoiceMirror(order, invoice.ID, invoice.InvoiceNumber, mirrorItems(order), actor)
	if err != nil {
		return nil, err
	}
	doc.DueDate = &due
	doc.PDFURL = invoice.PDFURL
	doc.PublicURL = invoice.PublicURL

	err = s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		return repos.DocumentRepo().Create(ctx, doc)
	})
	if err != nil {
		// The provider invoice exists without a mirror; it is not reconciled automatically.
		s.logger.Error("invoice mirror not persisted",
			zap.String("order_id", order.ID.String()),
			zap.String("provider_id", invoice.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("invoice issued",
		zap.String("order_id", order.ID.String()),
		zap.String("document_id", doc.ID.String()),
		zap.String("provider_id", invoice.ID),
		zap.String("total_ttc", doc.TotalTTC.String()),
	)
	return doc, nil
}

// UpdateDocument pushes an edit to the provider, then stores it on the mirror
func (s *InvoicingService) UpdateDocument(ctx context.Context, id uuid.UUID, req UpdateDocumentRequest, actor shared.Actor) (*DocumentResponse, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	unlock, err := s.lock(ctx, "invoice:document:"+id.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	doc, err := s.docRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := doc.ApplyEdit(req.ToEdit(), actor, time.Now().UTC()); err != nil {
		return nil, err
	}

	if _, err := s.provider.UpdateInvoice(ctx, doc.ProviderID, documentInput(doc)); err != nil {
		s.logger.Error("provider invoice update failed",
			zap.String("document_id", doc.ID.String()),
			zap.String("provider_id", doc.ProviderID),
			zap.Error(err),
		)
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		return repos.DocumentRepo().Save(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, doc)
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// FinalizeDocument finalizes the provider invoice and archives its PDF.
// Archive failures are logged and do not fail the call.
func (s *InvoicingService) FinalizeDocument(ctx context.Context, id uuid.UUID, actor shared.Actor) (*DocumentResponse, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	unlock, err := s.lock(ctx, "invoice:document:"+id.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	doc, err := s.docRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !doc.WorkflowStatus.CanAdvanceTo(finance.WorkflowFinalized) {
		return nil, shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Document %s is already %s", doc.DocumentNumber, doc.WorkflowStatus))
	}

	invoice, err := s.provider.FinalizeInvoice(ctx, doc.ProviderID)
	if err != nil {
		return nil, err
	}
	if err := doc.MarkFinalized(invoice.InvoiceNumber, invoice.PDFURL, invoice.PublicURL, actor, time.Now().UTC()); err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		return repos.DocumentRepo().Save(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	s.archivePDF(ctx, doc)
	s.publishDomainEvents(ctx, doc)
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

func (s *InvoicingService) archivePDF(ctx context.Context, doc *finance.FinancialDocument) {
	if s.archive == nil || doc.PDFURL == "" {
		return
	}
	log := s.logger.With(zap.String("document_id", doc.ID.String()))

	body, size, err := s.provider.DownloadPDF(ctx, doc.PDFURL)
	if err != nil {
		log.Warn("failed to download invoice pdf", zap.Error(err))
		return
	}
	defer body.Close()

	key := doc.ArchivePath()
	if err := s.archive.Upload(ctx, key, pdfContentType, body, size); err != nil {
		log.Warn("failed to archive invoice pdf", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.docRepo.UpdateArchiveKey(ctx, doc.ID, key); err != nil {
		log.Warn("failed to record archive key", zap.String("key", key), zap.Error(err))
		return
	}
	doc.ArchiveKey = key
	log.Info("invoice pdf archived", zap.String("key", key))
}

func (s *InvoicingService) resolveClient(ctx context.Context, order *trade.SalesOrder) (*invoicing.Customer, error) {
	in := clientInput(order)
	existing, err := s.provider.FindClientByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return s.provider.CreateClient(ctx, in)
	}
	return s.provider.UpdateClient(ctx, existing.ID, in)
}

func (s *InvoicingService) lock(ctx context.Context, key string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	l, err := s.locker.Obtain(ctx, key, s.lockTTL)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := l.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

func (s *InvoicingService) publishDomainEvents(ctx context.Context, doc *finance.FinancialDocument) {
	events := doc.GetDomainEvents()
	doc.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish document events", zap.Error(err))
	}
}

func checkInvoiceable(order *trade.SalesOrder) error {
	if order.Status == trade.OrderStatusDraft || order.Status == trade.OrderStatusCancelled {
		return shared.NewDomainError(CodeOrderNotInvoiceable,
			fmt.Sprintf("Order %s is %s and cannot be invoiced", order.OrderNumber, order.Status))
	}
	if len(order.Items) == 0 {
		return shared.NewDomainError("EMPTY_ORDER", fmt.Sprintf("Order %s has no lines", order.OrderNumber))
	}
	if strings.TrimSpace(order.Customer.ContactEmail()) == "" {
		return shared.NewDomainError(CodeMissingCustomerEmail, "The customer needs an email address to be invoiced")
	}
	if !order.BillingAddress.IsBillable() {
		return shared.NewDomainError(CodeMissingBillingAddress, "A billing address with city and postal code is required")
	}
	return nil
}

// DueDate returns the due date for payment terms; unknown terms default to 30 days
func DueDate(issued time.Time, terms string) time.Time {
	days := 30
	switch terms {
	case "immediate":
		days = 0
	case "net_15":
		days = 15
	case "net_60":
		days = 60
	}
	return issued.AddDate(0, 0, days)
}

func clientInput(order *trade.SalesOrder) invoicing.CustomerInput {
	ref := trade.RefOf(order.Customer)
	in := invoicing.CustomerInput{
		Name:     order.Customer.DisplayName(),
		Email:    strings.TrimSpace(ref.Email),
		Phone:    ref.Phone,
		Currency: invoicing.CurrencyEUR,
		Locale:   "fr",
		BillingAddress: &invoicing.Address{
			StreetAddress: order.BillingAddress.Street,
			City:          order.BillingAddress.City,
			ZipCode:       order.BillingAddress.PostalCode,
			CountryCode:   order.BillingAddress.Country,
		},
	}
	if ref.Kind == trade.CustomerKindIndividual {
		in.Type = invoicing.ClientTypeIndividual
		in.FirstName = ref.FirstName
		in.LastName = ref.LastName
	} else {
		in.Type = invoicing.ClientTypeCompany
	}
	return in
}

func amount(v decimal.Decimal) invoicing.Amount {
	return invoicing.Amount{Value: v.StringFixed(2), Currency: invoicing.CurrencyEUR}
}

func lineTitle(description string, position int) string {
	if t := strings.TrimSpace(description); t != "" {
		return t
	}
	return fmt.Sprintf("Article %d", position+1)
}

func orderItems(order *trade.SalesOrder) []invoicing.Item {
	items := make([]invoicing.Item, 0, len(order.Items)+3)
	for _, line := range order.Items {
		items = append(items, invoicing.Item{
			Title:     lineTitle(line.Description, line.Position),
			Quantity:  line.Quantity.String(),
			Unit:      unitPiece,
			UnitPrice: amount(line.UnitPriceHT),
			VATRate:   line.TaxRate.String(),
			Discount:  lineDiscount(line.DiscountPercentage),
		})
	}
	return append(items, feeItems(order.Fees)...)
}

// lineDiscount converts a percentage discount to the provider form, nil when
// there is none
func lineDiscount(percentage decimal.Decimal) *invoicing.Discount {
	if !percentage.IsPositive() {
		return nil
	}
	return &invoicing.Discount{
		Type:  invoicing.DiscountTypePercentage,
		Value: percentage.Div(fractionHundred).String(),
	}
}

type feeLine struct {
	title string
	value decimal.Decimal
	rate  decimal.Decimal
}

// feeLines lists the non-zero fees with their VAT rate as a fraction
func feeLines(fees trade.Fees) []feeLine {
	rate := fees.VATRate
	if rate.IsZero() {
		rate = finance.DefaultFeesVATRate
	}
	var lines []feeLine
	for _, f := range []feeLine{
		{title: "Frais de livraison", value: fees.ShippingHT},
		{title: "Frais de manutention", value: fees.HandlingHT},
		{title: "Frais d'assurance", value: fees.InsuranceHT},
	} {
		if !f.value.IsPositive() {
			continue
		}
		f.rate = rate
		lines = append(lines, f)
	}
	return lines
}

func feeItems(fees trade.Fees) []invoicing.Item {
	lines := feeLines(fees)
	items := make([]invoicing.Item, len(lines))
	for i, f := range lines {
		items[i] = invoicing.Item{
			Title:     f.title,
			Quantity:  "1",
			Unit:      unitFlatFee,
			UnitPrice: amount(f.value),
			VATRate:   f.rate.String(),
		}
	}
	return items
}

// mirrorItems records order lines with percentage VAT plus the fee lines.
// Fee lines are informational; totals use the fee fields.
func mirrorItems(order *trade.SalesOrder) []finance.FinancialDocumentItem {
	items := make([]finance.FinancialDocumentItem, 0, len(order.Items)+3)
	for _, line := range order.Items {
		item := finance.FinancialDocumentItem{
			Kind:               finance.ItemKindProduct,
			Description:        lineTitle(line.Description, line.Position),
			Quantity:           line.Quantity,
			UnitPriceHT:        line.UnitPriceHT,
			DiscountPercentage: line.DiscountPercentage,
			TVARate:            line.TaxRate.Mul(fractionHundred),
		}
		if line.ProductID != uuid.Nil {
			productID := line.ProductID
			item.ProductID = &productID
		}
		items = append(items, item)
	}
	for _, fee := range feeLines(order.Fees) {
		items = append(items, finance.FinancialDocumentItem{
			Kind:        finance.ItemKindServiceFee,
			Description: fee.title,
			Quantity:    decimal.NewFromInt(1),
			UnitPriceHT: fee.value,
			TVARate:     fee.rate.Mul(fractionHundred),
		})
	}
	return items
}

// documentInput is the provider form of an edited document
func documentInput(doc *finance.FinancialDocument) invoicing.InvoiceInput {
	products := doc.ProductItems()
	items := make([]invoicing.Item, 0, len(products)+3)
	for _, p := range products {
		items = append(items, invoicing.Item{
			Title:     lineTitle(p.Description, p.Position),
			Quantity:  p.Quantity.String(),
			Unit:      unitPiece,
			UnitPrice: amount(p.UnitPriceHT),
			VATRate:   p.TVARate.Div(fractionHundred).String(),
			Discount:  lineDiscount(p.DiscountPercentage),
		})
	}
	items = append(items, feeItems(doc.Fees())...)

	in := invoicing.InvoiceInput{Items: items, Footer: doc.Notes}
	if doc.DueDate != nil {
		in.DueDate = doc.DueDate.Format(time.DateOnly)
	}
	return in
}
