package invoicing

import (
	"fmt"
	"net/http"
)

// Client types accepted by Qonto
const (
	ClientTypeCompany    = "company"
	ClientTypeIndividual = "individual"
)

// CurrencyEUR is the only currency the back office bills in
const CurrencyEUR = "EUR"

// BankAccount is an account of the organization
type BankAccount struct {
	ID       string `json:"id"`
	Slug     string `json:"slug"`
	IBAN     string `json:"iban"`
	BIC      string `json:"bic"`
	Currency string `json:"currency"`
	Name     string `json:"name"`
	Status   string `json:"status"`
}

// IsActive reports whether the account can receive payments
func (a BankAccount) IsActive() bool {
	return a.Status == "active"
}

// Address is a Qonto billing address
type Address struct {
	StreetAddress string `json:"street_address,omitempty"`
	City          string `json:"city,omitempty"`
	ZipCode       string `json:"zip_code,omitempty"`
	CountryCode   string `json:"country_code,omitempty"`
}

// CustomerInput creates or updates a Qonto client
type CustomerInput struct {
	Name           string   `json:"name,omitempty"`
	FirstName      string   `json:"first_name,omitempty"`
	LastName       string   `json:"last_name,omitempty"`
	Type           string   `json:"type,omitempty"`
	Email          string   `json:"email,omitempty"`
	Currency       string   `json:"currency,omitempty"`
	VATNumber      string   `json:"vat_number,omitempty"`
	BillingAddress *Address `json:"billing_address,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	Locale         string   `json:"locale,omitempty"`
}

// Customer is a Qonto client (the party being invoiced)
type Customer struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	Email          string   `json:"email"`
	VATNumber      string   `json:"vat_number"`
	BillingAddress *Address `json:"billing_address"`
	Locale         string   `json:"locale"`
}

// Amount is a decimal string with its currency
type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// Item is one invoice or quote line. Quantity and VATRate are decimal
// strings; VATRate is a fraction ("0.2").
type Item struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Quantity    string    `json:"quantity"`
	Unit        string    `json:"unit,omitempty"`
	UnitPrice   Amount    `json:"unit_price"`
	VATRate     string    `json:"vat_rate"`
	Discount    *Discount `json:"discount,omitempty"`
}

// DiscountTypePercentage is a discount expressed as a fraction of the line
const DiscountTypePercentage = "percentage"

// Discount is a line discount. Percentage values are fractions, like VATRate.
type Discount struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// PaymentMethods carries the IBAN printed on the invoice
type PaymentMethods struct {
	IBAN string `json:"iban"`
}

// InvoiceInput creates or updates a client invoice
type InvoiceInput struct {
	ClientID            string          `json:"client_id,omitempty"`
	Currency            string          `json:"currency,omitempty"`
	IssueDate           string          `json:"issue_date,omitempty"`
	DueDate             string          `json:"due_date,omitempty"`
	PaymentMethods      *PaymentMethods `json:"payment_methods,omitempty"`
	PurchaseOrderNumber string          `json:"purchase_order_number,omitempty"`
	Header              string          `json:"header,omitempty"`
	Footer              string          `json:"footer,omitempty"`
	Items               []Item          `json:"items,omitempty"`
}

// Invoice is a Qonto client invoice
type Invoice struct {
	ID                  string  `json:"id"`
	InvoiceNumber       string  `json:"invoice_number"`
	Status              string  `json:"status"`
	Currency            string  `json:"currency"`
	ClientID            string  `json:"client_id"`
	IssueDate           string  `json:"issue_date"`
	DueDate             string  `json:"due_date"`
	TotalAmount         float64 `json:"total_amount"`
	TotalAmountCents    int64   `json:"total_amount_cents"`
	TotalVATAmountCents int64   `json:"total_vat_amount_cents"`
	PurchaseOrderNumber string  `json:"purchase_order_number"`
	AttachmentID        string  `json:"attachment_id"`
	PDFURL              string  `json:"pdf_url"`
	PublicURL           string  `json:"public_url"`
	FinalizedAt         string  `json:"finalized_at"`
}

// QuoteInput creates a client quote
type QuoteInput struct {
	ClientID   string `json:"client_id"`
	Currency   string `json:"currency,omitempty"`
	IssueDate  string `json:"issue_date"`
	ExpiryDate string `json:"expiry_date"`
	Header     string `json:"header,omitempty"`
	Items      []Item `json:"items"`
}

// Quote is a Qonto client quote
type Quote struct {
	ID          string  `json:"id"`
	QuoteNumber string  `json:"number"`
	Status      string  `json:"status"`
	ClientID    string  `json:"client_id"`
	IssueDate   string  `json:"issue_date"`
	ExpiryDate  string  `json:"expiry_date"`
	TotalAmount float64 `json:"total_amount"`
	PDFURL      string  `json:"pdf_url"`
	PublicURL   string  `json:"public_url"`
}

// Error codes carried by ProviderError
const (
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeAuth       = "AUTH_ERROR"
	ErrCodePermission = "PERMISSION_ERROR"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeRateLimit  = "RATE_LIMIT"
	ErrCodeServer     = "SERVER_ERROR"
	ErrCodeNetwork    = "NETWORK_ERROR"
	ErrCodeUnknown    = "UNKNOWN_ERROR"
)

// ProviderError is a failed call to Qonto
type ProviderError struct {
	Status int
	Code   string
	Detail string
	Body   string
}

func (e *ProviderError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("qonto: %s: %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("qonto: %s (HTTP %d): %s", e.Code, e.Status, e.Detail)
}

// Upstream marks the error as an invoicing provider failure
func (e *ProviderError) Upstream() bool { return true }

// Retryable reports whether the call may succeed if repeated
func (e *ProviderError) Retryable() bool {
	switch e.Code {
	case ErrCodeNetwork, ErrCodeServer, ErrCodeRateLimit:
		return true
	}
	return false
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrCodeValidation
	case http.StatusUnauthorized:
		return ErrCodeAuth
	case http.StatusForbidden:
		return ErrCodePermission
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusTooManyRequests:
		return ErrCodeRateLimit
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrCodeServer
	}
	return ErrCodeUnknown
}

type bankAccountsEnvelope struct {
	BankAccounts []BankAccount `json:"bank_accounts"`
}

type clientsEnvelope struct {
	Clients []Customer `json:"clients"`
	Meta    struct {
		TotalCount  int  `json:"total_count"`
		CurrentPage int  `json:"current_page"`
		NextPage    *int `json:"next_page"`
	} `json:"meta"`
}

type clientEnvelope struct {
	Client Customer `json:"client"`
}

type invoiceEnvelope struct {
	ClientInvoice Invoice `json:"client_invoice"`
}

type quoteEnvelope struct {
	Quote Quote `json:"quote"`
}

type errorEnvelope struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Errors  []struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"errors"`
}
