package invoicing

import (
	"context"
	"io"
)

// ErrCodeDisabled marks calls made while no provider is configured
const ErrCodeDisabled = "PROVIDER_DISABLED"

// ErrProviderDisabled is returned by every DisabledClient call
var ErrProviderDisabled = &ProviderError{Code: ErrCodeDisabled, Detail: "invoicing provider is not configured"}

// DisabledClient stands in for Client when Qonto is turned off. Order and
// stock endpoints keep working; invoicing calls fail as upstream errors.
type DisabledClient struct{}

func (DisabledClient) ActiveBankAccount(context.Context) (*BankAccount, error) {
	return nil, ErrProviderDisabled
}

func (DisabledClient) FindClientByEmail(context.Context, string) (*Customer, error) {
	return nil, ErrProviderDisabled
}

func (DisabledClient) CreateClient(context.Context, CustomerInput) (*Customer, error) {
	return nil, ErrProviderDisabled
}

func (DisabledClient) UpdateClient(context.Context, string, CustomerInput) (*Customer, error) {
	return nil, ErrProviderDisabled
}

func (DisabledClient) CreateInvoice(context.Context, InvoiceInput, string) (*Invoice, error) {
	return nil, ErrProviderDisabled
}

func (DisabledClient) UpdateInvoice(context.Context, string, InvoiceInput) (*Invoice, error) {
	return nil, ErrProviderDisabled
}

func (DisabledClient) FinalizeInvoice(context.Context, string) (*Invoice, error) {
	return nil, ErrProviderDisabled
}

func (DisabledClient) DownloadPDF(context.Context, string) (io.ReadCloser, int64, error) {
	return nil, 0, ErrProviderDisabled
}
